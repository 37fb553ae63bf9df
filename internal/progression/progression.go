// Package progression derives the level view and badge tier shown for a
// profile's experience score.
package progression

import (
	"fmt"
	"math"
)

// XPPerLevel is the size of one level band.
const XPPerLevel = 100

// MaxLevel is the highest level whose band end fits in an int.
const MaxLevel = math.MaxInt / XPPerLevel

// Progress is the rendered state of the XP bar.
type Progress struct {
	Level          int
	XPForNextLevel int
	XPIntoLevel    int
	Percent        float64
}

// String renders the bar caption, e.g. "40 / 200 XP to next level".
func (p Progress) String() string {
	return fmt.Sprintf("%d / %d XP to next level", p.XPIntoLevel, p.XPForNextLevel)
}

// ComputeProgress renders whatever (xpScore, level) pair it is given.
// A level below 1 is treated as 1, one above MaxLevel as MaxLevel and a
// negative score as 0.
func ComputeProgress(xpScore, level int) Progress {
	level = min(max(level, 1), MaxLevel)
	if xpScore < 0 {
		xpScore = 0
	}

	next := level * XPPerLevel
	into := xpScore % XPPerLevel

	return Progress{
		Level:          level,
		XPForNextLevel: next,
		XPIntoLevel:    into,
		Percent:        float64(into) / float64(next) * 100,
	}
}

// LevelForXP is the level a score reaches: one level per XPPerLevel,
// starting at 1.
func LevelForXP(xpScore int) int {
	if xpScore < 0 {
		return 1
	}
	return xpScore/XPPerLevel + 1
}

// AddXP applies delta to score, saturating at 0 and math.MaxInt.
func AddXP(score, delta int) int {
	score = max(score, 0)
	if delta > 0 && score > math.MaxInt-delta {
		return math.MaxInt
	}
	return max(score+delta, 0)
}

// NextLevel returns the level to store after the score changed to xpScore.
// Levels never go down, even if the score is later reduced.
func NextLevel(current, xpScore int) int {
	return max(current, LevelForXP(xpScore), 1)
}
