package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name  string
		xp    int
		level int
		want  Progress
	}{
		{name: "zero", xp: 0, level: 1, want: Progress{Level: 1, XPForNextLevel: 100, XPIntoLevel: 0, Percent: 0}},
		{name: "half of first", xp: 50, level: 1, want: Progress{Level: 1, XPForNextLevel: 100, XPIntoLevel: 50, Percent: 50}},
		{name: "level three", xp: 240, level: 3, want: Progress{Level: 3, XPForNextLevel: 300, XPIntoLevel: 40, Percent: 40.0 / 300 * 100}},
		{name: "level zero treated as one", xp: 30, level: 0, want: Progress{Level: 1, XPForNextLevel: 100, XPIntoLevel: 30, Percent: 30}},
		{name: "negative level", xp: 30, level: -4, want: Progress{Level: 1, XPForNextLevel: 100, XPIntoLevel: 30, Percent: 30}},
		{name: "negative xp", xp: -20, level: 2, want: Progress{Level: 2, XPForNextLevel: 200, XPIntoLevel: 0, Percent: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.xp, tt.level)
			assert.Equal(t, tt.want.Level, got.Level)
			assert.Equal(t, tt.want.XPForNextLevel, got.XPForNextLevel)
			assert.Equal(t, tt.want.XPIntoLevel, got.XPIntoLevel)
			assert.InDelta(t, tt.want.Percent, got.Percent, 1e-9)
		})
	}
}

func TestComputeProgress_PercentBounded(t *testing.T) {
	for level := 1; level <= 40; level++ {
		for xp := 0; xp <= 5000; xp += 7 {
			p := ComputeProgress(xp, level)
			if p.Percent < 0 || p.Percent > 100 || math.IsNaN(p.Percent) {
				t.Fatalf("percent out of range for xp=%d level=%d: %v", xp, level, p.Percent)
			}
			if p.XPIntoLevel >= p.XPForNextLevel {
				t.Fatalf("xp into level %d not below %d", p.XPIntoLevel, p.XPForNextLevel)
			}
		}
	}
}

func TestComputeProgress_HugeLevels(t *testing.T) {
	for _, level := range []int{MaxLevel, MaxLevel + 1, 1 << 62, math.MaxInt} {
		for _, xp := range []int{0, 99, math.MaxInt} {
			p := ComputeProgress(xp, level)
			if p.Percent < 0 || p.Percent > 100 || math.IsNaN(p.Percent) {
				t.Fatalf("percent out of range for xp=%d level=%d: %v", xp, level, p.Percent)
			}
			if p.XPForNextLevel <= 0 || p.XPIntoLevel >= p.XPForNextLevel {
				t.Fatalf("bad band for xp=%d level=%d: %+v", xp, level, p)
			}
		}
	}
	assert.Equal(t, MaxLevel, ComputeProgress(0, math.MaxInt).Level)
}

func TestAddXP_Saturates(t *testing.T) {
	assert.Equal(t, 150, AddXP(100, 50))
	assert.Equal(t, 0, AddXP(100, -500))
	assert.Equal(t, math.MaxInt, AddXP(math.MaxInt-10, 50))
	assert.Equal(t, math.MaxInt, AddXP(math.MaxInt, math.MaxInt))
	assert.Equal(t, 0, AddXP(0, math.MinInt))
	assert.Equal(t, 5, AddXP(-3, 5))
}

func TestProgress_String(t *testing.T) {
	assert.Equal(t, "40 / 300 XP to next level", ComputeProgress(240, 3).String())
}

func TestBadgeForLevel_Boundaries(t *testing.T) {
	tests := []struct {
		level int
		tier  Tier
		title string
	}{
		{0, TierBeginner, "Beginner Badge"},
		{1, TierBeginner, "Beginner Badge"},
		{5, TierBeginner, "Beginner Badge"},
		{6, TierRisingCoder, "Rising Coder"},
		{10, TierRisingCoder, "Rising Coder"},
		{11, TierExpertDeveloper, "Expert Developer"},
		{20, TierExpertDeveloper, "Expert Developer"},
		{21, TierMasterCoder, "Master Coder"},
		{1000, TierMasterCoder, "Master Coder"},
	}
	for _, tt := range tests {
		b := BadgeForLevel(tt.level)
		assert.Equal(t, tt.tier, b.Tier, "level %d", tt.level)
		assert.Equal(t, tt.title, b.Title, "level %d", tt.level)
	}
}

func TestBadgeForLevel_TotalAndOrdered(t *testing.T) {
	prev := TierBeginner
	for level := 1; level <= 200; level++ {
		tier := BadgeForLevel(level).Tier
		if tier < prev {
			t.Fatalf("tier decreased at level %d", level)
		}
		prev = tier
	}
	assert.Equal(t, TierMasterCoder, prev)
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "Beginner", TierBeginner.String())
	assert.Equal(t, "RisingCoder", TierRisingCoder.String())
	assert.Equal(t, "ExpertDeveloper", TierExpertDeveloper.String())
	assert.Equal(t, "MasterCoder", TierMasterCoder.String())
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 11, LevelForXP(1050))
	assert.Equal(t, 1, LevelForXP(-5))
}

func TestNextLevel_Monotonic(t *testing.T) {
	assert.Equal(t, 3, NextLevel(1, 250))
	assert.Equal(t, 5, NextLevel(5, 120), "never lowered")
	assert.Equal(t, 1, NextLevel(0, 0))

	level := 1
	for _, xp := range []int{10, 150, 90, 420, 0, 399} {
		next := NextLevel(level, xp)
		if next < level {
			t.Fatalf("level decreased from %d to %d", level, next)
		}
		level = next
	}
	assert.Equal(t, 5, level)
}
