package progression

// Tier is a badge band.
type Tier int

const (
	TierBeginner Tier = iota
	TierRisingCoder
	TierExpertDeveloper
	TierMasterCoder
)

func (t Tier) String() string {
	switch t {
	case TierBeginner:
		return "Beginner"
	case TierRisingCoder:
		return "RisingCoder"
	case TierExpertDeveloper:
		return "ExpertDeveloper"
	default:
		return "MasterCoder"
	}
}

// Badge is the tier plus its display title.
type Badge struct {
	Tier  Tier
	Title string
}

var badgeTable = []struct {
	maxLevel int
	badge    Badge
}{
	{5, Badge{TierBeginner, "Beginner Badge"}},
	{10, Badge{TierRisingCoder, "Rising Coder"}},
	{20, Badge{TierExpertDeveloper, "Expert Developer"}},
}

// BadgeForLevel maps every level to exactly one tier. Levels at or below
// zero fall in the first band.
func BadgeForLevel(level int) Badge {
	for _, row := range badgeTable {
		if level <= row.maxLevel {
			return row.badge
		}
	}
	return Badge{TierMasterCoder, "Master Coder"}
}
