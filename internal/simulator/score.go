package simulator

const (
	minAccess = 0
	maxAccess = 100
)

type Band string

const (
	BandHigh     Band = "high"
	BandModerate Band = "moderate"
	BandLow      Band = "low"
)

// Color returns the chart colour for the band.
func (b Band) Color() string {
	switch b {
	case BandHigh:
		return "#16a34a"
	case BandModerate:
		return "#f97316"
	}
	return "#dc2626"
}

// BandFor classifies a final access score.
func BandFor(score int) Band {
	switch {
	case score >= 70:
		return BandHigh
	case score >= 40:
		return BandModerate
	}
	return BandLow
}

// Table maps each community to its baseline access percentage.
type Table map[Community]int

// DefaultTable returns the fixed baselines.
func DefaultTable() Table {
	return Table{
		Urban:       40,
		Suburban:    75,
		Underserved: 25,
	}
}

// adjustments holds the additive effect of each toggle per community.
var adjustments = map[Toggle]map[Community]int{
	ExpandCoverage: {Urban: 8, Suburban: 8, Underserved: 8},
	FreePrograms:   {Urban: 4, Suburban: 6, Underserved: 15},
	MobileClinics:  {Urban: 6, Suburban: 4, Underserved: 18},
}

// Score is the simulated access for one community.
type Score struct {
	Community Community `json:"community"`
	Label     string    `json:"label"`
	Baseline  int       `json:"baseline"`
	Access    int       `json:"access"`
	Band      Band      `json:"band"`
	Color     string    `json:"color"`
	Changed   bool      `json:"changed"`
}

// Access returns the clamped access score for one community.
func Access(table Table, c Community, t Toggles) int {
	value := table[c]
	for _, toggle := range AllToggles {
		if t.On(toggle) {
			value += adjustments[toggle][c]
		}
	}
	return clamp(value)
}

// Compute returns one Score per community in display order.
func Compute(table Table, t Toggles) []Score {
	out := make([]Score, 0, len(Communities))
	for _, c := range Communities {
		access := Access(table, c, t)
		band := BandFor(access)
		out = append(out, Score{
			Community: c,
			Label:     c.Label(),
			Baseline:  table[c],
			Access:    access,
			Band:      band,
			Color:     band.Color(),
			Changed:   access != table[c],
		})
	}
	return out
}

// Result is one simulator run.
type Result struct {
	Active []Toggle `json:"active"`
	Scores []Score  `json:"scores"`
}

// Run computes scores for t against the default baselines.
func Run(t Toggles) Result {
	active := t.Active()
	if active == nil {
		active = []Toggle{}
	}
	return Result{Active: active, Scores: Compute(DefaultTable(), t)}
}

func clamp(v int) int {
	if v < minAccess {
		return minAccess
	}
	if v > maxAccess {
		return maxAccess
	}
	return v
}
