package model

// AthleteType is the forest/sprint specialization label of an athlete.
type AthleteType string

// Athlete types.
const (
	TypeUnknown    AthleteType = "unknown"
	TypeForester   AthleteType = "forester"
	TypeSprinter   AthleteType = "sprinter"
	TypeAllrounder AthleteType = "allrounder"
)

// Appearance is one category standing of an athlete.
type Appearance struct {
	Type        RankingType `json:"type"`
	ClassName   string      `json:"className"`
	Rank        int         `json:"rank"`
	TotalPoints float64     `json:"totalPoints"`
	IsActive    bool        `json:"isActive"`
}

// Ref returns the category the appearance belongs to.
func (a Appearance) Ref() CategoryRef {
	return CategoryRef{Type: a.Type, ClassName: a.ClassName}
}

// AthleteSummary is the lightweight per-athlete index record.
type AthleteSummary struct {
	Name        string       `json:"name"`
	Clubs       []string     `json:"clubs"`
	Categories  []Appearance `json:"categories"`
	BestRank    int          `json:"bestRank"`
	BestPoints  float64      `json:"bestPoints"`
	ForestCount int          `json:"forestCount"`
	SprintCount int          `json:"sprintCount"`
	Type        AthleteType  `json:"type"`
}

// Active reports whether at least one appearance is flagged active.
func (s *AthleteSummary) Active() bool {
	for _, a := range s.Categories {
		if a.IsActive {
			return true
		}
	}
	return false
}

// Representative returns the appearance with the best (lowest) rank.
// The first appearance wins ties.
func (s *AthleteSummary) Representative() (Appearance, bool) {
	if len(s.Categories) == 0 {
		return Appearance{}, false
	}
	best := s.Categories[0]
	for _, a := range s.Categories[1:] {
		if a.Rank < best.Rank {
			best = a
		}
	}
	return best, true
}

// CategoryHistory is one appearance together with its deduplicated events.
type CategoryHistory struct {
	Appearance
	Events      []EventScore `json:"events"`
	Consistency int          `json:"consistency"`
	RecentForm  int          `json:"recentForm"`
}

// TimingSplit holds an athlete's reconciled timing records per discipline.
// Discarded counts records whose discipline could not be determined;
// Filtered counts baseline sentinel rows.
type TimingSplit struct {
	Forest    []TimingRecord `json:"forest"`
	Sprint    []TimingRecord `json:"sprint"`
	Discarded int            `json:"discarded"`
	Filtered  int            `json:"filtered"`
}

// AthleteProfile is the detail view built on request.
type AthleteProfile struct {
	AthleteSummary
	History     []CategoryHistory `json:"history"`
	Consistency int               `json:"consistency"`
	RecentForm  int               `json:"recentForm"`
	EventCount  int               `json:"eventCount"`
	Timing      *TimingSplit      `json:"timing,omitempty"`
}
