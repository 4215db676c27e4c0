// Package index folds category standings into the athlete and club indexes.
// Builders own their accumulation state and are constructed fresh per run.
package index

import (
	"sort"

	"github.com/okian/olrank/internal/domain/clubname"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/internal/domain/stats"
)

// specializationRatio is the best-points asymmetry treated as a genuine
// forest or sprint specialization.
const specializationRatio = 1.15

// AthleteIndex is the result of one full build.
type AthleteIndex struct {
	// Summaries is keyed by athlete name.
	Summaries map[string]*model.AthleteSummary
	// Histories holds each athlete's deduplicated events across all categories.
	// It feeds club statistics and is not persisted with the index.
	Histories map[string][]model.EventScore
}

// Names returns athlete names in ascending order.
func (idx *AthleteIndex) Names() []string {
	names := make([]string, 0, len(idx.Summaries))
	for name := range idx.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type athleteAcc struct {
	summary *model.AthleteSummary
	clubs   map[string]struct{}
	entries []model.EventEntry
}

// AthleteBuilder accumulates ranking rows into athlete summaries.
type AthleteBuilder struct {
	athletes map[string]*athleteAcc
	rows     int
}

// NewAthleteBuilder returns an empty builder.
func NewAthleteBuilder() *AthleteBuilder {
	return &AthleteBuilder{athletes: make(map[string]*athleteAcc)}
}

// BuildAthleteIndex folds all categories in one pass.
func BuildAthleteIndex(categories []model.Category) *AthleteIndex {
	b := NewAthleteBuilder()
	for _, c := range categories {
		b.Add(c)
	}
	return b.Build()
}

// Add folds every row of one category.
func (b *AthleteBuilder) Add(c model.Category) {
	for _, row := range c.Rows {
		b.addRow(c.CategoryRef, row)
	}
}

// Rows returns the number of rows folded so far.
func (b *AthleteBuilder) Rows() int { return b.rows }

func (b *AthleteBuilder) addRow(ref model.CategoryRef, row model.RawRankingRow) {
	if row.Name == "" {
		return
	}
	b.rows++
	acc, ok := b.athletes[row.Name]
	if !ok {
		acc = &athleteAcc{
			summary: &model.AthleteSummary{Name: row.Name, BestRank: row.Rank, Type: model.TypeUnknown},
			clubs:   make(map[string]struct{}),
		}
		b.athletes[row.Name] = acc
	}
	for _, club := range clubname.Split(row.Club) {
		acc.clubs[club] = struct{}{}
	}

	s := acc.summary
	s.Categories = append(s.Categories, model.Appearance{
		Type:        ref.Type,
		ClassName:   ref.ClassName,
		Rank:        row.Rank,
		TotalPoints: row.TotalPoints,
		IsActive:    row.IsActive,
	})
	s.BestRank = min(s.BestRank, row.Rank)
	s.BestPoints = max(s.BestPoints, row.TotalPoints)
	switch ref.Type.Discipline() {
	case model.Forest:
		s.ForestCount++
	case model.Sprint:
		s.SprintCount++
	case model.DisciplineUnknown:
	}
	acc.entries = append(acc.entries, row.Events...)
}

// Build finalizes the index. The builder should not be reused afterwards.
func (b *AthleteBuilder) Build() *AthleteIndex {
	idx := &AthleteIndex{
		Summaries: make(map[string]*model.AthleteSummary, len(b.athletes)),
		Histories: make(map[string][]model.EventScore, len(b.athletes)),
	}
	for name, acc := range b.athletes {
		s := acc.summary
		s.Clubs = make([]string, 0, len(acc.clubs))
		for club := range acc.clubs {
			s.Clubs = append(s.Clubs, club)
		}
		sort.Strings(s.Clubs)
		s.Type = ClassifyType(s.Categories)
		idx.Summaries[name] = s
		idx.Histories[name] = stats.DedupeEvents(acc.entries)
	}
	return idx
}

// ClassifyType labels an athlete from the best points reached in each discipline.
func ClassifyType(appearances []model.Appearance) model.AthleteType {
	var (
		bestForest, bestSprint float64
		forest, sprint         bool
	)
	for _, a := range appearances {
		switch a.Type.Discipline() {
		case model.Forest:
			forest = true
			bestForest = max(bestForest, a.TotalPoints)
		case model.Sprint:
			sprint = true
			bestSprint = max(bestSprint, a.TotalPoints)
		case model.DisciplineUnknown:
		}
	}
	switch {
	case !forest && !sprint:
		return model.TypeUnknown
	case !sprint:
		return model.TypeForester
	case !forest:
		return model.TypeSprinter
	}
	return classifyRatio(bestForest, bestSprint)
}

func classifyRatio(bestForest, bestSprint float64) model.AthleteType {
	if bestSprint == 0 {
		if bestForest > 0 {
			return model.TypeForester
		}
		return model.TypeAllrounder
	}
	ratio := bestForest / bestSprint
	switch {
	case ratio > specializationRatio:
		return model.TypeForester
	case ratio < 1/specializationRatio:
		return model.TypeSprinter
	default:
		return model.TypeAllrounder
	}
}
