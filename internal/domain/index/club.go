package index

import (
	"sort"

	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/internal/domain/stats"
)

type clubAcc struct {
	profile *model.ClubProfile
	members map[string]struct{}
}

// ClubBuilder folds athlete summaries into club profiles.
type ClubBuilder struct {
	clubs map[string]*clubAcc
}

// NewClubBuilder returns an empty builder.
func NewClubBuilder() *ClubBuilder {
	return &ClubBuilder{clubs: make(map[string]*clubAcc)}
}

// BuildClubIndex folds every athlete of idx, visiting athletes by name.
func BuildClubIndex(idx *AthleteIndex) map[string]*model.ClubProfile {
	b := NewClubBuilder()
	for _, name := range idx.Names() {
		b.Add(idx.Summaries[name], idx.Histories[name])
	}
	return b.Build()
}

// Add registers the athlete in each of its clubs. An athlete already on a
// club's roster keeps its first row.
func (b *ClubBuilder) Add(s *model.AthleteSummary, history []model.EventScore) {
	rep, ok := s.Representative()
	if !ok {
		return
	}
	member := model.ClubMember{
		Name:          s.Name,
		BestRank:      s.BestRank,
		BestPoints:    s.BestPoints,
		Type:          rep.Type,
		ClassName:     rep.ClassName,
		AthleteType:   s.Type,
		IsActive:      s.Active(),
		CategoryCount: len(s.Categories),
		RecentForm:    stats.RecentForm(history),
		Consistency:   stats.Consistency(history),
		EventCount:    len(history),
	}
	for _, club := range s.Clubs {
		acc, ok := b.clubs[club]
		if !ok {
			acc = &clubAcc{
				profile: &model.ClubProfile{Name: club},
				members: make(map[string]struct{}),
			}
			b.clubs[club] = acc
		}
		if _, dup := acc.members[s.Name]; dup {
			continue
		}
		acc.members[s.Name] = struct{}{}
		p := acc.profile
		p.Members = append(p.Members, member)
		// multi-club athletes count in full for every club
		p.ForestCount += s.ForestCount
		p.SprintCount += s.SprintCount
		if member.IsActive {
			p.ActiveCount++
		}
	}
}

// Build finalizes every profile: roster by best points descending (name
// ascending on ties), member count and average best points.
func (b *ClubBuilder) Build() map[string]*model.ClubProfile {
	out := make(map[string]*model.ClubProfile, len(b.clubs))
	for name, acc := range b.clubs {
		p := acc.profile
		sort.SliceStable(p.Members, func(i, j int) bool {
			if p.Members[i].BestPoints != p.Members[j].BestPoints {
				return p.Members[i].BestPoints > p.Members[j].BestPoints
			}
			return p.Members[i].Name < p.Members[j].Name
		})
		p.MemberCount = len(p.Members)
		if p.MemberCount > 0 {
			var sum float64
			for _, m := range p.Members {
				sum += m.BestPoints
			}
			p.AvgPoints = sum / float64(p.MemberCount)
		}
		out[name] = p
	}
	return out
}
