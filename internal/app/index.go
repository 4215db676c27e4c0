package service

import (
	"context"
	"fmt"

	"github.com/okian/olrank/internal/domain/index"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
	"github.com/okian/olrank/pkg/metrics"
)

// BuildIndex rebuilds athlete-index.json and club-stats.json from every
// category file. An unreadable category is skipped; failing to list
// categories or to write an artifact aborts the run.
func (s *Service) BuildIndex(ctx context.Context) (rep Report, err error) {
	r := s.begin(ctx, StageBuildIndex)
	defer func() { rep = s.finish(ctx, r, err) }()

	refs, err := s.store.ListCategories(ctx)
	if err != nil {
		return rep, fmt.Errorf("list categories: %w", err)
	}

	athletes := index.NewAthleteBuilder()
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		c, err := s.store.LoadCategory(ctx, ref)
		if err != nil {
			r.skipped(ctx, "category", "category skipped", logger.String("file", ref.FileName()), logger.Error(err))
			continue
		}
		if c.Invalid > 0 {
			r.log.Warn(ctx, "malformed rows dropped", logger.String("file", ref.FileName()), logger.Int("rows", c.Invalid))
			for range c.Invalid {
				metrics.RecordUnitSkipped(StageBuildIndex, "row")
			}
		}
		athletes.Add(c)
		r.processed()
	}

	idx := athletes.Build()
	clubs := index.BuildClubIndex(idx)
	generated := s.now().UTC()

	athleteDoc := &model.AthleteIndexDoc{SchemaVersion: model.SchemaVersion, Athletes: idx.Summaries, GeneratedAt: generated}
	if err := s.store.SaveAthleteIndex(ctx, athleteDoc); err != nil {
		return rep, fmt.Errorf("save athlete index: %w", err)
	}
	clubDoc := &model.ClubStatsDoc{SchemaVersion: model.SchemaVersion, Clubs: clubs, GeneratedAt: generated}
	if err := s.store.SaveClubStats(ctx, clubDoc); err != nil {
		return rep, fmt.Errorf("save club stats: %w", err)
	}

	metrics.UpdateAthletesIndexed(len(idx.Summaries))
	metrics.UpdateClubsIndexed(len(clubs))
	r.log.Info(ctx, "indexes written",
		logger.Int("rows", athletes.Rows()),
		logger.Int("athletes", len(idx.Summaries)),
		logger.Int("clubs", len(clubs)),
	)

	s.mu.Lock()
	s.athletes, s.clubs = athleteDoc, clubDoc
	s.mu.Unlock()
	return rep, nil
}
