package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/domain/clubname"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/internal/domain/reconcile"
	"github.com/okian/olrank/internal/domain/stats"
	"github.com/okian/olrank/pkg/logger"
)

// AthleteProfile assembles the full profile of one athlete. Category
// histories are read back from the standings files on demand; timing
// records, when present, are split into forest and sprint.
func (s *Service) AthleteProfile(ctx context.Context, name string) (*model.AthleteProfile, error) {
	idx, err := s.athleteIndex(ctx)
	if err != nil {
		return nil, err
	}
	summary, ok := idx.Athletes[name]
	if !ok {
		return nil, fmt.Errorf("athlete %q: %w", name, repository.ErrNotFound)
	}

	p := &model.AthleteProfile{AthleteSummary: *summary}
	var all []model.EventEntry
	sources := make([]reconcile.Source, 0, len(summary.Categories))
	for _, app := range summary.Categories {
		entries, err := s.categoryEntries(ctx, app.Ref(), name)
		if err != nil {
			s.logger.Warn(ctx, "category history unavailable",
				logger.String("athlete", name),
				logger.String("category", app.Ref().String()),
				logger.Error(err),
			)
			continue
		}
		events := stats.DedupeEvents(entries)
		p.History = append(p.History, model.CategoryHistory{
			Appearance:  app,
			Events:      events,
			Consistency: stats.Consistency(events),
			RecentForm:  stats.RecentForm(events),
		})
		sources = append(sources, reconcile.Source{Discipline: app.Type.Discipline(), Events: events})
		all = append(all, entries...)
	}

	overall := stats.DedupeEvents(all)
	p.Consistency = stats.Consistency(overall)
	p.RecentForm = stats.RecentForm(overall)
	p.EventCount = len(overall)

	timingDoc, err := s.store.LoadTiming(ctx)
	if err != nil {
		s.logger.Warn(ctx, "timing records unavailable", logger.String("athlete", name), logger.Error(err))
		return p, nil
	}
	if records := timingDoc.Athletes[name]; len(records) > 0 {
		split := reconcile.Reconcile(records, sources)
		p.Timing = &split
	}
	return p, nil
}

// categoryEntries returns the event entries of name's row in one category.
func (s *Service) categoryEntries(ctx context.Context, ref model.CategoryRef, name string) ([]model.EventEntry, error) {
	c, err := s.store.LoadCategory(ctx, ref)
	if err != nil {
		return nil, err
	}
	for _, row := range c.Rows {
		if row.Name == name {
			return row.Events, nil
		}
	}
	return nil, fmt.Errorf("row %q: %w", name, repository.ErrNotFound)
}

// Club returns one club profile. Names are tried as given and then in
// resolved form, so "京大OLC" finds "京都大学".
func (s *Service) Club(ctx context.Context, name string) (*model.ClubProfile, error) {
	doc, err := s.clubStats(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := doc.Clubs[name]; ok {
		return p, nil
	}
	if p, ok := doc.Clubs[clubname.Normalize(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("club %q: %w", name, repository.ErrNotFound)
}

// TopClubs returns up to n clubs by average best points, name ascending on ties.
func (s *Service) TopClubs(ctx context.Context, n int) ([]*model.ClubProfile, error) {
	doc, err := s.clubStats(ctx)
	if err != nil {
		return nil, err
	}
	clubs := make([]*model.ClubProfile, 0, len(doc.Clubs))
	for _, p := range doc.Clubs {
		clubs = append(clubs, p)
	}
	sort.Slice(clubs, func(i, j int) bool {
		if clubs[i].AvgPoints != clubs[j].AvgPoints {
			return clubs[i].AvgPoints > clubs[j].AvgPoints
		}
		return clubs[i].Name < clubs[j].Name
	})
	if n < len(clubs) {
		clubs = clubs[:n]
	}
	return clubs, nil
}

func (s *Service) athleteIndex(ctx context.Context) (*model.AthleteIndexDoc, error) {
	s.mu.RLock()
	doc := s.athletes
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	doc, err := s.store.LoadAthleteIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("athlete index: %w", err)
	}
	s.mu.Lock()
	s.athletes = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *Service) clubStats(ctx context.Context) (*model.ClubStatsDoc, error) {
	s.mu.RLock()
	doc := s.clubs
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	doc, err := s.store.LoadClubStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("club stats: %w", err)
	}
	s.mu.Lock()
	s.clubs = doc
	s.mu.Unlock()
	return doc, nil
}

// Refresh drops the read-side cache so the next lookup rereads the artifacts.
func (s *Service) Refresh() {
	s.mu.Lock()
	s.athletes, s.clubs = nil, nil
	s.mu.Unlock()
}
