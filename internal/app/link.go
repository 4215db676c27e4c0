package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/okian/olrank/internal/domain/crosslink"
	"github.com/okian/olrank/internal/domain/match"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
	"github.com/okian/olrank/pkg/metrics"
)

// LinkEvents fills lapcenter_event_id and lapcenter_url of unlinked events.
// The timing-source event list is fetched once per calendar year that has
// unlinked events; a failed year is skipped and retried by the next run.
func (s *Service) LinkEvents(ctx context.Context) (rep Report, err error) {
	r := s.begin(ctx, StageLinkEvents)
	defer func() { rep = s.finish(ctx, r, err) }()

	if s.timing == nil {
		return rep, ErrNoTimingSource
	}
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return rep, fmt.Errorf("load events: %w", err)
	}

	var secondary []model.TimingEvent
	for _, year := range unlinkedYears(events) {
		list, err := s.timing.Events(ctx, year)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			r.skipped(ctx, "fetch", "timing event list skipped", logger.Int("year", year), logger.Error(err))
			continue
		}
		secondary = append(secondary, list...)
	}

	linker := crosslink.New(crosslink.WithObserver(func(rule match.Rule) {
		metrics.RecordMatchDecision(string(rule))
	}))
	res := linker.Link(events, secondary)
	for _, l := range res.Links {
		u := s.timing.EventURL(l.TimingID)
		events[l.Index].LapcenterURL = &u
		r.processed()
		r.log.Info(ctx, "event linked",
			logger.Int64("joe_event_id", l.JOEID),
			logger.Int64("lapcenter_event_id", l.TimingID),
			logger.String("event", l.EventName),
		)
	}
	r.log.Info(ctx, "linking finished",
		logger.Int("linked", len(res.Links)),
		logger.Int("unmatched", res.Unmatched),
		logger.Int("undated", res.Undated),
		logger.Int("candidates", len(secondary)),
	)

	if len(res.Links) == 0 {
		return rep, nil
	}
	if err := s.store.SaveEvents(ctx, events); err != nil {
		return rep, fmt.Errorf("save events: %w", err)
	}
	metrics.RecordEventsLinked(len(res.Links))
	return rep, nil
}

// unlinkedYears returns the distinct years of dated, unlinked events in ascending order.
func unlinkedYears(events []model.Event) []int {
	seen := make(map[int]struct{})
	for _, ev := range events {
		if ev.Linked() || len(ev.Date) < 4 {
			continue
		}
		year, err := strconv.Atoi(ev.Date[:4])
		if err != nil {
			continue
		}
		seen[year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
