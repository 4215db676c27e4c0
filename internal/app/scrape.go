package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/adapters/timing"
	"github.com/okian/olrank/internal/domain/dedupe"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
	"github.com/okian/olrank/pkg/metrics"
)

// ScrapeTiming collects per-athlete timing records for linked, past events.
// Events already present in lapcenter-runners.json are skipped, so a run
// interrupted or capped by limit resumes where it stopped. limit <= 0 falls
// back to the configured event limit; 0 there means no cap.
func (s *Service) ScrapeTiming(ctx context.Context, limit int) (rep Report, err error) {
	r := s.begin(ctx, StageScrapeTiming)
	defer func() { rep = s.finish(ctx, r, err) }()

	if s.timing == nil {
		return rep, ErrNoTimingSource
	}
	if limit <= 0 {
		limit = s.eventLimit
	}

	doc, err := s.store.LoadTiming(ctx)
	if err != nil {
		return rep, fmt.Errorf("load timing: %w", err)
	}
	if doc.Athletes == nil {
		doc.Athletes = make(map[string][]model.TimingRecord)
	}
	seen := dedupe.FromKeys(recordedKeys(doc))

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return rep, fmt.Errorf("load events: %w", err)
	}
	names, err := s.indexNames(ctx)
	if err != nil {
		return rep, err
	}
	if names == nil {
		r.log.Warn(ctx, "athlete index missing, keeping every runner")
	}

	today := s.now().Format(time.DateOnly)
	pending := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Linked() || ev.Date == "" || ev.Date >= today {
			continue
		}
		if seen.Seen(dedupe.Key{Date: ev.Date, Name: ev.Name}) {
			continue
		}
		pending = append(pending, ev)
	}
	r.log.Info(ctx, "scrape planned",
		logger.Int("pending", len(pending)),
		logger.Int64("recorded", seen.Size()),
		logger.Int("limit", limit),
	)

	dirty := 0
	flush := func() error {
		if dirty == 0 {
			return nil
		}
		doc.SchemaVersion = model.SchemaVersion
		doc.GeneratedAt = s.now().UTC()
		if err := s.store.SaveTiming(context.WithoutCancel(ctx), doc); err != nil {
			return fmt.Errorf("save timing: %w", err)
		}
		metrics.UpdateTimingRecords(countRecords(doc))
		r.log.Debug(ctx, "timing checkpoint written", logger.Int("events", dirty))
		dirty = 0
		return nil
	}

	for i, ev := range pending {
		if limit > 0 && i >= limit {
			r.log.Info(ctx, "event limit reached", logger.Int("remaining", len(pending)-i))
			break
		}
		key := dedupe.Key{Date: ev.Date, Name: ev.Name}
		if seen.SeenAndRecord(ctx, key) {
			continue
		}
		records, err := s.scrapeEvent(ctx, r, ev, names)
		if err != nil {
			seen.Unrecord(ctx, key)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rep, errors.Join(ctxErr, flush())
			}
			r.skipped(ctx, "fetch", "event skipped",
				logger.Int64("lapcenter_event_id", *ev.LapcenterEventID),
				logger.String("event", ev.Name),
				logger.Error(err),
			)
			continue
		}
		for name, recs := range records {
			doc.Athletes[name] = append(doc.Athletes[name], recs...)
		}
		r.processed()
		dirty++
		if dirty >= s.flushEvery {
			if err := flush(); err != nil {
				return rep, err
			}
		}
	}
	return rep, flush()
}

// scrapeEvent fetches every class of ev. Records are returned only when all
// classes were fetched, so a partial event is never committed.
func (s *Service) scrapeEvent(ctx context.Context, r *run, ev model.Event, names map[string]string) (map[string][]model.TimingRecord, error) {
	id := *ev.LapcenterEventID
	classes, err := s.timing.Classes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	discipline := timing.DisciplineOf(ev.Name)
	out := make(map[string][]model.TimingRecord)
	rows, dropped := 0, 0
	for _, class := range classes {
		runners, skipped, err := s.timing.Runners(ctx, id, class.ID)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", class.ID, err)
		}
		dropped += skipped
		for _, rn := range runners {
			name, ok := resolveRunner(rn.Name, names)
			if !ok {
				continue
			}
			rows++
			out[name] = append(out[name], model.TimingRecord{
				Date:      ev.Date,
				EventName: ev.Name,
				ClassName: class.Name,
				Speed:     rn.Speed,
				MissRate:  rn.MissRate,
				Type:      discipline,
			})
		}
	}
	r.log.Debug(ctx, "event scraped",
		logger.Int64("lapcenter_event_id", id),
		logger.Int("classes", len(classes)),
		logger.Int("records", rows),
		logger.Int("dropped_rows", dropped),
	)
	return out, nil
}

// indexNames maps whitespace-free athlete names to index names. It returns
// nil when no athlete index has been built yet.
func (s *Service) indexNames(ctx context.Context) (map[string]string, error) {
	doc, err := s.athleteIndex(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load athlete index: %w", err)
	}
	names := make(map[string]string, len(doc.Athletes))
	for name := range doc.Athletes {
		names[compactName(name)] = name
	}
	return names, nil
}

func resolveRunner(raw string, names map[string]string) (string, bool) {
	key := compactName(raw)
	if key == "" {
		return "", false
	}
	if names == nil {
		return strings.Join(strings.Fields(raw), " "), true
	}
	name, ok := names[key]
	return name, ok
}

// compactName drops every kind of whitespace, including the full-width space.
func compactName(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func recordedKeys(doc *model.TimingDoc) []dedupe.Key {
	var keys []dedupe.Key
	for _, recs := range doc.Athletes {
		for _, rec := range recs {
			keys = append(keys, dedupe.Key{Date: rec.Date, Name: rec.EventName})
		}
	}
	return keys
}

func countRecords(doc *model.TimingDoc) int {
	n := 0
	for _, recs := range doc.Athletes {
		n += len(recs)
	}
	return n
}
