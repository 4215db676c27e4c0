// Package service runs the pipeline stages and serves the read side of the
// published indexes.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
	"github.com/okian/olrank/pkg/metrics"
)

// Stage names used in logs and metrics.
const (
	StageBuildIndex   = "build_index"
	StageLinkEvents   = "link_events"
	StageScrapeTiming = "scrape_timing"
)

// TimingSource is the subset of the timing-source client the stages use.
type TimingSource interface {
	Events(ctx context.Context, year int) ([]model.TimingEvent, error)
	Classes(ctx context.Context, eventID int64) ([]model.TimingClass, error)
	Runners(ctx context.Context, eventID int64, classID string) ([]model.TimingRunner, int, error)
	EventURL(eventID int64) string
}

// Report summarizes one stage run.
type Report struct {
	Stage     string        `json:"stage"`
	RunID     string        `json:"runId"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Finished  time.Time     `json:"finished"`
}

// Service owns the store and the timing-source client.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	timing TimingSource

	// Configuration
	flushEvery int
	eventLimit int
	now        func() time.Time

	// Read-side cache, filled lazily and replaced by BuildIndex.
	athletes *model.AthleteIndexDoc
	clubs    *model.ClubStatsDoc
	reports  map[string]Report

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTimingSource sets the timing-source client used by link and scrape stages.
func WithTimingSource(ts TimingSource) Option {
	return func(s *Service) {
		s.timing = ts
	}
}

// WithFlushEvery sets how many processed events trigger a scrape checkpoint.
func WithFlushEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.flushEvery = n
		}
	}
}

// WithEventLimit caps the events handled by one scrape run (0 = no limit).
func WithEventLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.eventLimit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		flushEvery: 10,
		now:        time.Now,
		reports:    make(map[string]Report),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// run carries the per-invocation identity of a stage.
type run struct {
	Report
	log   logger.Logger
	start time.Time
}

func (s *Service) begin(ctx context.Context, stage string) *run {
	r := &run{
		Report: Report{Stage: stage, RunID: uuid.NewString()},
		start:  s.now(),
	}
	r.log = s.logger.Named(stage).With(logger.String("run_id", r.RunID), logger.String("stage", stage))
	r.log.Info(ctx, "stage started")
	return r
}

func (r *run) processed() {
	r.Processed++
	metrics.RecordUnitProcessed(r.Stage)
}

func (r *run) skipped(ctx context.Context, reason, msg string, fields ...logger.Field) {
	r.Skipped++
	metrics.RecordUnitSkipped(r.Stage, reason)
	r.log.Warn(ctx, msg, append(fields, logger.String("reason", reason))...)
}

// finish records metrics and the report. Failed runs are logged but do not
// replace the last successful report.
func (s *Service) finish(ctx context.Context, r *run, err error) Report {
	end := s.now()
	r.Duration = end.Sub(r.start)
	r.Finished = end
	metrics.RecordStageDuration(r.Stage, r.Duration)
	fields := []logger.Field{
		logger.Int("processed", r.Processed),
		logger.Int("skipped", r.Skipped),
		logger.Duration("duration", r.Duration),
	}
	if err != nil {
		r.log.Error(ctx, "stage failed", append(fields, logger.Error(err))...)
		return r.Report
	}
	metrics.MarkStageSuccess(r.Stage, end)
	r.log.Info(ctx, "stage finished", fields...)

	s.mu.Lock()
	s.reports[r.Stage] = r.Report
	s.mu.Unlock()
	return r.Report
}

// GetStats returns index sizes and the last report of each stage.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"schemaVersion": model.SchemaVersion,
	}
	if s.athletes != nil {
		stats["athletes"] = len(s.athletes.Athletes)
		stats["athletesGeneratedAt"] = s.athletes.GeneratedAt
	}
	if s.clubs != nil {
		stats["clubs"] = len(s.clubs.Clubs)
	}
	reports := make(map[string]Report, len(s.reports))
	for k, v := range s.reports {
		reports[k] = v
	}
	stats["stages"] = reports
	return stats
}
