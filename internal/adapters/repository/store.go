// Package repository reads pipeline inputs and writes the published artifacts.
package repository

import (
	"context"

	"github.com/okian/olrank/internal/domain/model"
)

// Artifact file names inside the output directory.
const (
	AthleteIndexFile = "athlete-index.json"
	ClubStatsFile    = "club-stats.json"
	TimingFile       = "lapcenter-runners.json"
)

// Store provides access to category standings, the events file and the
// derived artifacts. Every Save replaces the artifact as a whole.
type Store interface {
	// ListCategories returns every category file present, ordered by file name.
	ListCategories(ctx context.Context) ([]model.CategoryRef, error)
	// LoadCategory returns ErrNotFound if the category file does not exist.
	LoadCategory(ctx context.Context, ref model.CategoryRef) (model.Category, error)

	LoadEvents(ctx context.Context) ([]model.Event, error)
	SaveEvents(ctx context.Context, events []model.Event) error

	LoadAthleteIndex(ctx context.Context) (*model.AthleteIndexDoc, error)
	SaveAthleteIndex(ctx context.Context, doc *model.AthleteIndexDoc) error

	LoadClubStats(ctx context.Context) (*model.ClubStatsDoc, error)
	SaveClubStats(ctx context.Context, doc *model.ClubStatsDoc) error

	// LoadTiming returns an empty document when no scrape has run yet.
	LoadTiming(ctx context.Context) (*model.TimingDoc, error)
	SaveTiming(ctx context.Context, doc *model.TimingDoc) error
}
