package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/okian/olrank/internal/domain/model"
)

// FileStore keeps every input and artifact as a flat JSON file.
// Writes go to a temporary sibling first and are renamed into place, so a
// reader never observes a partially written artifact.
type FileStore struct {
	rankingsDir string
	eventsFile  string
	outputDir   string
	mode        os.FileMode
	indent      bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store over the given locations.
func NewFileStore(rankingsDir, eventsFile, outputDir string, opts ...Option) *FileStore {
	s := &FileStore{
		rankingsDir: rankingsDir,
		eventsFile:  eventsFile,
		outputDir:   outputDir,
		mode:        0o644,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCategories scans the rankings directory. Files that do not follow the
// {type}_{className}.json pattern are ignored.
func (s *FileStore) ListCategories(ctx context.Context) ([]model.CategoryRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.rankingsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: rankings dir %s", ErrNotFound, s.rankingsDir)
		}
		return nil, fmt.Errorf("read rankings dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	refs := make([]model.CategoryRef, 0, len(names))
	for _, name := range names {
		ref, err := model.ParseCategoryFileName(name)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// LoadCategory decodes rows one by one; a malformed row is counted in
// Category.Invalid instead of failing the whole file.
func (s *FileStore) LoadCategory(ctx context.Context, ref model.CategoryRef) (model.Category, error) {
	var raws []json.RawMessage
	if err := s.read(ctx, filepath.Join(s.rankingsDir, ref.FileName()), &raws); err != nil {
		return model.Category{}, err
	}
	c := model.Category{CategoryRef: ref, Rows: make([]model.RawRankingRow, 0, len(raws))}
	for _, raw := range raws {
		var row model.RawRankingRow
		if err := sonic.ConfigStd.Unmarshal(raw, &row); err != nil {
			c.Invalid++
			continue
		}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

func (s *FileStore) LoadEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.read(ctx, s.eventsFile, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *FileStore) SaveEvents(ctx context.Context, events []model.Event) error {
	return s.write(ctx, s.eventsFile, events)
}

func (s *FileStore) LoadAthleteIndex(ctx context.Context) (*model.AthleteIndexDoc, error) {
	doc := &model.AthleteIndexDoc{}
	if err := s.read(ctx, filepath.Join(s.outputDir, AthleteIndexFile), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) SaveAthleteIndex(ctx context.Context, doc *model.AthleteIndexDoc) error {
	return s.write(ctx, filepath.Join(s.outputDir, AthleteIndexFile), doc)
}

func (s *FileStore) LoadClubStats(ctx context.Context) (*model.ClubStatsDoc, error) {
	doc := &model.ClubStatsDoc{}
	if err := s.read(ctx, filepath.Join(s.outputDir, ClubStatsFile), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) SaveClubStats(ctx context.Context, doc *model.ClubStatsDoc) error {
	return s.write(ctx, filepath.Join(s.outputDir, ClubStatsFile), doc)
}

func (s *FileStore) LoadTiming(ctx context.Context) (*model.TimingDoc, error) {
	doc := &model.TimingDoc{}
	err := s.read(ctx, filepath.Join(s.outputDir, TimingFile), doc)
	if errors.Is(err, ErrNotFound) {
		return &model.TimingDoc{SchemaVersion: model.SchemaVersion, Athletes: map[string][]model.TimingRecord{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Athletes == nil {
		doc.Athletes = map[string][]model.TimingRecord{}
	}
	return doc, nil
}

func (s *FileStore) SaveTiming(ctx context.Context, doc *model.TimingDoc) error {
	return s.write(ctx, filepath.Join(s.outputDir, TimingFile), doc)
}

func (s *FileStore) read(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := sonic.ConfigStd.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

// write encodes v completely before touching the target path.
func (s *FileStore) write(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		raw []byte
		err error
	)
	if s.indent {
		raw, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		raw, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrWrite, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrWrite, filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, s.mode); err != nil {
		return fmt.Errorf("%w: write tmp: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename: %w", ErrWrite, err)
	}
	return nil
}
