package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/catalog"
	"github.com/starford/asterism/internal/storage"
)

// Outcome kinds reported by Service.Run.
const (
	OutcomeConverted = "converted"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Config names the files a Service reads and writes, relative to the
// storage root.
type Config struct {
	Input   string
	Output  string
	Options Options
	// Force disables the unchanged-source shortcut.
	Force bool
}

// Report describes one file-level pass.
type Report struct {
	Outcome string
	Input   string
	Output  string
	// Records is the number of constellations in the output file, also for
	// unchanged passes.
	Records int
	Result  *Result // nil when the pass was skipped
}

// Service performs conversion passes between two files of a storage
// provider and mirrors successful passes into an optional catalog.
// Passes never overlap.
type Service struct {
	store   storage.Provider
	catalog catalog.Store
	cfg     Config
	logger  *slog.Logger

	mu sync.Mutex
}

// NewService creates a conversion service. cat may be nil.
func NewService(store storage.Provider, cat catalog.Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: cat, cfg: cfg, logger: logger}
}

// Input returns the source path relative to the storage root.
func (s *Service) Input() string {
	return s.cfg.Input
}

// Catalog returns the attached catalog, or nil.
func (s *Service) Catalog() catalog.Store {
	return s.catalog
}

// Preview converts data with the service's options without touching any file.
func (s *Service) Preview(_ context.Context, data []byte) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("convert: preview: %w: empty source", apperr.ErrInvalidInput)
	}
	return Convert(data, s.cfg.Options)
}

// Run reads the input, converts it and writes the output in full. Missing
// source structure or zero records fail the pass before anything is written.
// When the catalog shows the same source already produced the current
// output file, the pass is reported as unchanged.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := &Report{Outcome: OutcomeFailed, Input: s.cfg.Input, Output: s.cfg.Output}

	data, err := s.store.Read(s.cfg.Input)
	if err != nil {
		return rep, err
	}

	if run := s.upToDate(data); run != nil {
		rep.Outcome = OutcomeUnchanged
		rep.Records = run.RecordCount
		s.logger.Info(fmt.Sprintf("convert: converted %d constellations", run.RecordCount),
			slog.String("input", s.cfg.Input),
			slog.String("output", s.cfg.Output),
			slog.Int("records", run.RecordCount),
			slog.String("outcome", OutcomeUnchanged))
		return rep, nil
	}

	res, err := Convert(data, s.cfg.Options)
	if err != nil {
		s.logger.Error("convert: nothing written", slog.String("input", s.cfg.Input), slog.String("error", err.Error()))
		return rep, err
	}
	if res.SkippedPairs > 0 {
		s.logger.Warn("convert: skipped malformed coordinate pairs",
			slog.String("input", s.cfg.Input),
			slog.Int("skipped", res.SkippedPairs))
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if err := s.store.Write(s.cfg.Output, res.Output); err != nil {
		return rep, fmt.Errorf("convert: write output: %w", err)
	}

	if s.catalog != nil {
		run := catalog.Run{SourceChecksum: res.SourceChecksum, OutputChecksum: res.OutputChecksum}
		if err := s.catalog.Replace(run, res.Constellations); err != nil {
			s.logger.Warn("convert: catalog update failed", slog.String("error", err.Error()))
		}
	}

	rep.Outcome = OutcomeConverted
	rep.Records = res.Records()
	rep.Result = res
	s.logger.Info(fmt.Sprintf("convert: converted %d constellations", res.Records()),
		slog.String("input", s.cfg.Input),
		slog.String("output", s.cfg.Output),
		slog.Int("records", res.Records()),
		slog.Int("points", res.Points),
		slog.Int("edges", res.Edges),
		slog.String("outcome", OutcomeConverted))
	return rep, nil
}

// upToDate returns the catalog's last run when it consumed exactly data and
// the output file still holds what that run wrote, and nil otherwise.
func (s *Service) upToDate(data []byte) *catalog.Run {
	if s.catalog == nil || s.cfg.Force {
		return nil
	}
	run, err := s.catalog.LastRun()
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("convert: catalog lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}
	if run.SourceChecksum != SourceKey(data, s.cfg.Options) {
		return nil
	}
	meta, err := s.store.Stat(s.cfg.Output)
	if err != nil || run.OutputChecksum != meta.Checksum {
		return nil
	}
	return run
}
