package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepGrace keeps recent objects out of a sweep. An upload is saved
// before its record commits, so a fresh object may not be referenced yet.
const DefaultSweepGrace = time.Hour

// ReferenceSource lists every reference under prefix still in use.
type ReferenceSource func(ctx context.Context, prefix string) ([]string, error)

// Sweeper deletes stored assets that no record or profile references.
type Sweeper struct {
	store   AssetStore
	sources []ReferenceSource
	grace   time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper over store. An object survives when any
// source reports its reference.
func NewSweeper(store AssetStore, logger *slog.Logger, sources ...ReferenceSource) *Sweeper {
	return &Sweeper{
		store:   store,
		sources: sources,
		grace:   DefaultSweepGrace,
		logger:  logger,
		now:     time.Now,
	}
}

// Sweep runs one pass and returns the number of deleted objects.
// A failing source aborts the pass before anything is deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	live := make(map[string]struct{})
	for _, source := range s.sources {
		refs, err := source(ctx, s.store.URLPrefix())
		if err != nil {
			return 0, fmt.Errorf("failed to list references: %w", err)
		}
		for _, ref := range refs {
			live[ref] = struct{}{}
		}
	}

	assets, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.grace)
	deleted := 0
	for _, asset := range assets {
		if _, ok := live[asset.Ref]; ok || asset.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, asset.Ref); err != nil {
			s.logger.Warn("failed to sweep asset", "ref", asset.Ref, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("swept unreferenced assets", "deleted", deleted, "scanned", len(assets))
	}
	return deleted, nil
}

// Run schedules Sweep on a cron expression and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Warn("asset sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info("asset sweeper running", "schedule", schedule)

	<-ctx.Done()

	// Wait for a running sweep to finish
	<-c.Stop().Done()
	s.logger.Info("asset sweeper stopped")
	return nil
}
