// Package scheduler drives the coordinator on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/lenedabridge/lenedabridge/pkg/log"
)

// Refresher is the slice of the coordinator the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	NeedsReauth() bool
}

// Scheduler ticks a Refresher at a fixed interval.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
}

// Configured sets up the scheduler based on flags.
func Configured(r Refresher) *Scheduler {
	interval := lflag.Duration("sync-interval", time.Hour, "How often to run a sync tick")

	s := &Scheduler{refresher: r}

	lflag.Do(func() {
		s.interval = *interval
	})

	return s
}

// New returns a Scheduler ticking at the given interval.
func New(r Refresher, interval time.Duration) *Scheduler {
	return &Scheduler{refresher: r, interval: interval}
}

// Run ticks immediately, then every interval, until ctx is canceled. Ticks
// never overlap. While the coordinator needs reauthentication, scheduled
// ticks are suspended; a manual refresh after reauthenticating (or the
// reauth flow itself) resumes them.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.refresher.NeedsReauth() {
		log.Ctx(ctx).WarnContext(ctx, "skipping scheduled sync, reauthentication required")
		return
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "scheduled sync failed", slog.Any("error", err))
	}
}
