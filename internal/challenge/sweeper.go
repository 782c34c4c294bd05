package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nexshop/identity/internal/metrics"
)

// DefaultSweepInterval bounds memory growth from abandoned challenges.
// Lazy eviction on read keeps correctness independent of this schedule.
const DefaultSweepInterval = time.Minute

// Sweeper periodically removes expired challenge records.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	running  atomic.Bool
}

// NewSweeper creates a sweeper. interval <= 0 uses DefaultSweepInterval.
func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Start begins the sweep loop. Call in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.safeSweep()
		}
	}
}

// Stop signals the sweeper to stop.
func (s *Sweeper) Stop() {
	select {
	case s.stop <- struct{}{}:
	default:
	}
}

func (s *Sweeper) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in challenge sweeper", "panic", fmt.Sprint(r))
		}
	}()

	removed := s.store.Sweep()
	metrics.ActiveChallenges.Set(float64(s.store.Len()))
	if removed > 0 {
		s.logger.Info("swept expired challenges", "removed", removed)
	}
}
