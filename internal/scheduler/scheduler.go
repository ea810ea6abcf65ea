// Package scheduler drives the fixed-order per-pulse loop: accept, input,
// world update, output, persist, cleanup, wrapped in a crash marker and
// reporting over-budget pulses the way
// original_source/game/src/systems/profile.c does.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/crashlog"
	"github.com/dystopiamud/core/internal/metrics"
	"go.uber.org/zap"
)

type Scheduler struct {
	runner   *system.Runner
	crash    *crashlog.Marker
	profiler *profiler
	log      *zap.Logger

	basePulse       time.Duration
	speedMultiplier atomic.Int32
	budget          time.Duration

	lastCommandCtx atomic.Value // string, fed to the crash marker
}

func New(runner *system.Runner, crash *crashlog.Marker, m *metrics.Metrics, basePulse, budget, warningInterval time.Duration, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		runner:    runner,
		crash:     crash,
		profiler:  newProfiler(m, warningInterval, log),
		log:       log,
		basePulse: basePulse,
		budget:    budget,
	}
	s.speedMultiplier.Store(1)
	s.lastCommandCtx.Store("boot")
	runner.OnMarker(s.profiler.onMarker)
	return s
}

// SetSpeed changes the effective pulse rate at runtime (1..512x), matching
// the original's `profile speed` admin command rather than requiring a
// restart.
func (s *Scheduler) SetSpeed(multiplier int) {
	if multiplier < 1 {
		multiplier = 1
	}
	if multiplier > 512 {
		multiplier = 512
	}
	s.speedMultiplier.Store(int32(multiplier))
}

func (s *Scheduler) interval() time.Duration {
	mult := time.Duration(s.speedMultiplier.Load())
	if mult < 1 {
		mult = 1
	}
	return s.basePulse / mult
}

// Run blocks, ticking the pulse loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	currentInterval := s.interval()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if next := s.interval(); next != currentInterval {
				currentInterval = next
				ticker.Reset(currentInterval)
			}
			s.tick(currentInterval)
		}
	}
}

func (s *Scheduler) tick(dt time.Duration) {
	s.profiler.pulseStart()
	start := time.Now()
	s.crash.Guard(s.lastCommandCtx.Load().(string), nil, func() {
		s.runner.Tick(dt)
	})
	s.profiler.pulseEnd(time.Since(start), s.budget)
}
