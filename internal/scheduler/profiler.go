package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/metrics"
	"go.uber.org/zap"
)

// profiler ports original_source/game/src/systems/profile.c's per-pulse
// budget tracking: a rate-limited (60s) over-budget warning carrying the
// top-3 slowest named markers for that pulse. Per-marker min/max/avg
// history is kept in the Prometheus histogram registered by
// internal/metrics instead of the original's fixed 32-slot array; this
// struct only owns what that histogram can't: the current pulse's top-3
// and the warning rate limit.
type profiler struct {
	mu sync.Mutex

	m   *metrics.Metrics
	log *zap.Logger

	warningInterval time.Duration
	lastWarning     time.Time
	suppressed      int

	current []markerSample
}

type markerSample struct {
	name    string
	elapsed time.Duration
}

func newProfiler(m *metrics.Metrics, warningInterval time.Duration, log *zap.Logger) *profiler {
	return &profiler{m: m, log: log, warningInterval: warningInterval}
}

// onMarker is installed as the system.Runner's MarkerFunc.
func (p *profiler) onMarker(name string, _ system.Phase, elapsed time.Duration) {
	p.m.ObservePhase(name, elapsed)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = append(p.current, markerSample{name: name, elapsed: elapsed})
}

// pulseStart resets the per-pulse top-3 tracking.
func (p *profiler) pulseStart() {
	p.mu.Lock()
	p.current = p.current[:0]
	p.mu.Unlock()
}

// pulseEnd checks the whole-pulse elapsed time against budget and, if over,
// logs a rate-limited warning naming the three slowest markers.
func (p *profiler) pulseEnd(elapsed, budget time.Duration) {
	if elapsed <= budget {
		return
	}
	p.m.IncOverrun()

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.lastWarning) < p.warningInterval {
		p.suppressed++
		return
	}

	worst := append([]markerSample{}, p.current...)
	sort.Slice(worst, func(i, j int) bool { return worst[i].elapsed > worst[j].elapsed })
	if len(worst) > 3 {
		worst = worst[:3]
	}

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Duration("budget", budget),
	}
	if p.suppressed > 0 {
		fields = append(fields, zap.Int("warnings_suppressed", p.suppressed))
	}
	for i, s := range worst {
		fields = append(fields, zap.Duration(rankLabel(i), s.elapsed), zap.String(rankLabel(i)+"_name", s.name))
	}
	p.log.Warn("pulse took longer than budget", fields...)

	p.lastWarning = now
	p.suppressed = 0
}

func rankLabel(i int) string {
	switch i {
	case 0:
		return "worst1"
	case 1:
		return "worst2"
	default:
		return "worst3"
	}
}
