package system

import (
	"sort"
	"time"
)

// MarkerFunc is called around every system's Update, receiving the system's
// marker name and how long it took. Used by the scheduler's profiler.
type MarkerFunc func(name string, phase Phase, elapsed time.Duration)

// Runner executes systems in phase order each pulse.
type Runner struct {
	systems []System
	sorted  bool
	onMark  MarkerFunc
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// OnMarker installs a callback invoked after every system's Update call.
func (r *Runner) OnMarker(fn MarkerFunc) { r.onMark = fn }

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}

// Tick runs every registered system once, in phase order.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.run(s, dt)
	}
}

// TickPhase runs only the systems registered for one phase, in registration
// order. Used by callers that want a finer-grained loop than a full pulse
// (e.g. polling input more often than the world updates).
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.run(s, dt)
		}
	}
}

func (r *Runner) run(s System, dt time.Duration) {
	if r.onMark == nil {
		s.Update(dt)
		return
	}
	start := time.Now()
	s.Update(dt)
	name := s.Phase().String()
	if n, ok := s.(Named); ok {
		name = n.Name()
	}
	r.onMark(name, s.Phase(), time.Since(start))
}
