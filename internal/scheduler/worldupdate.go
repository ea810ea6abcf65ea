package scheduler

import (
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/world"
)

// WorldUpdateSystem runs third in every pulse: it ages
// every area toward its next reset, fires ResetArea once an area's timer
// elapses, and counts down room timers (Room.TickTimers); a timer reaching
// zero has no further effect in the core.
// Combat, movement and script triggers are driven by dispatch handlers
// invoked during PhaseInput and so are not duplicated here; this system
// owns only what fires purely from the passage of pulses.
type WorldUpdateSystem struct {
	world *world.World
}

func NewWorldUpdateSystem(w *world.World) *WorldUpdateSystem {
	return &WorldUpdateSystem{world: w}
}

func (s *WorldUpdateSystem) Phase() system.Phase { return system.PhaseWorldUpdate }
func (s *WorldUpdateSystem) Name() string        { return "world_update" }

func (s *WorldUpdateSystem) Update(time.Duration) {
	s.world.Areas.Each(func(_ world.VNum, area *world.Area) {
		area.AgePulses++
		if area.AgePulses >= area.ResetIntervalPulses {
			area.AgePulses = 0
			s.world.ResetArea(area, false)
		}
		for _, rv := range area.Rooms() {
			room, ok := s.world.Room(rv)
			if !ok {
				continue
			}
			room.TickTimers()
		}
	})
}
