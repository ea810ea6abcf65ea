package scheduler

import (
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/session"
	"github.com/dystopiamud/core/internal/world"
)

// InputSystem runs second in every pulse: it drains
// every descriptor's queued input lines through the session manager, then
// ticks down each connected player's wait-state (command lag) by one pulse.
type InputSystem struct {
	manager           *session.Manager
	world             *world.World
	maxLinesPerPulse  int
}

func NewInputSystem(manager *session.Manager, w *world.World, maxLinesPerPulse int) *InputSystem {
	return &InputSystem{manager: manager, world: w, maxLinesPerPulse: maxLinesPerPulse}
}

func (s *InputSystem) Phase() system.Phase { return system.PhaseInput }
func (s *InputSystem) Name() string        { return "input" }

func (s *InputSystem) Update(time.Duration) {
	s.manager.Drain(s.maxLinesPerPulse)
	s.world.AllPlayers(func(p *world.Player) {
		if p.WaitPulses > 0 {
			p.WaitPulses--
		}
	})
}
