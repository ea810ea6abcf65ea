package scheduler

import (
	"strconv"
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/session"
)

// OutputSystem runs fourth in every pulse. Session.Send calls made during
// PhaseInput have already queued their lines for each descriptor's writer
// goroutine, so the only per-pulse work left here is the status-line
// prompt every connected player sees after their input (and after anything
// printed to their room since) has been drained.
type OutputSystem struct {
	manager *session.Manager
}

func NewOutputSystem(manager *session.Manager) *OutputSystem {
	return &OutputSystem{manager: manager}
}

func (s *OutputSystem) Phase() system.Phase { return system.PhaseOutput }
func (s *OutputSystem) Name() string        { return "output" }

func (s *OutputSystem) Update(time.Duration) {
	for _, sess := range s.manager.Sessions() {
		if sess.Player == nil {
			continue
		}
		if _, playing := sess.Mode.(*session.PlayingMode); !playing {
			continue
		}
		p := sess.Player
		sess.Send(prompt(p.HP, p.MaxHP, p.MP, p.MaxMP))
	}
}

func prompt(hp, maxHP, mp, maxMP int) string {
	return "<" + strconv.Itoa(hp) + "/" + strconv.Itoa(maxHP) + "hp " +
		strconv.Itoa(mp) + "/" + strconv.Itoa(maxMP) + "mp> "
}
