package session

import (
	"sync"
	"time"

	"github.com/dystopiamud/core/internal/conn"
	"github.com/dystopiamud/core/internal/dispatch"
	"github.com/dystopiamud/core/internal/namepolicy"
	"github.com/dystopiamud/core/internal/persist"
	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

// Manager owns every live Session and is the routing boundary between raw
// descriptor input and the rest of the server: lines from a not-yet-playing
// descriptor go to its Mode, lines from a playing one go straight to the
// command dispatch table. It does not implement reconnect/takeover: every
// completed login spawns a new Player, and a link-dead player of the same
// name stays in the world beside it.
type Manager struct {
	mu       sync.Mutex
	sessions map[uint64]*Session

	accounts *persist.AccountsRepo
	world    *world.World
	names    *namepolicy.Table
	dispatch *dispatch.Dispatch
	log      *zap.Logger

	linkDeadTimeout time.Duration
}

func NewManager(accounts *persist.AccountsRepo, w *world.World, names *namepolicy.Table, d *dispatch.Dispatch, linkDeadTimeout time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		sessions:        make(map[uint64]*Session),
		accounts:        accounts,
		world:           w,
		names:           names,
		dispatch:        d,
		linkDeadTimeout: linkDeadTimeout,
		log:             log,
	}
}

// Accept registers a freshly negotiated descriptor and starts its session
// state machine.
func (m *Manager) Accept(d *conn.Descriptor) *Session {
	s := NewSession(d, m.accounts, m.world, m.names, m.log)
	m.mu.Lock()
	m.sessions[d.ID] = s
	m.mu.Unlock()
	return s
}

// Drain is called once per pulse from the PhaseInput system: it pulls up to
// maxLinesPerDescriptor queued lines off each live descriptor and routes each
// either to the
// session's current Mode (pre-login, or a Mode that isn't PlayingMode) or
// directly to the dispatch table (once a Player exists and the session has
// reached PlayingMode).
func (m *Manager) Drain(maxLinesPerDescriptor int) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		for i := 0; i < maxLinesPerDescriptor; i++ {
			select {
			case line := <-s.Desc.InQueue:
				m.route(s, line)
			default:
				i = maxLinesPerDescriptor
			}
		}
	}
}

func (m *Manager) route(s *Session, line string) {
	if _, playing := s.Mode.(*PlayingMode); playing && s.Player != nil {
		if err := m.dispatch.Feed(s.Player, line, s.Send); err != nil && err != dispatch.ErrWait {
			s.Send(err.Error())
		}
		return
	}
	s.Feed(line)
}

// Forget removes a descriptor's session, transitioning a logged-in player to
// LinkDeadMode instead of discarding it outright so the world entity
// survives a dropped TCP connection.
func (m *Manager) Forget(id uint64) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok && s.Player != nil {
		s.Transition(&LinkDeadMode{})
	}
}

// Sessions returns a snapshot of all live sessions, used by the scheduler's
// output phase to send prompts and by main's room broadcast and quit.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
