// Package session implements the login/session state machine as a sequence
// of small Mode values: each Mode is one state, Feed consumes one line of
// input and returns the next Mode.
package session

import (
	"github.com/dystopiamud/core/internal/conn"
	"github.com/dystopiamud/core/internal/namepolicy"
	"github.com/dystopiamud/core/internal/persist"
	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

// Mode is one state in the session state machine.
type Mode interface {
	// Enter is called once when the session transitions into this mode,
	// typically to send a prompt.
	Enter(s *Session)
	// Feed consumes one line of input and returns the next mode. Returning
	// the same Mode keeps the session in it without calling Enter again.
	Feed(s *Session, line string) Mode
}

// Session binds one descriptor to its current Mode and the shared services
// modes need (accounts, world, name policy). Takeover/reconnect semantics
// are handled by the Manager that owns all live Sessions.
type Session struct {
	Desc *conn.Descriptor
	Mode Mode
	Log  *zap.Logger

	Accounts *persist.AccountsRepo
	World    *world.World
	Names    *namepolicy.Table

	AccountName string
	Player      *world.Player

	pendingName string
	scratch     map[string]string
}

func NewSession(d *conn.Descriptor, accounts *persist.AccountsRepo, w *world.World, names *namepolicy.Table, log *zap.Logger) *Session {
	s := &Session{
		Desc:     d,
		Accounts: accounts,
		World:    w,
		Names:    names,
		Log:      log,
		scratch:  make(map[string]string),
	}
	s.Mode = &DetectCapsMode{}
	s.Mode.Enter(s)
	return s
}

// Send writes a line (plus CRLF) to the descriptor's output queue.
func (s *Session) Send(line string) {
	s.Desc.Send([]byte(line + "\r\n"))
}

// Transition moves to a new mode, calling its Enter hook.
func (s *Session) Transition(next Mode) {
	s.Mode = next
	s.Mode.Enter(s)
}

// Feed routes one input line through the current mode.
func (s *Session) Feed(line string) {
	next := s.Mode.Feed(s, line)
	if next != s.Mode {
		s.Transition(next)
	}
}
