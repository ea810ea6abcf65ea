package scheduler

import (
	"time"

	"github.com/dystopiamud/core/internal/conn"
	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/session"
	"go.uber.org/zap"
)

// AcceptSystem runs first in every pulse: it drains
// freshly accepted (already started) descriptors off the listener, registers
// each with the session manager, and reaps descriptors the reader/writer
// goroutines have already closed.
type AcceptSystem struct {
	server  *conn.Server
	manager *session.Manager
	names   map[uint64]string
	log     *zap.Logger
}

func NewAcceptSystem(server *conn.Server, manager *session.Manager, log *zap.Logger) *AcceptSystem {
	return &AcceptSystem{server: server, manager: manager, names: make(map[uint64]string), log: log}
}

func (s *AcceptSystem) Phase() system.Phase { return system.PhaseAccept }
func (s *AcceptSystem) Name() string        { return "accept" }

func (s *AcceptSystem) Update(time.Duration) {
	for _, d := range s.server.DrainNewConnections() {
		// Start already ran when the descriptor was produced (conn.Server's
		// accept loop for a fresh connection, main's copyover recovery for
		// a resumed one): starting it again here would double the
		// reader/writer goroutines and resend telnet negotiation.
		s.manager.Accept(d)
		s.log.Info("connection accepted", zap.Uint64("id", d.ID), zap.String("ip", d.IP))
	}
	for _, id := range s.server.DrainDead() {
		delete(s.names, id)
		s.manager.Forget(id)
	}
}

// NoteName records a descriptor's current character name for the copyover
// handoff file; main calls it for each descriptor recovered across a
// copyover.
func (s *AcceptSystem) NoteName(id uint64, name string) { s.names[id] = name }
func (s *AcceptSystem) Names() map[uint64]string        { return s.names }
