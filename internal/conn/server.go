package conn

import (
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and hands each new Descriptor to the
// scheduler's PhaseAccept step via a buffered channel, adapted from the
// teacher's internal/net.Server accept loop.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64

	newConns chan *Descriptor
	deadCh   chan uint64

	inSize, outSize, repeatLimit int
	log                          *zap.Logger

	closeCh chan struct{}
}

func NewServer(bindAddr string, inSize, outSize, repeatLimit int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", bindAddr, err)
	}
	return &Server{
		listener:    ln,
		newConns:    make(chan *Descriptor, 64),
		deadCh:      make(chan uint64, 64),
		inSize:      inSize,
		outSize:     outSize,
		repeatLimit: repeatLimit,
		log:         log,
		closeCh:     make(chan struct{}),
	}, nil
}

// NewServerFromListener wraps an already-open listener. The copyover
// recovery path uses it with a listener freshly bound to the configured
// address after the re-exec; the old listening socket is not carried across.
func NewServerFromListener(ln net.Listener, inSize, outSize, repeatLimit int, log *zap.Logger) *Server {
	return &Server{
		listener:    ln,
		newConns:    make(chan *Descriptor, 64),
		deadCh:      make(chan uint64, 64),
		inSize:      inSize,
		outSize:     outSize,
		repeatLimit: repeatLimit,
		log:         log,
		closeCh:     make(chan struct{}),
	}
}

func (s *Server) AcceptLoop() {
	for {
		c, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
				s.log.Warn("accept error", zap.Error(err))
				continue
			}
		}
		id := s.nextID.Add(1)
		d := NewDescriptor(id, c, s.inSize, s.outSize, s.repeatLimit, s.log)
		d.Start()
		s.log.Info("connection accepted", zap.Uint64("id", id), zap.String("ip", d.IP))

		select {
		case s.newConns <- d:
			go func() { <-d.closeCh; s.NotifyDead(d.ID) }()
		default:
			s.log.Warn("new-connection queue full, dropping", zap.Uint64("id", id))
			d.Close()
		}
	}
}

// SeedNextID advances the accept-loop's id counter past n, called once
// after copyover recovery so a freshly dialed-in connection can never reuse
// an id handed to a recovered descriptor.
func (s *Server) SeedNextID(n uint64) {
	for {
		cur := s.nextID.Load()
		if cur >= n {
			return
		}
		if s.nextID.CompareAndSwap(cur, n) {
			return
		}
	}
}

// InjectRecovered feeds a descriptor recovered from a copyover handoff into
// the same queue AcceptLoop uses, so the next pulse's PhaseAccept step
// registers it with the session manager exactly like a freshly dialed-in
// connection.
func (s *Server) InjectRecovered(d *Descriptor) {
	select {
	case s.newConns <- d:
		go func() { <-d.closeCh; s.NotifyDead(d.ID) }()
	default:
		s.log.Warn("new-connection queue full, dropping recovered descriptor", zap.Uint64("id", d.ID))
		d.Close()
	}
}

// DrainNewConnections returns every descriptor accepted since the last call,
// without blocking — called once per pulse from PhaseAccept.
func (s *Server) DrainNewConnections() []*Descriptor {
	var out []*Descriptor
	for {
		select {
		case d := <-s.newConns:
			out = append(out, d)
		default:
			return out
		}
	}
}

func (s *Server) NotifyDead(id uint64) {
	select {
	case s.deadCh <- id:
	default:
	}
}

func (s *Server) DrainDead() []uint64 {
	var out []uint64
	for {
		select {
		case id := <-s.deadCh:
			out = append(out, id)
		default:
			return out
		}
	}
}

func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Listener exposes the underlying listener. Copyover does not use it: only
// player connections are handed across the re-exec.
func (s *Server) Listener() net.Listener { return s.listener }
