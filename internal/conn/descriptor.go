// Package conn owns the per-connection goroutine pair (reader/writer) and
// the telnet negotiation state attached to each live socket: one goroutine
// reads, one writes, both communicate with the single-threaded scheduler
// through buffered channels, retargeted from length-prefixed binary framing
// to telnet IAC framing.
package conn

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dystopiamud/core/internal/telnet"
	"go.uber.org/zap"
)

// State mirrors the session states a descriptor can be in before a player
// object exists to own richer state; PlayingState and beyond are tracked by
// the session package once login completes.
type State int32

const (
	StateNegotiating State = iota
	StateGettingInput
	StateClosed
)

type Descriptor struct {
	ID   uint64
	conn net.Conn
	log  *zap.Logger

	state atomic.Int32

	dec *telnet.Decoder

	InQueue  chan string
	OutQueue chan []byte

	closeCh     chan struct{}
	closeOnce   sync.Once
	closed      atomic.Bool

	lineBuf []byte
	lastLine string
	repeatCount int
	repeatLimit int

	IP string

	TType   telnet.TTypeState
	Charset telnet.CharsetState
	NAWSWidth, NAWSHeight int
	MCCPVersion int
	GMCPEnabled bool
	MXPEnabled  bool

	out io.Writer // d.conn, or an MCCPWriter wrapping it once negotiated
}

func NewDescriptor(id uint64, c net.Conn, inSize, outSize, repeatLimit int, log *zap.Logger) *Descriptor {
	d := &Descriptor{
		ID:          id,
		conn:        c,
		log:         log,
		InQueue:     make(chan string, inSize),
		OutQueue:    make(chan []byte, outSize),
		closeCh:     make(chan struct{}),
		repeatLimit: repeatLimit,
	}
	if host, _, err := net.SplitHostPort(c.RemoteAddr().String()); err == nil {
		d.IP = host
	}
	d.dec = telnet.NewDecoder(d)
	d.out = c
	return d
}

// NewDescriptorFromFD re-wraps an inherited file descriptor (surviving a
// copyover exec) into a live Descriptor. The recovered connection skips
// telnet renegotiation entirely, since the client already completed it
// before the restart, and starts in StateGettingInput. The session layer
// then treats it like any new connection: it is greeted and logs in again;
// no character is reattached to it from the handoff file.
func NewDescriptorFromFD(id uint64, fd int, ip string, inSize, outSize, repeatLimit int, log *zap.Logger) (*Descriptor, error) {
	file := os.NewFile(uintptr(fd), fmt.Sprintf("copyover-fd-%d", fd))
	genericConn, err := net.FileConn(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("re-wrap copyover fd %d: %w", fd, err)
	}
	d := NewDescriptor(id, genericConn, inSize, outSize, repeatLimit, log)
	d.IP = ip
	d.state.Store(int32(StateGettingInput))
	return d, nil
}

// Start launches the reader and writer goroutines and sends the initial
// option offers. A descriptor recovered by NewDescriptorFromFD keeps its
// StateGettingInput and is sent no offers.
func (d *Descriptor) Start() {
	recovered := d.State() == StateGettingInput
	if !recovered {
		d.state.Store(int32(StateNegotiating))
	}
	go d.readLoop()
	go d.writeLoop()
	if recovered {
		return
	}

	hello := append([]byte{}, telnet.Negotiate(telnet.WILL, telnet.OptSuppressGA)...)
	hello = append(hello, telnet.Negotiate(telnet.DO, telnet.OptTType)...)
	hello = append(hello, telnet.Negotiate(telnet.DO, telnet.OptNAWS)...)
	hello = append(hello, telnet.Negotiate(telnet.DO, telnet.OptCharset)...)
	d.Send(hello)
}

func (d *Descriptor) State() State   { return State(d.state.Load()) }
func (d *Descriptor) SetState(s State) { d.state.Store(int32(s)) }

// Send enqueues data for the writer goroutine. Backpressure rule: if the
// output queue is full the descriptor is considered unresponsive and is
// closed rather than blocking the scheduler.
func (d *Descriptor) Send(data []byte) {
	if d.closed.Load() {
		return
	}
	select {
	case d.OutQueue <- data:
	default:
		d.log.Warn("descriptor output queue full, disconnecting", zap.Uint64("id", d.ID))
		d.Close()
	}
}

func (d *Descriptor) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.state.Store(int32(StateClosed))
		close(d.closeCh)
		d.conn.Close()
	})
}

func (d *Descriptor) IsClosed() bool { return d.closed.Load() }

func (d *Descriptor) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			d.Close()
			return
		}
		d.dec.Write(buf[:n])
	}
}

func (d *Descriptor) writeLoop() {
	for {
		select {
		case <-d.closeCh:
			return
		case data, ok := <-d.OutQueue:
			if !ok {
				return
			}
			d.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := d.out.Write(data); err != nil {
				d.Close()
				return
			}
			if bytes.Equal(data, telnet.MCCPBeginV2) {
				if _, compressing := d.out.(*telnet.MCCPWriter); !compressing {
					d.out = telnet.NewMCCPWriter(d.conn)
				}
			}
		}
	}
}

// --- telnet.Handler implementation ---

func (d *Descriptor) OnData(b []byte) {
	for _, c := range b {
		switch c {
		case '\n':
			d.emitLine()
		case '\r':
			// ignored; paired \r\n is the common case, bare \r alone also
			// flushes nothing extra.
		case 0x08, 0x7f: // backspace / DEL
			if len(d.lineBuf) > 0 {
				d.lineBuf = d.lineBuf[:len(d.lineBuf)-1]
			}
		default:
			d.lineBuf = append(d.lineBuf, c)
		}
	}
}

func (d *Descriptor) emitLine() {
	line := string(bytes.TrimRight(d.lineBuf, "\r"))
	d.lineBuf = d.lineBuf[:0]

	// Repeat-flood guard: exact byte-for-byte comparison against the
	// previous line, no whitespace normalization. This surprising behavior
	// is intentionally preserved from the original.
	if line == d.lastLine && line != "" {
		d.repeatCount++
		if d.repeatLimit > 0 && d.repeatCount >= d.repeatLimit {
			d.Close()
			return
		}
	} else {
		d.repeatCount = 0
	}
	d.lastLine = line

	select {
	case d.InQueue <- line:
	case <-d.closeCh:
	}
}

func (d *Descriptor) OnCommand(cmd byte) {
	// AYT/NOP/BRK etc: no core behavior beyond staying connected.
}

func (d *Descriptor) OnNegotiate(cmd, option byte) {
	switch option {
	case telnet.OptTType:
		if cmd == telnet.WILL {
			d.Send(d.TType.Request())
		}
	case telnet.OptNAWS:
		// client announces support via WILL; it will follow with SB NAWS.
	case telnet.OptCharset:
		if cmd == telnet.WILL {
			d.Send(telnet.CharsetRequestUTF8)
		}
	case telnet.OptMCCPv2:
		if cmd == telnet.DO {
			d.BeginMCCP(2)
		}
	case telnet.OptGMCP:
		if cmd == telnet.DO {
			d.GMCPEnabled = true
		}
	case telnet.OptMXP:
		if cmd == telnet.DO {
			d.MXPEnabled = true
		}
	}
}

func (d *Descriptor) OnSubnegotiation(option byte, data []byte) {
	switch option {
	case telnet.OptTType:
		if next, done := d.TType.HandleSubnegotiation(data); !done {
			d.Send(next)
		}
	case telnet.OptNAWS:
		if w, h, ok := telnet.ParseNAWS(data); ok {
			d.NAWSWidth, d.NAWSHeight = w, h
		}
	case telnet.OptCharset:
		d.Charset.HandleSubnegotiation(data)
	case telnet.OptGMCP:
		_ = telnet.ParseGMCP(data) // parsed and discarded: nothing consumes GMCP messages
	}
}

// DupConnFile returns a duplicated *os.File for the descriptor's underlying
// connection, suitable for surviving exec(2) across a copyover, if the
// connection is a *net.TCPConn (the only kind this server accepts).
func (d *Descriptor) DupConnFile() (*os.File, bool) {
	tc, ok := d.conn.(*net.TCPConn)
	if !ok {
		return nil, false
	}
	f, err := tc.File()
	if err != nil {
		return nil, false
	}
	return f, true
}

// BeginMCCP switches the writer to compress subsequent output. Only the
// MCCP v2 start sequence is implemented: it is queued whatever version is
// passed, and MCCP v1 is never negotiated (OnNegotiate reacts only to
// DO MCCP2). The writer goroutine sends the start sequence uncompressed and
// compresses everything it writes after it.
func (d *Descriptor) BeginMCCP(version int) {
	d.MCCPVersion = version
	d.Send(telnet.MCCPBeginV2)
}
