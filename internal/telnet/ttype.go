package telnet

import (
	"strconv"
	"strings"
)

// TTypeState drives the three-round TTYPE/MTTS probe, grounded in
// original_source game/src/systems/ttype.c. Round 1 captures the client's
// terminal name; round 2 re-requests, and a client that repeats the same
// name is asked a third time, since MTTS clients answer round 3 with
// "MTTS <flags>" (an empty round-2 answer ends the probe); round 3, if the
// client responds, is parsed as "MTTS <flags>".
type TTypeState struct {
	Enabled    bool
	Round      int
	ClientName string
	MTTSFlags  int
}

// Request returns the SB TTYPE SEND IAC SE bytes to ask the client for the
// next round of its terminal-type response.
func (t *TTypeState) Request() []byte {
	return Subnegotiate(OptTType, []byte{TTypeSend})
}

// HandleSubnegotiation processes one "IS <name>" response and returns the
// next request to send, or nil if the probe is complete.
func (t *TTypeState) HandleSubnegotiation(data []byte) (next []byte, done bool) {
	if len(data) == 0 || data[0] != TTypeIs {
		return nil, true
	}
	payload := string(data[1:])

	t.Round++
	switch t.Round {
	case 1:
		t.ClientName = payload
		return t.Request(), false
	case 2:
		if payload == "" {
			// no data in round 2: nothing more to ask for.
			return nil, true
		}
		return t.Request(), false
	case 3:
		const prefix = "MTTS "
		if strings.HasPrefix(strings.ToUpper(payload), prefix) {
			if n, err := strconv.Atoi(strings.TrimSpace(payload[len(prefix):])); err == nil {
				t.MTTSFlags = n
			}
		}
		return nil, true
	default:
		return nil, true
	}
}

func (t *TTypeState) HasFlag(flag int) bool { return t.MTTSFlags&flag != 0 }
