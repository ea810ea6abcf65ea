// Package dispatch implements the command pipeline: alias expansion,
// prefix-matched lookup against an ordered command table, and
// trust/position/wait-state/disabled-command gating before a handler runs.
package dispatch

import (
	"strings"

	"github.com/dystopiamud/core/internal/world"
)

type LogFlag int

const (
	LogNormal LogFlag = iota
	LogAlways
	LogNever
)

// HandlerFunc is one command's implementation. send delivers output lines to
// the acting player's descriptor; the returned error is a refusal/failure
// message shown the same way, kept distinct from send so handlers that
// succeed but have nothing to say don't need a dummy send call.
type HandlerFunc func(actor *world.Player, args string, send func(string)) error

// Command is one entry in the table. Position and Trust gate whether the
// command runs at all; WaitPulses is the lag it imposes afterward.
type Command struct {
	Name        string
	MinTrust    world.TrustLevel
	MinPosition int
	WaitPulses  int
	Log         LogFlag
	Class       string // empty means unrestricted
	Handler     HandlerFunc
}

// Table is deliberately a slice, not a map: first-match-wins prefix matching
// in registration order is the required lookup rule, and a map can't
// express registration order.
type Table struct {
	commands []Command
	disabled map[string]string // name -> who disabled it
}

func NewTable() *Table { return &Table{disabled: make(map[string]string)} }

func (t *Table) Register(c Command) { t.commands = append(t.commands, c) }

// Disable short-circuits dispatch for a command name before its handler
// would otherwise run, recording who disabled it for the refusal message
// and for `commands` admin reporting.
func (t *Table) Disable(name, by string) { t.disabled[strings.ToLower(name)] = by }
func (t *Table) Enable(name string)      { delete(t.disabled, strings.ToLower(name)) }

// Lookup finds the first registered command whose Name the given word is a
// prefix of. Ties (multiple commands sharing a prefix) resolve to whichever
// was registered first.
func (t *Table) Lookup(word string) (Command, bool) {
	word = strings.ToLower(word)
	if word == "" {
		return Command{}, false
	}
	for _, c := range t.commands {
		if strings.HasPrefix(c.Name, word) {
			return c, true
		}
	}
	return Command{}, false
}

// DisabledBy reports who disabled a command name, if anyone.
func (t *Table) DisabledBy(name string) (string, bool) {
	by, ok := t.disabled[strings.ToLower(name)]
	return by, ok
}
