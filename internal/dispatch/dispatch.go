package dispatch

import (
	"fmt"
	"strings"

	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

// PosStanding and friends mirror the position scale used by world.Player's
// Position field; kept here rather than in world so dispatch owns the
// gating vocabulary.
const (
	PosDead = iota
	PosIncap
	PosStunned
	PosSleeping
	PosResting
	PosSitting
	PosFighting
	PosStanding
)

// ErrWait is returned (not logged as a failure) when an actor is still
// lagged from a previous command; the command does not run, and
// session.Manager drops the line without a message to the player.
var ErrWait = fmt.Errorf("actor is still waiting")

// Dispatch resolves one input line for a logged-in actor: alias expansion
// (one level, non-recursive; an alias expanding to another alias is never
// re-expanded, which rules out expansion loops), prefix lookup against the
// table, then disabled/trust/position/wait-state gating before the handler
// runs.
type Dispatch struct {
	table *Table
	log   *zap.Logger
}

func New(table *Table, log *zap.Logger) *Dispatch { return &Dispatch{table: table, log: log} }

// Feed resolves one input line for a logged-in actor and runs its handler.
// send delivers any output the handler produces; the returned error is a
// refusal or failure message the caller shows the same way.
func (d *Dispatch) Feed(actor *world.Player, line string, send func(string)) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	word, args, _ := strings.Cut(line, " ")
	if expansion, ok := actor.Aliases[strings.ToLower(word)]; ok {
		// One level only: the expansion's own first word is looked up
		// directly in the table, never re-checked against Aliases again.
		var expArgs string
		word, expArgs, _ = strings.Cut(expansion, " ")
		args = strings.TrimSpace(expArgs + " " + args)
	}

	cmd, ok := d.table.Lookup(word)
	if !ok {
		return fmt.Errorf("huh?")
	}
	if by, disabled := d.table.DisabledBy(cmd.Name); disabled {
		return fmt.Errorf("that command has been disabled by %s", by)
	}
	if cmd.Class != "" && actor.Class != cmd.Class {
		return fmt.Errorf("you don't know how to do that")
	}
	if actor.Trust < cmd.MinTrust {
		return fmt.Errorf("you don't have permission to do that")
	}
	if actor.Position < cmd.MinPosition {
		return fmt.Errorf("you can't do that right now")
	}
	if actor.WaitPulses > 0 && actor.Trust < world.TrustAdmin {
		return ErrWait
	}

	if cmd.Log == LogAlways && d.log != nil {
		d.log.Info("command", zap.String("actor", actor.Name), zap.String("cmd", cmd.Name), zap.String("args", args))
	}

	if err := cmd.Handler(actor, args, send); err != nil {
		return err
	}
	actor.WaitPulses += cmd.WaitPulses
	return nil
}
