// Package commands supplies a minimal, representative command table
// exercising the dispatch pipeline end to end: movement between rooms, a
// room-scoped say, a session terminator, and a forced save: enough to
// prove the pipeline's gating and wait-state rules actually run a handler,
// without reimplementing a full gameplay command set.
package commands

import (
	"fmt"
	"strings"

	"github.com/dystopiamud/core/internal/dispatch"
	"github.com/dystopiamud/core/internal/scripting"
	"github.com/dystopiamud/core/internal/world"
)

// Registrar is anything that can receive sequential Command registrations;
// satisfied by *dispatch.Table without this package importing its concrete
// construction details.
type Registrar interface {
	Register(dispatch.Command)
}

// Dependencies a handler needs beyond the acting player, supplied once at
// registration time via closures rather than threaded through every call.
type Dependencies struct {
	World *world.World
	// RequestQuit is called by the quit handler to remove the player from
	// the world and close its session's connection.
	RequestQuit func(playerID world.PlayerID)
	// RequestSave is called by the save handler to force an immediate
	// write instead of waiting for the next auto-save tick.
	RequestSave func(playerID world.PlayerID)
	// Broadcast delivers a line to every other player in the given room.
	Broadcast func(room world.VNum, exclude world.PlayerID, line string)
	// Scripts fires room/object/mob triggers attached by content; nil is a
	// valid value (scripting disabled), every call site guards against it.
	Scripts *scripting.Engine
}

// Register installs the representative command set into t, in an order
// chosen so short aliases ("n") are registered before longer names that
// would otherwise win the same prefix under first-match-wins lookup.
func Register(t Registrar, deps Dependencies) {
	for _, dir := range []world.Direction{world.DirNorth, world.DirEast, world.DirSouth, world.DirWest, world.DirUp, world.DirDown} {
		dir := dir
		t.Register(dispatch.Command{
			Name:        strings.ToLower(dir.String()),
			MinPosition: dispatch.PosStanding,
			WaitPulses:  1,
			Handler: func(actor *world.Player, _ string, send func(string)) error {
				dest, err := move(deps.World, actor, dir)
				if err != nil {
					return err
				}
				fireEnterTriggers(deps, dest, actor, send)
				return nil
			},
		})
	}

	t.Register(dispatch.Command{
		Name:        "look",
		MinPosition: dispatch.PosResting,
		Handler: func(actor *world.Player, _ string, send func(string)) error {
			room, ok := deps.World.Room(actor.Room)
			if !ok {
				return fmt.Errorf("you are nowhere")
			}
			send(room.Name + "\n" + room.Description)
			if deps.Scripts != nil {
				for _, objID := range room.Objects {
					obj, ok := deps.World.Obj(objID)
					if !ok {
						continue
					}
					if err := deps.Scripts.RunObjTrigger("look", obj, actor, send); err != nil {
						return err
					}
				}
			}
			return nil
		},
	})

	t.Register(dispatch.Command{
		Name:        "say",
		MinPosition: dispatch.PosResting,
		Handler: func(actor *world.Player, args string, send func(string)) error {
			args = strings.TrimSpace(args)
			if args == "" {
				return fmt.Errorf("say what?")
			}
			send(fmt.Sprintf("you say, '%s'", args))
			if deps.Broadcast != nil {
				deps.Broadcast(actor.Room, actor.ID, fmt.Sprintf("%s says, '%s'", actor.Name, args))
			}
			return nil
		},
	})

	t.Register(dispatch.Command{
		Name: "save",
		Handler: func(actor *world.Player, _ string, send func(string)) error {
			actor.Dirty = true
			if deps.RequestSave != nil {
				deps.RequestSave(actor.ID)
			}
			send("saved.")
			return nil
		},
	})

	t.Register(dispatch.Command{
		Name: "quit",
		Log:  dispatch.LogAlways,
		Handler: func(actor *world.Player, _ string, send func(string)) error {
			actor.Dirty = true
			if deps.RequestSave != nil {
				deps.RequestSave(actor.ID)
			}
			if deps.RequestQuit != nil {
				deps.RequestQuit(actor.ID)
			}
			return nil
		},
	})
}

func move(w *world.World, actor *world.Player, dir world.Direction) (*world.Room, error) {
	room, ok := w.Room(actor.Room)
	if !ok {
		return nil, fmt.Errorf("you are nowhere")
	}
	exit := room.Exits[dir]
	if exit == nil {
		return nil, fmt.Errorf("you can't go that way")
	}
	if exit.Flags&world.ExitClosed != 0 {
		return nil, fmt.Errorf("the door is closed")
	}
	dest, ok := w.Room(exit.ToVNum)
	if !ok {
		return nil, fmt.Errorf("that way leads nowhere")
	}
	if err := w.EnterRoom(actor, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

// fireEnterTriggers runs the destination room's own "enter" scripts, then
// each of its mobs' "greet" scripts, in that order. Errors are logged by
// the engine itself and not propagated: a broken script must not leave a
// player stuck unable to walk into a room.
func fireEnterTriggers(deps Dependencies, dest *world.Room, actor *world.Player, send func(string)) {
	if deps.Scripts == nil || dest == nil {
		return
	}
	deps.Scripts.RunRoomTrigger("enter", dest, actor, send)
	for _, mobID := range dest.Mobs {
		if mob, ok := deps.World.Mob(mobID); ok {
			deps.Scripts.RunMobTrigger("greet", mob, actor, send)
		}
	}
}
