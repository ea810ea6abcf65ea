package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dystopiamud/core/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting the room/object/mob triggers
// a world's content attaches by name (the scripts table loaded by
// persist.LoadArea), grounded in original_source script.h/script_trigger.c's
// model of triggers as named programs looked up by vnum and fired on
// in-game events. Single-goroutine access only: the scheduler's PhaseInput
// step is the only caller, matching the original's single-threaded script
// VM.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in scriptsDir.
// Scripts are plain top-level functions named after the script_name column
// in the scripts table; a script may be attached to any number of rooms,
// objects, or mobs and is expected to branch on the event argument it's
// called with rather than being written for a single trigger kind.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads every .lua file directly under dir. Subdirectories are not
// descended into; scripts are a flat namespace of the global functions the
// files define, and script_name in the scripts table names one of those
// functions.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() { e.vm.Close() }

// run looks up a global Lua function by name and calls it with a single
// table argument describing the trigger, with "send" bound as a global
// function for the duration of the call so the script can write back to
// the acting player without the engine exposing its whole Go API to Lua.
// A script name with no matching function is not an error: scripts are
// attached by name ahead of being written, the same way original_source
// lets a mob reference a special function that hasn't been compiled in yet.
func (e *Engine) run(scriptName, event string, vnum world.VNum, actor *world.Player, send func(string)) error {
	fn := e.vm.GetGlobal(scriptName)
	if fn.Type() != lua.LTFunction {
		return nil
	}

	e.vm.SetGlobal("send", e.vm.NewFunction(func(L *lua.LState) int {
		if send != nil {
			send(L.CheckString(1))
		}
		return 0
	}))

	env := e.vm.NewTable()
	env.RawSetString("event", lua.LString(event))
	env.RawSetString("vnum", lua.LNumber(vnum))
	if actor != nil {
		env.RawSetString("actor", lua.LString(actor.Name))
		env.RawSetString("actor_trust", lua.LNumber(actor.Trust))
	}

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, env); err != nil {
		e.log.Warn("script trigger failed", zap.String("script", scriptName), zap.String("event", event), zap.Error(err))
		return fmt.Errorf("run script %s: %w", scriptName, err)
	}
	return nil
}

// RunRoomTrigger fires event against every script attached to room,
// called by the movement handler after a player successfully enters it.
func (e *Engine) RunRoomTrigger(event string, room *world.Room, actor *world.Player, send func(string)) error {
	for _, name := range room.Scripts {
		if err := e.run(name, event, room.VNum, actor, send); err != nil {
			return err
		}
	}
	return nil
}

// RunMobTrigger fires event against every script attached to mob's
// prototype, called e.g. on a "greet" event when a player enters a mob's
// room.
func (e *Engine) RunMobTrigger(event string, mob *world.MobInstance, actor *world.Player, send func(string)) error {
	if mob.Proto == nil {
		return nil
	}
	for _, name := range mob.Proto.Scripts {
		if err := e.run(name, event, mob.Proto.VNum, actor, send); err != nil {
			return err
		}
	}
	return nil
}

// RunObjTrigger fires event against every script attached to obj's
// prototype, called e.g. on a "look" event when a player examines a room
// containing it.
func (e *Engine) RunObjTrigger(event string, obj *world.ObjInstance, actor *world.Player, send func(string)) error {
	if obj.Proto == nil {
		return nil
	}
	for _, name := range obj.Proto.Scripts {
		if err := e.run(name, event, obj.Proto.VNum, actor, send); err != nil {
			return err
		}
	}
	return nil
}
