// Package crashlog implements the crash-marker + top-level recover protocol
// of original_source game/src/core/paths.h's CRASH_TEMP_FILE and the boot
// sequence in db.c that checks for its presence: a marker file is written
// before each pulse and removed after it completes cleanly, so a process
// that dies mid-pulse (panic, OOM-kill, SIGSEGV in cgo) leaves the marker
// behind for the next boot to notice and log.
//
// Go's memory safety removes the original's need to isolate heap corruption
// to a single pulse; the marker here exists purely so operators can tell,
// after the fact, that the previous run ended in a panic rather than a
// clean shutdown.
package crashlog

import (
	"fmt"
	"os"
	"time"

	"github.com/dystopiamud/core/internal/paths"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Marker struct {
	layout paths.Layout
	log    *zap.Logger
}

func New(layout paths.Layout, log *zap.Logger) *Marker {
	return &Marker{layout: layout, log: log}
}

// CheckPriorCrash looks for a marker left by a previous run and logs what it
// finds. Called once during cold boot, before the marker for this run is
// written.
func (m *Marker) CheckPriorCrash() {
	data, err := os.ReadFile(m.layout.RunFile(paths.CrashMarker))
	if err != nil {
		return
	}
	m.log.Warn("previous run did not shut down cleanly", zap.String("marker", string(data)))
	os.Remove(m.layout.RunFile(paths.CrashMarker))
}

// Arm writes the marker for the pulse about to run, stamped with a
// correlation id, a UTC timestamp and the caller-supplied context string.
// The scheduler passes a fixed label; no per-descriptor command history is
// recorded in the marker.
func (m *Marker) Arm(context string) {
	line := fmt.Sprintf("%s %s %s", uuid.NewString(), time.Now().UTC().Format(time.RFC3339), context)
	os.WriteFile(m.layout.RunFile(paths.CrashMarker), []byte(line), 0o600)
}

// Disarm removes the marker once the guarded section completes without
// panicking.
func (m *Marker) Disarm() {
	os.Remove(m.layout.RunFile(paths.CrashMarker))
}

// Guard runs fn under a recover() that logs the panic, leaves the marker in
// place for the next boot's CheckPriorCrash (it is removed only when fn
// returns normally), and re-panics so the process exits rather than
// limping on with the corrupted call stack's side effects. Unlike the
// original's isolate-and-continue debug mode, a Go panic means an invariant
// the rest of the program assumes has already been violated.
func (m *Marker) Guard(context string, onPanic func(recovered any), fn func()) {
	m.Arm(context)
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("pulse panicked", zap.Any("recovered", r), zap.String("context", context))
			if onPanic != nil {
				onPanic(r)
			}
			panic(r)
		}
		m.Disarm()
	}()
	fn()
}
