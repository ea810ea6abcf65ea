package persist

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// WriteTask is one pending background file write: the final on-disk bytes
// for a player save, already built and serialized by SavePlayer (area saves
// write their file directly and do not use the writer).
type WriteTask struct {
	Path string
	Data []byte
	Done func(error)
}

// BackgroundWriter is the single pending-saves counter + mutex + condition
// variable the original server uses to let shutdown wait for every
// in-flight save thread to finish before exiting, grounded in
// original_source game/src/db/db_player.c's pending_saves/save_mutex/
// save_cond. Each task gets its own goroutine, matching the original's
// detached pthread per save — the counter, not a bounded pool, is what
// provides backpressure-free fire-and-forget semantics.
type BackgroundWriter struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending int
	log     *zap.Logger
}

func NewBackgroundWriter(log *zap.Logger) *BackgroundWriter {
	w := &BackgroundWriter{log: log}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Submit launches the write in its own goroutine and returns immediately.
func (w *BackgroundWriter) Submit(task WriteTask) {
	w.mu.Lock()
	w.pending++
	w.mu.Unlock()

	go func() {
		err := os.WriteFile(task.Path, task.Data, 0o600)
		if err != nil && w.log != nil {
			w.log.Error("background save write failed", zap.String("path", task.Path), zap.Error(err))
		}
		if task.Done != nil {
			task.Done(err)
		}
		w.mu.Lock()
		w.pending--
		w.cond.Broadcast()
		w.mu.Unlock()
	}()
}

// WaitIdle blocks until every submitted write has completed. Called during
// shutdown so the process never exits with a save still in flight.
func (w *BackgroundWriter) WaitIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.pending > 0 {
		w.cond.Wait()
	}
}

func (w *BackgroundWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}
