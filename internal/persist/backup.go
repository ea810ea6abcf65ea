package persist

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// BackupPlayerFile copies a just-saved player database to the backup
// directory in a detached goroutine, mirroring original_source
// game/src/systems/save.c's save_char_obj_backup (a detached pthread doing
// a 32KB-buffer copy loop). Bounded via errgroup rather than an unbounded
// goroutine-per-call so a burst of saves can't exhaust file descriptors.
func BackupPlayerFile(ctx context.Context, g *errgroup.Group, src, dst string) {
	g.Go(func() error {
		in, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open backup src %s: %w", src, err)
		}
		defer in.Close()

		out, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("create backup dst %s: %w", dst, err)
		}
		defer out.Close()

		buf := make([]byte, 32*1024)
		if _, err := io.CopyBuffer(out, in, buf); err != nil {
			return fmt.Errorf("copy backup %s -> %s: %w", src, dst, err)
		}
		return nil
	})
}

// NewBoundedGroup returns an errgroup capped at limit concurrent goroutines,
// for running BackupPlayerFile calls in parallel.
func NewBoundedGroup(limit int) *errgroup.Group {
	g := &errgroup.Group{}
	g.SetLimit(limit)
	return g
}
