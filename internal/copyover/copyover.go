// Package copyover implements the hot-restart handoff: write one line per
// live descriptor naming its duplicated file descriptor, exec
// a fresh process image with a sentinel argument, and on the new side
// re-wrap each inherited descriptor into a usable net.Conn before any
// client notices the restart.
package copyover

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/dystopiamud/core/internal/conn"
	"github.com/google/uuid"
)

const Sentinel = "copyover"

// Perform writes the handoff file, then re-execs the current binary with
// "copyover <handoff-path>" appended to argv. Each descriptor's underlying
// TCP connection is duplicated (so its fd survives exec, which by default
// closes every fd not explicitly carried across) and the duplicate's fd
// number is recorded against the descriptor's name/host.
//
// Never returns on success: syscall.Exec replaces the process image. On
// failure it returns the error and the caller is still the old process.
func Perform(handoffPath string, descriptors []*conn.Descriptor, names map[uint64]string) error {
	f, err := os.Create(handoffPath)
	if err != nil {
		return fmt.Errorf("create copyover handoff: %w", err)
	}
	defer f.Close()

	correlationID := uuid.NewString()
	fmt.Fprintln(f, correlationID)

	// (*net.TCPConn).File() hands back a duplicate of the underlying fd with
	// its close-on-exec flag cleared and blocking mode restored, exactly
	// the precondition for the fd to survive syscall.Exec below. The
	// duplicate keeps whatever number the kernel assigns it (not
	// necessarily contiguous with stdio), so the handoff file records the
	// real fd rather than an assumed position.
	var carried []*os.File
	for _, d := range descriptors {
		file, ok := d.DupConnFile()
		if !ok {
			continue
		}
		carried = append(carried, file)
		fmt.Fprintf(f, "%d %s %s\n", file.Fd(), names[d.ID], d.IP)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync copyover handoff: %w", err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	argv := append([]string{exePath}, os.Args[1:]...)
	argv = append(argv, Sentinel, handoffPath)

	err = syscall.Exec(exePath, argv, os.Environ())
	runtime.KeepAlive(carried) // carried fds must outlive the loop above
	return err
}

// Entry describes one descriptor recovered from a handoff file.
type Entry struct {
	FD   int
	Name string
	Host string
}

// Parse reads a handoff file written by Perform, returning the correlation
// id and the recovered entries. The file is not removed here; the caller
// removes it right after a successful parse, before re-wrapping any entry,
// so the handoff file is consumed exactly once during recovery.
func Parse(path string) (correlationID string, entries []Entry, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open copyover handoff: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", nil, fmt.Errorf("empty copyover handoff file")
	}
	correlationID = strings.TrimSpace(sc.Text())

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return "", nil, fmt.Errorf("malformed copyover handoff line %q", line)
		}
		fd, err := strconv.Atoi(fields[0])
		if err != nil {
			return "", nil, fmt.Errorf("malformed copyover fd %q: %w", fields[0], err)
		}
		entries = append(entries, Entry{FD: fd, Name: fields[1], Host: fields[2]})
	}
	return correlationID, entries, sc.Err()
}

// LookPath resolves the binary path used for re-exec, exposed mainly so
// tests can stub os.Executable's platform quirks.
func LookPath(name string) (string, error) { return exec.LookPath(name) }
