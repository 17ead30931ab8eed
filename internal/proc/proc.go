// Package proc runs external tools with their stdout and stderr merged into
// a single line-oriented stream.
package proc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const maxLineSize = 1024 * 1024

// Process is a running child process whose combined output is read line by line.
type Process struct {
	cmd     *exec.Cmd
	out     *os.File
	scanner *bufio.Scanner
}

// Start launches name with args. Both output streams of the child are
// written to one pipe; nothing is buffered beyond the current line.
// Canceling ctx kills the child (and, on Unix, its whole process group).
func Start(ctx context.Context, name string, args ...string) (*Process, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	configure(cmd)

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, err
	}

	// The child holds its own copy of the write end.
	_ = w.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	return &Process{cmd: cmd, out: r, scanner: scanner}, nil
}

// Scan advances to the next output line. It returns false at EOF or on a
// read error; check Err afterwards.
func (p *Process) Scan() bool {
	return p.scanner.Scan()
}

// Text returns the current line with surrounding whitespace removed.
func (p *Process) Text() string {
	return strings.TrimSpace(p.scanner.Text())
}

// Err returns the first non-EOF read error.
func (p *Process) Err() error {
	return p.scanner.Err()
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Drain discards any remaining output so the child never blocks on a full pipe.
func (p *Process) Drain() {
	_, _ = io.Copy(io.Discard, p.out)
}

// Kill terminates the child immediately.
func (p *Process) Kill() {
	if p.cmd.Process == nil {
		return
	}
	_ = kill(p.cmd)
}

// Wait blocks until the child exits and releases the read end of the pipe.
func (p *Process) Wait() error {
	err := p.cmd.Wait()
	_ = p.out.Close()
	return err
}

// ExitCode extracts the exit status from an error returned by Wait.
// The second result is false when err is not an exit status error.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// scanLines splits on \n, \r\n and a bare \r. Terminal-style progress
// readouts redraw a line with \r, so each redraw becomes its own line.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Need one more byte to know whether this is \r\n.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
