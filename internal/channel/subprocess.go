package channel

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
)

// Subprocess drives a local command under a pseudo-terminal: "ssh", "telnet",
// or any other spawn-command an OS adapter names, launched as a child
// process rather than spoken to over a library-native protocol. It owns the
// pty.Start/resize dance the retrieval pack's PTY wrapper used to run a
// whole interactive session; here it is just one Channel among several.
type Subprocess struct {
	cmd *exec.Cmd
	pty *os.File

	reader *asyncReader
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewSubprocess starts name with args under a PTY and returns the Channel
// wrapping it. The caller owns shutting it down via Close.
func NewSubprocess(name string, args []string, log *slog.Logger) (*Subprocess, error) {
	if log == nil {
		log = slog.Default()
	}
	cmd := exec.Command(name, args...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("subprocess: starting pty: %w", err)
	}
	logDebugf("subprocess: started %s %v", name, args)
	return &Subprocess{
		cmd:    cmd,
		pty:    ptmx,
		reader: newAsyncReader(ptmx),
		log:    log,
	}, nil
}

func (s *Subprocess) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := s.pty.WriteString(text)
	return err
}

func (s *Subprocess) Recv(wait time.Duration) (string, Status, error) {
	data, err, got := s.reader.recv(wait)
	if err != nil {
		s.log.Debug("subprocess recv error", "err", err)
		return data, StatusClosed, err
	}
	if !got {
		return "", StatusNotReady, nil
	}
	return data, StatusOK, nil
}

func (s *Subprocess) ResizePTY(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return pty.Setsize(s.pty, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// SetKeepalive is a no-op for local subprocesses: there is no wire protocol
// to keep alive, only a pipe to an already-running child.
func (s *Subprocess) SetKeepalive(time.Duration) error { return nil }

func (s *Subprocess) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.cmd.ProcessState == nil
}

func (s *Subprocess) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.reader.stop()
	ptyErr := s.pty.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	logDebugf("subprocess: closed")
	return ptyErr
}

var _ Channel = (*Subprocess)(nil)
