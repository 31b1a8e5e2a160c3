package channel

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ziutek/telnet"
)

// Telnet negotiation bytes not exported by ziutek/telnet but needed to push
// a window-size update (NAWS) after a resize - the library handles the
// read-side IAC filtering for us but has no resize API of its own.
const (
	iac = 255
	sb  = 250
	se  = 240
	naws = 31
)

// Telnet drives a session over the telnet protocol. It pushes the window
// size (NAWS) on ResizePTY; it does not negotiate the terminal type.
type Telnet struct {
	conn *telnet.Conn
	reader *asyncReader
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// TelnetOptions configures a Telnet dial.
type TelnetOptions struct {
	Host string
	Port int
	TermType string
	DialTimeout time.Duration
}

// DialTelnet connects to host:port. It sends no option negotiation of its
// own (TermType is not used); read-side IAC handling is left to
// ziutek/telnet.
func DialTelnet(opts TelnetOptions, log *slog.Logger) (*Telnet, error) {
	if log == nil {
		log = slog.Default()
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	conn, err := telnet.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("telnet: dial %s: %w", addr, err)
	}
	conn.SetUnixWriteMode(true)

	t := &Telnet{
		conn:   conn,
		reader: newAsyncReader(conn),
		log:    log,
	}
	logDebugf("telnet: connected to %s", addr)
	return t, nil
}

func (t *Telnet) Send(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	_, err := t.conn.Write([]byte(text))
	return err
}

func (t *Telnet) Recv(wait time.Duration) (string, Status, error) {
	data, err, got := t.reader.recv(wait)
	if err != nil {
		t.log.Debug("telnet recv error", "err", err)
		return data, StatusClosed, err
	}
	if !got {
		return "", StatusNotReady, nil
	}
	return data, StatusOK, nil
}

// ResizePTY sends a NAWS (negotiate about window size) subnegotiation, the
// telnet-native equivalent of a pty resize ioctl.
func (t *Telnet) ResizePTY(cols, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	msg := []byte{
		iac, sb, naws,
		byte(cols >> 8), byte(cols),
		byte(rows >> 8), byte(rows),
		iac, se,
	}
	_, err := t.conn.Write(msg)
	return err
}

// SetKeepalive is unsupported natively by ziutek/telnet and returns
// ErrNotSupported. TerminalCore ignores that error and sends no heartbeat of
// its own.
func (t *Telnet) SetKeepalive(time.Duration) error { return ErrNotSupported }

func (t *Telnet) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

func (t *Telnet) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.reader.stop()
	logDebugf("telnet: closed")
	return t.conn.Close()
}

var _ Channel = (*Telnet)(nil)
