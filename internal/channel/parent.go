package channel

import (
	"sync"
	"time"
)

// Parent implements the "spawn inside the already-open parent session"
// channel variant (§4.4): rather than opening a new transport, it sends a
// spawn command (e.g. "ssh nexthop" or "telnet 10.0.0.1") down an existing
// Channel and then simply forwards Send/Recv to it. This is how a hop
// reached via ProxyJump-by-command (as opposed to native SSH tunnelling)
// rides on top of the previous hop's shell.
type Parent struct {
	parent      Channel
	spawnCmd    string
	resizeCmd   func(cols, rows int) string

	mu      sync.Mutex
	started bool
}

// NewParent wraps parent, arranging to issue spawnCmd (e.g. "ssh host") the
// first time the caller sends anything - mirroring how a human operator
// would type the next hop's command into the shell they are already in.
// resizeCmd optionally produces a software resize command for adapters that
// cannot resize the parent's PTY directly (ResizePTY falls back to it).
func NewParent(parent Channel, spawnCmd string, resizeCmd func(cols, rows int) string) *Parent {
	return &Parent{parent: parent, spawnCmd: spawnCmd, resizeCmd: resizeCmd}
}

func (p *Parent) ensureStarted() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.started = true
	if p.spawnCmd == "" {
		return nil
	}
	return p.parent.Send(p.spawnCmd + "\n")
}

func (p *Parent) Send(text string) error {
	if err := p.ensureStarted(); err != nil {
		return err
	}
	return p.parent.Send(text)
}

func (p *Parent) Recv(wait time.Duration) (string, Status, error) {
	if err := p.ensureStarted(); err != nil {
		return "", StatusClosed, err
	}
	return p.parent.Recv(wait)
}

// ResizePTY delegates to the parent transport's native resize. When that
// returns ErrNotSupported and NewParent was given a resizeCmd, it sends the
// software resize command down the parent instead.
func (p *Parent) ResizePTY(cols, rows int) error {
	err := p.parent.ResizePTY(cols, rows)
	if err == ErrNotSupported && p.resizeCmd != nil {
		return p.Send(p.resizeCmd(cols, rows) + "\n")
	}
	return err
}

func (p *Parent) SetKeepalive(interval time.Duration) error {
	return p.parent.SetKeepalive(interval)
}

func (p *Parent) IsActive() bool {
	return p.parent.IsActive()
}

// Close does not close the parent transport - it is shared with whatever
// opened it. Logging out of this hop is the terminal core's job (sending
// the OS adapter's Exit() command before tearing down the stack).
func (p *Parent) Close() error { return nil }

var _ Channel = (*Parent)(nil)
