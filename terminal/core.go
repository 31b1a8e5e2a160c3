// Package terminal implements TerminalCore: the component that drives one
// logical multi-hop login session - opening each connection in turn,
// negotiating its login prompts, and giving callers a prompt-aware
// send/expect/checkOutput surface once logged in.
package terminal

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mxterm/mxterm/connection"
	"github.com/mxterm/mxterm/internal/ansi"
	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/mxterm/mxterm/internal/pattern"
	"github.com/mxterm/mxterm/internal/proxyjump"
	"github.com/mxterm/mxterm/internal/transcript"
	"github.com/mxterm/mxterm/internal/xerrors"
)

// Options configures timeouts and behavior flags shared across every hop of
// one Core (§5's timeout defaults, §3's Core-level flags).
type Options struct {
	UseUniquePrompt                    bool
	AllowNonExpectedPrompt             bool
	CheckSamePromptWhenOpeningTerminal bool
	EnableProxyJump                    bool
	CloseBaseOnExit                    bool

	SocketTimeout        time.Duration
	LoginSocketTimeout   time.Duration
	PromptTimeout        time.Duration
	FlushRecvTimeout     time.Duration
	JoinTimeout          time.Duration
	SleepTimeAfterNoData time.Duration

	// BufferSizeToReturnOnError bounds how much of the receive buffer an
	// ExpectTimeout carries, to keep error messages bounded.
	BufferSizeToReturnOnError int

	Logger *slog.Logger
	Stream io.Writer
}

func (o *Options) setDefaults() {
	if o.SocketTimeout == 0 {
		o.SocketTimeout = 30 * time.Second
	}
	if o.LoginSocketTimeout == 0 {
		o.LoginSocketTimeout = 8 * time.Second
	}
	if o.PromptTimeout == 0 {
		o.PromptTimeout = 700 * time.Millisecond
	}
	if o.FlushRecvTimeout == 0 {
		o.FlushRecvTimeout = 50 * time.Millisecond
	}
	if o.JoinTimeout == 0 {
		o.JoinTimeout = 5 * time.Second
	}
	if o.SleepTimeAfterNoData == 0 {
		o.SleepTimeAfterNoData = 10 * time.Millisecond
	}
	if o.BufferSizeToReturnOnError == 0 {
		o.BufferSizeToReturnOnError = 4096
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// shellLogin is one entry on Core.stack (§3 ShellLogin).
type shellLogin struct {
	spec *connection.Spec
	os   *osadapter.Adapter

	expectedPrompt string
	promptFound    string
	banner         string

	canChangePrompt   bool
	canResizePty      bool
	canDisableHistory bool
	resetPromptOnExit bool
	defaultPrompt     string

	askResponseList []connection.AskResponse
	skipPromptCheck bool
}

// Core is TerminalCore: the ordered stack of logged-in hops riding on one
// underlying transport.
type Core struct {
	connections []*connection.Spec
	opts        Options

	mu    sync.Mutex
	stack []*shellLogin

	transport channel.Channel
	data      *transcript.Exchange
	startIdx  int

	lastCmdSent   string
	lastCmdHidden bool

	stopSignal atomic.Bool
}

// New builds a Core for the given ordered hop list. connections[0] is the
// base, opened locally; each subsequent entry is reached through the
// previous one.
func New(connections []*connection.Spec, opts Options) *Core {
	opts.setDefaults()
	data := transcript.New()
	data.Stream = opts.Stream
	return &Core{
		connections: connections,
		opts:        opts,
		data:        data,
	}
}

// Stop asks any in-flight expect/record loop to return promptly.
func (c *Core) Stop() { c.stopSignal.Store(true) }

func (c *Core) currentShell() *shellLogin {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *Core) currentPrompt() string {
	sl := c.currentShell()
	if sl == nil {
		return ""
	}
	return sl.promptFound
}

// Depth reports how many hops are currently logged in.
func (c *Core) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// Open performs the full multi-hop login procedure (§4.5). A hop whose
// Spec.SkipPromptCheck is true is exempt from the same-prompt check
// (Options.CheckSamePromptWhenOpeningTerminal), so a failed hop that leaves
// the previous prompt unchanged goes undetected for it.
func (c *Core) Open() error {
	if len(c.connections) == 0 {
		return fmt.Errorf("terminal: no connections configured")
	}

	c.startIdx = c.computeStartIdx()

	base := c.connections[c.startIdx]
	var transport channel.Channel
	var err error

	if c.startIdx > 0 {
		transport, err = c.openProxyJumpPrefix()
	} else {
		transport, err = base.OpenChannel(c.opts.Logger)
	}
	if err != nil {
		return &xerrors.ConnectionError{Op: "open base", Err: err}
	}
	c.transport = transport
	_ = c.transport.SetKeepalive(c.opts.SocketTimeout / 2)

	if err := c.loginHop(base); err != nil {
		c.closeAll()
		return err
	}

	for i := c.startIdx + 1; i < len(c.connections); i++ {
		spec := c.connections[i]
		prevOS := c.currentShell().os
		spawn := spec.SpawnCommand(prevOS)
		if err := c.SendCmd(spawn, false, false); err != nil {
			c.closeAll()
			return &xerrors.ConnectionError{Op: "spawn hop " + spec.Host, Err: err}
		}
		if _, err := c.AskResponseLoop(spec.AskResponses, AskLoopOptions{Timeout: c.opts.LoginSocketTimeout}); err != nil {
			c.closeAll()
			return err
		}
		if err := c.findLoginInfo(spec); err != nil {
			c.closeAll()
			return err
		}
		if err := c.postLoginBootstrap(spec); err != nil {
			c.closeAll()
			return err
		}
	}

	if c.opts.AllowNonExpectedPrompt {
		if sl := c.currentShell(); sl != nil {
			c.connections[c.startIdx].ExpectedPromptRegex = sl.expectedPrompt
		}
	}
	return nil
}

// computeStartIdx walks connections from 0 while entries are SSH and proxy
// jumping is enabled, per §4.5 step 1.
func (c *Core) computeStartIdx() int {
	if !c.opts.EnableProxyJump {
		return 0
	}
	i := 0
	for i < len(c.connections) && c.connections[i].Proto == connection.ProtoSSH && c.connections[i].EnableProxyJump {
		i++
	}
	if i <= 1 {
		return 0
	}
	return i - 1
}

func (c *Core) openProxyJumpPrefix() (channel.Channel, error) {
	hops := make([]proxyjump.Hop, 0, c.startIdx+1)
	for i := 0; i <= c.startIdx; i++ {
		spec := c.connections[i]
		auth, err := specAuth(spec)
		if err != nil {
			return nil, err
		}
		hops = append(hops, proxyjump.Hop{
			Host:           spec.Host,
			Port:           spec.Port,
			User:           spec.User,
			Auth:           auth,
			KnownHostsPath: spec.KnownHostsPath,
		})
	}
	return proxyjump.Dial(hops, c.opts.Logger)
}

// loginHop runs findLoginInfo + bootstrap for the already-opened base
// transport.
func (c *Core) loginHop(spec *connection.Spec) error {
	if err := c.findLoginInfo(spec); err != nil {
		return err
	}
	return c.postLoginBootstrap(spec)
}

// findLoginInfo sends a newline and scans for the expected (or inferred)
// prompt, pushing a new shellLogin on success (§4.5 step 4).
func (c *Core) findLoginInfo(spec *connection.Spec) error {
	if err := c.rawSend("\n"); err != nil {
		return &xerrors.ConnectionError{Op: "find login info", Err: err}
	}
	_ = c.FlushRecv(false, c.opts.FlushRecvTimeout)

	promptRegex := spec.ExpandedPrompt()
	literal, banner, err := c.findPrompt(promptRegex, c.opts.LoginSocketTimeout)
	if err != nil {
		return err
	}

	if !spec.SkipPromptCheck && c.opts.CheckSamePromptWhenOpeningTerminal {
		if prev := c.currentShell(); prev != nil && prev.promptFound == literal && spec.OS != nil && spec.OS.CanChangePrompt {
			return &xerrors.LoginError{Hop: len(c.stack), Message: "we did not actually log in anywhere: prompt unchanged"}
		}
	}

	sl := &shellLogin{
		spec:              spec,
		os:                spec.OS,
		expectedPrompt:    promptRegex,
		promptFound:       regexp.QuoteMeta(literal),
		banner:            banner,
		askResponseList:   spec.AskResponses,
		skipPromptCheck:   spec.SkipPromptCheck,
	}
	if spec.OS != nil {
		sl.canChangePrompt = spec.OS.CanChangePrompt
		sl.canResizePty = spec.OS.CanResizePty
		sl.canDisableHistory = spec.OS.CanDisableHistory
		sl.resetPromptOnExit = spec.OS.ResetPromptOnExit
		sl.defaultPrompt = spec.OS.DefaultPrompt
	}

	c.mu.Lock()
	c.stack = append(c.stack, sl)
	c.mu.Unlock()
	return nil
}

// postLoginBootstrap disables history, sets a unique prompt, and resizes
// the PTY on the hop just logged into (§4.5 step 5).
func (c *Core) postLoginBootstrap(spec *connection.Spec) error {
	sl := c.currentShell()
	if sl == nil || sl.os == nil {
		return nil
	}
	if sl.canDisableHistory {
		if cmd := sl.os.DisableHistory(); cmd != "" {
			if err := c.SendCmd(cmd, false, false); err != nil {
				return err
			}
			_ = c.FlushRecv(false, c.opts.FlushRecvTimeout)
		}
	}
	if c.opts.UseUniquePrompt && sl.canChangePrompt {
		if err := c.SetPrompt(sl.os.UniquePrompt()); err != nil {
			return err
		}
	}
	_ = c.FlushRecv(false, c.opts.FlushRecvTimeout)
	if sl.canResizePty {
		cols, rows := spec.Cols, spec.Rows
		if cols == 0 {
			cols = 80
		}
		if rows == 0 {
			rows = 24
		}
		if err := c.transport.ResizePTY(cols, rows); err == channel.ErrNotSupported {
			_ = c.SendCmd(sl.os.ResizePty(cols, rows), false, false)
			_ = c.FlushRecv(false, c.opts.FlushRecvTimeout)
		}
	}
	return nil
}

// Close logs out of every hop in reverse order, then closes the base
// transport if configured to (§4.6). Idempotent.
func (c *Core) Close() error {
	c.mu.Lock()
	stack := c.stack
	c.stack = nil
	c.mu.Unlock()

	for i := len(stack) - 1; i >= 0; i-- {
		sl := stack[i]
		if sl.os != nil {
			_ = c.rawSend(sl.os.Exit() + "\n")
			if c.opts.UseUniquePrompt && sl.resetPromptOnExit && sl.defaultPrompt != "" {
				_ = c.rawSend(sl.os.SetPrompt(sl.defaultPrompt) + "\n")
			}
		}
	}
	c.lastCmdSent = ""
	c.lastCmdHidden = false

	if c.opts.CloseBaseOnExit && c.transport != nil {
		err := c.transport.Close()
		c.transport = nil
		return err
	}
	return nil
}

func (c *Core) closeAll() {
	_ = c.Close()
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
	}
}

func specAuth(spec *connection.Spec) (channel.SSHAuth, error) {
	return spec.SSHAuth()
}

// rawSend writes text to the transport and records it in the transcript
// without updating lastCmdSent (used for control sequences and logout
// commands that are not "the" last command for error-redaction purposes).
func (c *Core) rawSend(text string) error {
	if c.transport == nil {
		return &xerrors.ConnectionError{Op: "send", Err: fmt.Errorf("no open transport")}
	}
	c.data.AppendSend(text, false)
	return c.transport.Send(text)
}

// stripAndRecord applies the mandatory ANSI strip and appends to the
// transcript (§6 ANSI strip, applied once per recv chunk).
func (c *Core) stripAndRecord(chunk string) string {
	stripped := ansi.Strip(chunk)
	c.data.AppendReceived(stripped)
	return stripped
}
