package terminal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/pattern"
	"github.com/mxterm/mxterm/internal/xerrors"
)

// SendCmd sends text followed by a newline, flushing any pending output
// from a previous command first when flush is true (§4.7).
func (c *Core) SendCmd(text string, flush bool, hidden bool) error {
	if flush && c.lastCmdSent != "" {
		if err := c.FlushRecv(false, c.opts.FlushRecvTimeout); err != nil {
			return err
		}
	}
	if c.transport == nil {
		return &xerrors.ConnectionError{Op: "send_cmd", Err: fmt.Errorf("no open transport")}
	}

	full := text + "\n"
	c.data.AppendSend(full, hidden)
	if err := c.transport.Send(full); err != nil {
		return &xerrors.ConnectionError{Op: "send_cmd", Err: err}
	}
	c.lastCmdSent = text
	c.lastCmdHidden = hidden
	return nil
}

// SendCmds sends each command in order, flushing between them.
func (c *Core) SendCmds(cmds []string, hidden bool) error {
	for i, cmd := range cmds {
		if err := c.SendCmd(cmd, i > 0, hidden); err != nil {
			return err
		}
	}
	return nil
}

// FlushRecv drains whatever the transport has buffered without trying to
// match anything, used to discard echo/noise before sending the next
// command (§4.7).
func (c *Core) FlushRecv(forceCtrlC bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	stillArriving := false
	for time.Now().Before(deadline) {
		chunk, status, err := c.transport.Recv(c.opts.SleepTimeAfterNoData)
		if err != nil || status == channel.StatusClosed {
			return &xerrors.ConnectionError{Op: "flush_recv", Err: err}
		}
		if status == channel.StatusNotReady {
			return nil
		}
		stillArriving = true
		c.stripAndRecord(chunk)
	}
	if stillArriving && forceCtrlC {
		if err := c.rawSend("\x03"); err != nil {
			return err
		}
		return c.FlushRecv(false, timeout)
	}
	return nil
}

// CheckOutputOptions configures one CheckOutput call (§4.7).
type CheckOutputOptions struct {
	UseSudo      bool
	SudoPassword string
	StderrToTmp  bool
	Timeout      time.Duration
}

// CheckOutput runs cmd and returns its output up to (not including) the
// next prompt, raising CalledProcessError if the prompt never appears
// (§4.7).
func (c *Core) CheckOutput(cmd string, opts CheckOutputOptions) (string, error) {
	if err := c.FlushRecv(false, c.opts.FlushRecvTimeout); err != nil {
		return "", err
	}

	effective := cmd
	if opts.StderrToTmp {
		effective = redirectStderrToTmp(effective)
	}

	sl := c.currentShell()
	if opts.UseSudo && sl != nil && sl.os != nil {
		effective = "sudo -S " + effective
		if err := c.SendCmd(effective, false, false); err != nil {
			return "", err
		}

		contract := pattern.New(effective)
		passwordPrompt := pattern.NewRegex(sudoPasswordRegex, pattern.WithName("password"))
		promptValue := pattern.NewPrompt(pattern.WithName("prompt"))
		_ = contract.Add(passwordPrompt)
		_ = contract.Add(promptValue)

		if err := c.Expect(contract, ExpectOptions{Timeout: opts.Timeout}); err != nil {
			return "", &xerrors.CalledProcessError{ReturnCode: -1, Cmd: cmd, Output: err.Error()}
		}
		if passwordPrompt.Match != nil {
			if err := c.SendCmd(opts.SudoPassword, false, true); err != nil {
				return "", err
			}
			if err := c.expectPrompt(opts.Timeout); err != nil {
				return "", &xerrors.CalledProcessError{ReturnCode: -1, Cmd: cmd, Output: err.Error()}
			}
		}
	} else {
		if err := c.SendCmd(effective, false, false); err != nil {
			return "", err
		}
		if err := c.expectPrompt(opts.Timeout); err != nil {
			return "", &xerrors.CalledProcessError{ReturnCode: -1, Cmd: cmd, Output: err.Error()}
		}
	}

	out := c.data.LastReceived()
	out = strings.TrimPrefix(out, effective+"\r\n")
	out = strings.TrimPrefix(out, effective+"\n")
	return trimTrailingPrompt(out, c.currentPrompt()), nil
}

func (c *Core) expectPrompt(timeout time.Duration) error {
	contract := pattern.New("")
	_ = contract.Add(pattern.NewPrompt())
	return c.Expect(contract, ExpectOptions{Timeout: timeout})
}

var sudoPasswordRegex = regexp.MustCompile(`(?i)\[sudo\] password for .+?:\s*$|password:\s*$`)

func redirectStderrToTmp(cmd string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(cmd), "&")
	background := strings.HasSuffix(strings.TrimSpace(cmd), "&")
	redirected := fmt.Sprintf("%s 2>/tmp/stderr_%x", trimmed, hash(cmd))
	if background {
		redirected += " &"
	}
	return redirected
}

// trimTrailingPrompt cuts s at the last match of prompt, which is a regex
// (promptFound holds the observed prompt regex-escaped).
func trimTrailingPrompt(s, prompt string) string {
	if prompt == "" {
		return s
	}
	re, err := regexp.Compile(prompt)
	if err != nil {
		return s
	}
	if locs := re.FindAllStringIndex(s, -1); len(locs) > 0 {
		return s[:locs[len(locs)-1][0]]
	}
	return s
}

func hash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
