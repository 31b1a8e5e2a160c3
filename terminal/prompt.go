package terminal

import (
	"regexp"
	"strings"
	"time"

	"github.com/mxterm/mxterm/internal/pattern"
	"github.com/mxterm/mxterm/internal/xerrors"
)

// findPrompt scans the receive stream for promptRegex (if non-empty) or, if
// empty, waits out timeout and treats the last non-empty line as the
// prompt. It returns the literal prompt text and everything before it
// (the banner) (§4.5 step 4).
func (c *Core) findPrompt(promptRegex string, timeout time.Duration) (literal, banner string, err error) {
	if promptRegex != "" {
		contract := pattern.New("")
		re, compileErr := regexp.Compile(promptRegex)
		if compileErr != nil {
			return "", "", &xerrors.LoginError{Message: "invalid expected prompt regex: " + compileErr.Error()}
		}
		v := pattern.NewRegex(re, pattern.WithName("prompt"), pattern.WithoutPromptStrip())
		_ = contract.Add(v)

		if expErr := c.Expect(contract, ExpectOptions{Timeout: timeout}); expErr != nil {
			return "", "", expErr
		}
		m := v.Match
		return m.Text, c.data.LastReceived()[:m.Start], nil
	}

	// No expected prompt: wait out the window and take the last non-empty
	// line of whatever arrived as the prompt.
	time.Sleep(timeout)
	buf := c.data.LastReceived()
	lines := strings.Split(buf, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			idx := strings.LastIndex(buf, lines[i])
			return lines[i], buf[:idx], nil
		}
	}
	return "", buf, &xerrors.LoginError{Message: "no prompt observed within timeout"}
}

// SetPrompt sends the OS's "set prompt" command and confirms the new
// prompt took effect (§4.8).
func (c *Core) SetPrompt(newPrompt string) error {
	sl := c.currentShell()
	if sl == nil || sl.os == nil {
		return nil
	}
	if err := c.SendCmd(sl.os.SetPrompt(newPrompt), false, false); err != nil {
		return err
	}
	return c.GetNewPrompt(newPrompt, c.opts.PromptTimeout)
}

// GetNewPrompt waits for newPrompt to appear and, on success, replaces the
// active hop's promptFound with the escaped literal text actually observed
// (§4.8).
func (c *Core) GetNewPrompt(newPrompt string, timeout time.Duration) error {
	literal, _, err := c.findPrompt(newPrompt, timeout)
	if err != nil {
		return &xerrors.PromptNotFoundError{
			LastCmd:      c.lastCmdSent,
			LastCmdHide:  c.lastCmdHidden,
			ObservedData: c.data.LastReceived(),
		}
	}
	sl := c.currentShell()
	if sl != nil {
		c.mu.Lock()
		sl.promptFound = regexp.QuoteMeta(literal)
		c.mu.Unlock()
	}
	return nil
}

// ExpectNewPrompt waits for newPrompt, then optionally re-arms the unique
// sentinel prompt on top of it (§4.8).
func (c *Core) ExpectNewPrompt(newPrompt string, setUnique bool) error {
	if err := c.GetNewPrompt(newPrompt, c.opts.PromptTimeout); err != nil {
		return err
	}
	if !setUnique {
		return nil
	}
	sl := c.currentShell()
	if sl == nil || sl.os == nil {
		return nil
	}
	return c.SetPrompt(sl.os.UniquePrompt())
}
