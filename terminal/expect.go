package terminal

import (
	"time"

	"github.com/mxterm/mxterm/connection"
	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/pattern"
	"github.com/mxterm/mxterm/internal/xerrors"
)

// ExpectOptions configures one Expect call (§4.2 inputs).
type ExpectOptions struct {
	// Timeout falls back to opts.SocketTimeout when zero.
	Timeout time.Duration

	// ResetOnNewLine discards everything up to and including the last
	// newline whenever no match has been found yet, for streaming output
	// (e.g. a long cat) where stale lines never contribute to a match.
	ResetOnNewLine bool

	// ResetBuffer starts from an empty buffer instead of the transcript's
	// last-received accumulator.
	ResetBuffer bool
}

// Expect runs the streamed matching loop described in §4.2: it scans
// whatever has already been received, then pulls more data from the
// transport until the contract is satisfied, the timeout elapses, or the
// caller asked to stop.
func (c *Core) Expect(contract *pattern.Contract, eo ExpectOptions) error {
	timeout := eo.Timeout
	if timeout == 0 {
		timeout = c.opts.SocketTimeout
	}

	buf := ""
	if !eo.ResetBuffer {
		buf = c.data.LastReceived()
	}
	prompt := c.currentPrompt()

	if buf != "" && contract.Scan(buf, prompt) {
		return nil
	}
	contract.Reset()

	deadline := time.Now().Add(timeout)
	for {
		if contract.OK || c.stopSignal.Load() {
			break
		}
		if timeout > 0 && time.Now().After(deadline) {
			return c.expectTimeoutErr(contract, buf)
		}

		chunk, status, err := c.transport.Recv(c.opts.SleepTimeAfterNoData)
		if err != nil || status == channel.StatusClosed {
			return &xerrors.ConnectionError{Op: "expect", Err: err}
		}
		if status == channel.StatusNotReady {
			time.Sleep(c.opts.SleepTimeAfterNoData)
			continue
		}

		stripped := c.stripAndRecord(chunk)
		buf += stripped

		if contract.Scan(buf, prompt) {
			break
		}
		if eo.ResetOnNewLine {
			if idx := lastNewline(buf); idx >= 0 {
				buf = buf[idx+1:]
			}
		}
	}

	if !contract.OK {
		return c.expectTimeoutErr(contract, buf)
	}
	return nil
}

func (c *Core) expectTimeoutErr(contract *pattern.Contract, buf string) error {
	b := buf
	if len(b) > c.opts.BufferSizeToReturnOnError {
		b = b[len(b)-c.opts.BufferSizeToReturnOnError:]
	}
	return &xerrors.ExpectTimeout{
		Command: contract.Command,
		Hidden:  c.lastCmdHidden,
		Buffer:  b,
	}
}

func lastNewline(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}

// AskLoopOptions configures one AskResponseLoop run (§4.3 inputs).
type AskLoopOptions struct {
	Timeout                time.Duration
	TimeoutAfterFirstMatch time.Duration
	StopAfterGetting       map[string]bool
}

// AskResponseLoop negotiates a declarative multi-step login script,
// replying to whichever prompt the remote issues until every step is
// either matched to quota or retired, or the prompt itself is reached
// (§4.3).
func (c *Core) AskResponseLoop(list []connection.AskResponse, lo AskLoopOptions) (map[string]*pattern.Match, error) {
	matched := make(map[string]*pattern.Match)
	if len(list) == 0 {
		return matched, nil
	}

	order := make([]string, 0, len(list))
	remaining := make(map[string]connection.AskResponse, len(list))
	counts := make(map[string]int, len(list))
	for i, ar := range list {
		name := ar.Name
		if name == "" {
			name = autoName(i)
			ar.Name = name
		}
		order = append(order, name)
		if ar.CountHi == 0 {
			// count: "0" retires the step before it ever gets a chance to
			// match, rather than waiting on a match that quota forbids.
			continue
		}
		remaining[name] = ar
	}

	timeout := lo.Timeout
	firstMatch := false

	for len(remaining) > 0 {
		contract := pattern.New("ask-response")
		for _, name := range order {
			ar, ok := remaining[name]
			if !ok {
				continue
			}
			var v *pattern.Value
			if ar.ExpectPattern == nil {
				v = pattern.NewPrompt(pattern.WithName(name))
			} else {
				v = pattern.NewRegex(ar.ExpectPattern, pattern.WithName(name))
			}
			_ = contract.Add(v)
		}
		if len(contract.Items) == 0 {
			break
		}

		err := c.Expect(contract, ExpectOptions{Timeout: timeout})
		if err != nil {
			if _, isTimeout := err.(*xerrors.ExpectTimeout); isTimeout && !anyRequiredLeft(remaining) {
				return matched, nil
			}
			if anyRequiredLeft(remaining) {
				return matched, &xerrors.LoginError{Hop: c.Depth(), Message: "required login step never matched: " + err.Error()}
			}
			return matched, err
		}

		for _, idx := range contract.MatchedIndices {
			v := contract.Items[idx]
			name := v.Name
			ar, ok := remaining[name]
			if !ok {
				continue
			}
			matched[name] = v.Match
			counts[name]++
			firstMatch = true

			if ar.CountHi != connection.CountUnbounded && counts[name] >= ar.CountHi {
				delete(remaining, name)
			}

			if ar.Reply == nil {
				return matched, nil
			}
			if err := c.SendCmd(*ar.Reply, false, ar.Hidden); err != nil {
				return matched, err
			}
			if lo.StopAfterGetting != nil && lo.StopAfterGetting[name] {
				return matched, nil
			}
		}

		if !anyRequiredLeft(remaining) {
			break
		}
		if firstMatch && lo.TimeoutAfterFirstMatch > 0 {
			timeout = lo.TimeoutAfterFirstMatch
		}
	}

	return matched, nil
}

func anyRequiredLeft(remaining map[string]connection.AskResponse) bool {
	for _, ar := range remaining {
		if ar.Required {
			return true
		}
	}
	return false
}

func autoName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "step_" + string(letters[i%len(letters)])
}
