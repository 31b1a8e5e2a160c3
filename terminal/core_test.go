package terminal

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/mxterm/mxterm/connection"
	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/mxterm/mxterm/internal/pattern"
	"github.com/mxterm/mxterm/internal/xerrors"
	"github.com/stretchr/testify/require"
)

// scriptedChannel is a minimal channel.Channel double: Recv drains a
// scripted queue of chunks (one per call), returning StatusNotReady once
// the queue is empty. Send records what was written and, when onSend has
// an entry for the exact text sent, queues that entry's reply as if an
// echoing remote had just answered it — letting tests model "nothing to
// flush yet, then a reply shows up after the command is sent" without any
// real concurrency.
type scriptedChannel struct {
	mu      sync.Mutex
	recv    []string
	sent    []string
	onSend  map[string]string
	respond func(sent string) (reply string, ok bool)
}

func (f *scriptedChannel) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	if reply, ok := f.onSend[text]; ok {
		f.recv = append(f.recv, reply)
	} else if f.respond != nil {
		if reply, ok := f.respond(text); ok {
			f.recv = append(f.recv, reply)
		}
	}
	return nil
}

func (f *scriptedChannel) Recv(wait time.Duration) (string, channel.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recv) == 0 {
		return "", channel.StatusNotReady, nil
	}
	chunk := f.recv[0]
	f.recv = f.recv[1:]
	return chunk, channel.StatusOK, nil
}

func (f *scriptedChannel) ResizePTY(cols, rows int) error            { return channel.ErrNotSupported }
func (f *scriptedChannel) SetKeepalive(interval time.Duration) error { return nil }
func (f *scriptedChannel) IsActive() bool                            { return true }
func (f *scriptedChannel) Close() error                              { return nil }

func newTestCore(sc *scriptedChannel) *Core {
	c := New([]*connection.Spec{{Proto: connection.ProtoCommand, Cmd: "sh", OS: osadapter.Builtins()["linux"]}}, Options{
		SleepTimeAfterNoData: time.Millisecond,
	})
	c.transport = sc
	return c
}

func TestExpectMatchesAlreadyBufferedData(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	c.data.AppendSend("whoami\n", false)
	c.data.AppendReceived("root\nuser@host:~$ ")

	contract := pattern.New("whoami")
	v, err := pattern.NewString("root", pattern.WithName("out"))
	require.NoError(t, err)
	require.NoError(t, contract.Add(v))

	err = c.Expect(contract, ExpectOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.True(t, contract.OK)
}

func TestExpectTimesOutWhenNothingArrives(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	c.data.AppendSend("cmd\n", false)

	contract := pattern.New("cmd")
	require.NoError(t, contract.Add(pattern.NewRegex(regexp.MustCompile("never-matches"))))

	err := c.Expect(contract, ExpectOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	var timeoutErr *xerrors.ExpectTimeout
	require.ErrorAs(t, err, &timeoutErr)
}

func TestSendCmdRecordsTranscriptAndTracksLastCommand(t *testing.T) {
	sc := &scriptedChannel{}
	c := newTestCore(sc)

	require.NoError(t, c.SendCmd("uptime", false, false))
	require.Equal(t, []string{"uptime\n"}, sc.sent)
	require.Equal(t, "uptime", c.lastCmdSent)
	require.False(t, c.lastCmdHidden)
}

func TestSendCmdHiddenRedactsTranscript(t *testing.T) {
	sc := &scriptedChannel{}
	c := newTestCore(sc)

	require.NoError(t, c.SendCmd("mysecret", false, true))
	require.True(t, c.lastCmdHidden)
	sent, hidden := c.data.LastSent()
	require.True(t, hidden)
	require.NotContains(t, sent, "mysecret")
}

func TestCheckOutputTrimsEchoAndPrompt(t *testing.T) {
	sc := &scriptedChannel{onSend: map[string]string{"echo hello\n": "hello\r\nmyhost> "}}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "myhost> "}}

	out, err := c.CheckOutput("echo hello", CheckOutputOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "hello\r\n", out)
}

func TestCheckOutputReturnsCalledProcessErrorOnTimeout(t *testing.T) {
	sc := &scriptedChannel{}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "myhost> "}}

	_, err := c.CheckOutput("will-hang", CheckOutputOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	var cpe *xerrors.CalledProcessError
	require.ErrorAs(t, err, &cpe)
}

func TestAskResponseLoopRepliesToPasswordThenStopsWhenNothingRequiredRemains(t *testing.T) {
	sc := &scriptedChannel{recv: []string{"Password: "}}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "user@host:~\\$ "}}

	ar := connection.AskResponse{
		Name:          "pw",
		ExpectPattern: regexp.MustCompile(`(?i)password:\s*$`),
		Reply:         strPtr("hunter2"),
		Required:      true,
		Hidden:        true,
		CountHi:       1,
	}

	matched, err := c.AskResponseLoop([]connection.AskResponse{ar}, AskLoopOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.Contains(t, matched, "pw")
	require.Equal(t, []string{"hunter2\n"}, sc.sent)
}

func TestAskResponseLoopCountZeroRetiresStepUnconditionally(t *testing.T) {
	sc := &scriptedChannel{}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "user@host:~\\$ "}}

	ar := connection.AskResponse{
		Name:          "never",
		ExpectPattern: regexp.MustCompile(`(?i)never matches$`),
		Reply:         strPtr("should not send"),
		Required:      true,
		CountHi:       0,
	}

	matched, err := c.AskResponseLoop([]connection.AskResponse{ar}, AskLoopOptions{Timeout: time.Second})
	require.NoError(t, err, "count: \"0\" must retire the step rather than wait on an expect timeout")
	require.NotContains(t, matched, "never")
	require.Empty(t, sc.sent, "a count: \"0\" step must never get a chance to reply")
}

func TestAskResponseLoopEmptyListReturnsImmediately(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	matched, err := c.AskResponseLoop(nil, AskLoopOptions{})
	require.NoError(t, err)
	require.Empty(t, matched)
}

func TestFlushRecvDrainsUntilNotReady(t *testing.T) {
	sc := &scriptedChannel{recv: []string{"noise one ", "noise two"}}
	c := newTestCore(sc)

	err := c.FlushRecv(false, 50*time.Millisecond)
	require.NoError(t, err)
	require.Contains(t, c.data.LastReceived(), "noise two")
}

func TestDepthReflectsStackSize(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	require.Equal(t, 0, c.Depth())
	c.stack = append(c.stack, &shellLogin{}, &shellLogin{})
	require.Equal(t, 2, c.Depth())
}

func TestCloseIsIdempotentWhenNeverOpened(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	c.opts.CloseBaseOnExit = true
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func strPtr(s string) *string { return &s }
