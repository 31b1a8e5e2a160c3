package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSSHClientFalseWhenTransportIsNotSSH(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	c.stack = []*shellLogin{{}}

	_, ok := c.SSHClient()
	require.False(t, ok, "a scriptedChannel base transport never qualifies as a native SSH client")
}

func TestSSHClientFalseWhenMoreThanOneHopDeep(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	c.stack = []*shellLogin{{}, {}}

	_, ok := c.SSHClient()
	require.False(t, ok, "native transfer only applies at the base hop")
}

func TestOSAdapterReturnsNilWithoutAnActiveHop(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	require.Nil(t, c.OSAdapter())
}

func TestOSAdapterReturnsActiveHopAdapter(t *testing.T) {
	c := newTestCore(&scriptedChannel{})
	ad := c.connections[0].OS
	c.stack = []*shellLogin{{os: ad}}
	require.Same(t, ad, c.OSAdapter())
}

func TestRunCaptureDelegatesToCheckOutput(t *testing.T) {
	sc := &scriptedChannel{onSend: map[string]string{"echo hi\n": "hi\r\nmyhost> "}}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "myhost> "}}

	out, err := c.RunCapture("echo hi", time.Second)
	require.NoError(t, err)
	require.Equal(t, "hi\r\n", out)
}

func TestCaptureStripsLastCommandEchoAndPrompt(t *testing.T) {
	sc := &scriptedChannel{onSend: map[string]string{"echo hi\n": "hi\r\nmyhost> "}}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "myhost> "}}

	require.NoError(t, c.SendCmd("echo hi", false, false))
	out, err := c.Capture(time.Second)
	require.NoError(t, err)
	require.Equal(t, "hi\r\n", out)
}

func TestAwaitWaitsForPromptWithoutSending(t *testing.T) {
	sc := &scriptedChannel{recv: []string{"myhost> "}}
	c := newTestCore(sc)
	c.stack = []*shellLogin{{promptFound: "myhost> "}}

	require.NoError(t, c.Await(time.Second))
	require.Empty(t, sc.sent, "Await must not send anything")
}
