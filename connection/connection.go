// Package connection implements ConnectionSpec: the declarative description
// of one hop (protocol, address, credentials, expected prompt, login
// script) that TerminalCore opens and logs into in sequence.
package connection

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/mxterm/mxterm/internal/xerrors"
)

// Proto names a connection protocol.
type Proto string

const (
	ProtoSSH     Proto = "ssh"
	ProtoTelnet  Proto = "telnet"
	ProtoCommand Proto = "command"
)

// CountUnbounded marks an AskResponse.CountHi with no upper bound, as
// opposed to zero, which retires the step unconditionally.
const CountUnbounded = -1

// AskResponse is one step of a declarative login script (§3, §4.3).
type AskResponse struct {
	// Name is the stable key the result map is keyed by; auto-assigned if
	// empty when the spec is compiled into a pattern contract.
	Name string

	// ExpectPattern is nil to mean "the prompt".
	ExpectPattern *regexp.Regexp

	// Reply is nil to mean "stop here, caller has reached the prompt".
	Reply *string

	Required bool
	Hidden   bool

	// CountLo/CountHi bound how many times this step may fire before being
	// retired. CountHi == CountUnbounded means no upper bound. CountHi == 0
	// means the step is retired unconditionally, whether or not it ever
	// matches - the "count: 0" form of §6's count grammar.
	CountLo int
	CountHi int

	// Timeout is carried with the step but not applied: AskResponseLoop
	// uses its own AskLoopOptions timeouts for every step.
	Timeout time.Duration
}

// Spec describes one hop in a multi-hop login.
type Spec struct {
	Proto Proto

	Host string
	Port int
	User string

	Password   string
	KeyPath    string
	KeyPEM     []byte
	KeyPassword string

	// Cmd/Args is used when Proto == ProtoCommand: a locally spawned
	// process (under a PTY) rather than a network protocol.
	Cmd  string
	Args []string

	OS *osadapter.Adapter

	// ExpectedPromptRegex may contain the literal placeholder "{username}",
	// expanded with User at open time.
	ExpectedPromptRegex string

	AskResponses []AskResponse

	KnownHostsPath string

	EnableProxyJump bool

	Cols, Rows int

	ConnectTimeout time.Duration
	SocketTimeout  time.Duration

	SkipPromptCheck bool
}

// ExpandedPrompt substitutes {username} into ExpectedPromptRegex.
func (s *Spec) ExpandedPrompt() string {
	return strings.ReplaceAll(s.ExpectedPromptRegex, "{username}", s.User)
}

// OpenChannel opens this spec as a locally-reachable transport: the base
// hop of a TerminalCore session, or a ProxyJump-collapsed prefix. Hops
// reached by typing a command into an already-open shell are not opened
// here: TerminalCore sends their SpawnCommand line into the current hop's
// shell on the same transport.
func (s *Spec) OpenChannel(log *slog.Logger) (channel.Channel, error) {
	switch s.Proto {
	case ProtoSSH:
		auth, err := s.sshAuth()
		if err != nil {
			return nil, err
		}
		return channel.DialSSH(channel.SSHOptions{
			Host:           s.Host,
			Port:           s.Port,
			User:           s.User,
			Auth:           auth,
			KnownHostsPath: s.KnownHostsPath,
			DialTimeout:    s.ConnectTimeout,
		}, log)
	case ProtoTelnet:
		return channel.DialTelnet(channel.TelnetOptions{
			Host:        s.Host,
			Port:        s.Port,
			DialTimeout: s.ConnectTimeout,
		}, log)
	case ProtoCommand:
		return channel.NewSubprocess(s.Cmd, s.Args, log)
	default:
		return nil, fmt.Errorf("connection: opening %q: %w", s.Proto, xerrors.ErrNotImplementedProtocol)
	}
}

func (s *Spec) sshAuth() (channel.SSHAuth, error) {
	return s.SSHAuth()
}

// SSHAuth builds the channel-level auth for this spec: the password, plus a
// signer parsed from KeyPEM (with KeyPassword if the key is encrypted)
// whenever KeyPEM is set.
// Exported so callers assembling a ProxyJump hop list by hand (TerminalCore)
// can reuse the same key-parsing logic.
func (s *Spec) SSHAuth() (channel.SSHAuth, error) {
	auth := channel.SSHAuth{Password: s.Password}
	if len(s.KeyPEM) > 0 {
		signer, err := parseSigner(s.KeyPEM, s.KeyPassword, s.KeyPath)
		if err != nil {
			return channel.SSHAuth{}, err
		}
		auth.Signer = signer
	}
	return auth, nil
}

// SpawnCommand builds the line a human (or the core, on their behalf) would
// type into the current shell to start this hop, used for every entry
// beyond the locally-opened base (§4.5 step 6).
func (s *Spec) SpawnCommand(fromOS *osadapter.Adapter) string {
	switch s.Proto {
	case ProtoSSH:
		app := "ssh"
		if fromOS != nil && fromOS.SSHApp != "" {
			app = fromOS.SSHApp
		}
		cmd := fmt.Sprintf("%s -p %d -l %s %s", app, s.Port, s.User, s.Host)
		return cmd
	case ProtoTelnet:
		app := "telnet"
		if fromOS != nil && fromOS.TelnetApp != "" {
			app = fromOS.TelnetApp
		}
		return fmt.Sprintf("%s %s %d", app, s.Host, s.Port)
	case ProtoCommand:
		if len(s.Args) == 0 {
			return s.Cmd
		}
		return s.Cmd + " " + strings.Join(s.Args, " ")
	default:
		return ""
	}
}
