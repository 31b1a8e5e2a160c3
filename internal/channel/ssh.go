package channel

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHAuth carries the credential material for one hop: at most one of
// Password or Signer is normally used, but both may be offered so the
// server's preferred method wins.
type SSHAuth struct {
	Password string
	Signer   ssh.Signer
}

// SSHOptions configures a DialSSH call.
type SSHOptions struct {
	Host string
	Port int
	User string
	Auth SSHAuth

	// KnownHostsPath, when set and present on disk, enables strict host key
	// checking; otherwise the connection falls back to
	// ssh.InsecureIgnoreHostKey with a logged warning, never a silent one.
	KnownHostsPath string

	DialTimeout time.Duration

	// Dialer lets a caller hand in an already-established net.Conn factory,
	// used by SSHProxyJump to tunnel a hop's TCP stream through a parent
	// ssh.Client instead of dialing the network directly.
	Dialer func(network, addr string) (net.Conn, error)
}

// SSH drives a session over golang.org/x/crypto/ssh: a PTY-backed shell on
// the far end of a client connection that may itself be tunnelled through
// another hop's Dialer.
type SSH struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   interface{ Write([]byte) (int, error) }

	reader *asyncReader
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
}

func hostKeyCallback(path string, log *slog.Logger) ssh.HostKeyCallback {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cb, err := knownhosts.New(path)
			if err == nil {
				return cb
			}
			log.Warn("failed loading known_hosts, falling back to insecure host key checking", "path", path, "error", err)
		} else {
			log.Warn("known_hosts file not found, falling back to insecure host key checking", "path", path)
		}
	} else {
		log.Warn("no known_hosts path configured, using insecure host key checking")
	}
	return ssh.InsecureIgnoreHostKey()
}

// DialSSHClient performs the authenticated handshake only, without opening
// a shell session - what a ProxyJump intermediate hop needs, since its only
// job is to tunnel the next hop's TCP stream via its Dial method.
func DialSSHClient(opts SSHOptions, log *slog.Logger) (*ssh.Client, error) {
	if log == nil {
		log = slog.Default()
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	var methods []ssh.AuthMethod
	if opts.Auth.Password != "" {
		methods = append(methods, ssh.Password(opts.Auth.Password))
	}
	if opts.Auth.Signer != nil {
		methods = append(methods, ssh.PublicKeys(opts.Auth.Signer))
	}

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback(opts.KnownHostsPath, log),
		Timeout:         timeout,
	}

	dial := opts.Dialer
	if dial == nil {
		d := net.Dialer{Timeout: timeout}
		dial = d.Dial
	}

	conn, err := dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ssh: dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// DialSSH opens a client connection and an interactive PTY shell on it.
func DialSSH(opts SSHOptions, log *slog.Logger) (*SSH, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := DialSSHClient(opts, log)
	if err != nil {
		return nil, err
	}
	sh, err := NewSSHShell(client, log)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// NewSSHShell opens an interactive PTY shell on an already-authenticated
// client - the final leg of an SSHProxyJump chain, where every earlier hop
// only needed its *ssh.Client for tunnelling.
func NewSSHShell(client *ssh.Client, log *slog.Logger) (*SSH, error) {
	if log == nil {
		log = slog.Default()
	}
	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ssh: new session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm", 80, 200, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: start shell: %w", err)
	}

	logDebugf("ssh: shell open on %s", client.RemoteAddr())
	return &SSH{
		client:  client,
		session: session,
		stdin:   stdin,
		reader:  newAsyncReader(stdout),
		log:     log,
	}, nil
}

// Client exposes the underlying *ssh.Client so SSHProxyJump can tunnel the
// next hop's TCP connection through this one via client.Dial.
func (s *SSH) Client() *ssh.Client { return s.client }

func (s *SSH) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := s.stdin.Write([]byte(text))
	return err
}

func (s *SSH) Recv(wait time.Duration) (string, Status, error) {
	data, err, got := s.reader.recv(wait)
	if err != nil {
		s.log.Debug("ssh recv error", "err", err)
		return data, StatusClosed, err
	}
	if !got {
		return "", StatusNotReady, nil
	}
	return data, StatusOK, nil
}

func (s *SSH) ResizePTY(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.session.WindowChange(rows, cols)
}

// SetKeepalive starts a ticker that sends an SSH keepalive@openssh.com
// global request at the given interval, stopping when the channel closes.
func (s *SSH) SetKeepalive(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if interval <= 0 {
		return nil
	}
	client := s.client
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				return
			}
		}
	}()
	return nil
}

func (s *SSH) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *SSH) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.reader.stop()
	_ = s.session.Close()
	logDebugf("ssh: closed")
	return s.client.Close()
}

var _ Channel = (*SSH)(nil)
