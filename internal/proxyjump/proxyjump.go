// Package proxyjump implements SSHProxyJump: chaining ssh.Client.Dial calls
// so each hop's TCP stream tunnels through the previous hop's connection
// instead of spawning a "ssh -J" subprocess (§7).
package proxyjump

import (
	"fmt"
	"log/slog"

	xssh "golang.org/x/crypto/ssh"

	"github.com/mxterm/mxterm/internal/channel"
)

// Hop describes one link in the jump chain.
type Hop struct {
	Host string
	Port int
	User string
	Auth channel.SSHAuth

	KnownHostsPath string
}

// Dial opens every hop in order, tunnelling each hop's TCP connection
// through the previous hop's *ssh.Client via ssh.Client.Dial. Only the
// final hop gets an interactive PTY shell; intermediate hops exist purely
// to carry the next hop's traffic, so they get a bare authenticated client.
// Closing the returned channel closes the deepest client, which cascades
// down through every Dial'd conn the earlier hops opened underneath it.
func Dial(hops []Hop, log *slog.Logger) (*channel.SSH, error) {
	if len(hops) == 0 {
		return nil, fmt.Errorf("proxyjump: no hops given")
	}
	if log == nil {
		log = slog.Default()
	}

	var clients []*xssh.Client
	closeAll := func() {
		for i := len(clients) - 1; i >= 0; i-- {
			clients[i].Close()
		}
	}

	for i, hop := range hops[:len(hops)-1] {
		opts := channel.SSHOptions{
			Host:           hop.Host,
			Port:           hop.Port,
			User:           hop.User,
			Auth:           hop.Auth,
			KnownHostsPath: hop.KnownHostsPath,
		}
		if len(clients) > 0 {
			opts.Dialer = clients[len(clients)-1].Dial
		}
		client, err := channel.DialSSHClient(opts, log)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("proxyjump: hop %d (%s): %w", i, hop.Host, err)
		}
		log.Debug("proxyjump: hop dialed", "index", i, "host", hop.Host)
		clients = append(clients, client)
	}

	final := hops[len(hops)-1]
	opts := channel.SSHOptions{
		Host:           final.Host,
		Port:           final.Port,
		User:           final.User,
		Auth:           final.Auth,
		KnownHostsPath: final.KnownHostsPath,
	}
	if len(clients) > 0 {
		opts.Dialer = clients[len(clients)-1].Dial
	}
	finalClient, err := channel.DialSSHClient(opts, log)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("proxyjump: final hop (%s): %w", final.Host, err)
	}
	sh, err := channel.NewSSHShell(finalClient, log)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("proxyjump: opening shell on final hop (%s): %w", final.Host, err)
	}
	log.Debug("proxyjump: final hop shell open", "host", final.Host)
	return sh, nil
}
