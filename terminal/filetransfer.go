package terminal

import (
	"strings"
	"time"

	"github.com/mxterm/mxterm/filetransfer"
	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/osadapter"
	"golang.org/x/crypto/ssh"
)

var _ filetransfer.Terminal = (*Core)(nil)

// PutFile uploads local to remote, preferring native SFTP/SCP when the
// active transport allows it and otherwise streaming through the
// interactive shell (§4.9, §10.3).
func (c *Core) PutFile(local, remote string, opts filetransfer.PutOptions) (*filetransfer.FileInfo, error) {
	return filetransfer.Put(c, local, remote, opts)
}

// GetFile downloads remote to local, trying native SFTP (not SCP) when the
// active transport allows it and otherwise streaming through the shell.
func (c *Core) GetFile(remote, local string, opts filetransfer.GetOptions) error {
	return filetransfer.Get(c, remote, local, opts)
}

// RunCapture sends cmd and returns its output up to the next prompt; it
// satisfies filetransfer.Terminal on top of CheckOutput.
func (c *Core) RunCapture(cmd string, timeout time.Duration) (string, error) {
	return c.CheckOutput(cmd, CheckOutputOptions{Timeout: timeout})
}

// Await waits for the next prompt without sending anything.
func (c *Core) Await(timeout time.Duration) error {
	return c.expectPrompt(timeout)
}

// Capture waits for the next prompt, as Await does, and returns everything
// received since the last SendCmd with the echoed command and trailing
// prompt stripped.
func (c *Core) Capture(timeout time.Duration) (string, error) {
	if err := c.expectPrompt(timeout); err != nil {
		return "", err
	}
	out := c.data.LastReceived()
	out = strings.TrimPrefix(out, c.lastCmdSent+"\r\n")
	out = strings.TrimPrefix(out, c.lastCmdSent+"\n")
	return trimTrailingPrompt(out, c.currentPrompt()), nil
}

// OSAdapter reports the shell-command bundle for the currently active hop.
func (c *Core) OSAdapter() *osadapter.Adapter {
	sl := c.currentShell()
	if sl == nil {
		return nil
	}
	return sl.os
}

// SSHClient returns the underlying *ssh.Client when the base transport is a
// single, unwrapped SSH connection — the only shape a native SFTP/SCP
// sub-channel can ride alongside the interactive shell.
func (c *Core) SSHClient() (*ssh.Client, bool) {
	if c.Depth() != 1 {
		return nil, false
	}
	sshCh, ok := c.transport.(*channel.SSH)
	if !ok {
		return nil, false
	}
	return sshCh.Client(), true
}
