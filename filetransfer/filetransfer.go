// Package filetransfer implements FileTransferFallback: moving files to and
// from the far end of a TerminalCore session, preferring a native transfer
// protocol and falling back to streaming the bytes through the interactive
// terminal itself when nothing native is reachable (§4.9).
package filetransfer

import (
	"time"

	"github.com/mxterm/mxterm/internal/osadapter"
	"golang.org/x/crypto/ssh"
)

// Terminal is the narrow surface filetransfer needs from a TerminalCore,
// kept structural (rather than importing the terminal package) so the two
// packages don't form an import cycle: terminal.Core wires PutFile/GetFile
// on top of these primitives.
type Terminal interface {
	// SendCmd sends text, optionally flushing pending output from a prior
	// command first, and optionally marking it hidden in the transcript.
	SendCmd(text string, flush, hidden bool) error

	// RunCapture sends cmd and returns everything received up to (not
	// including) the next prompt, within timeout.
	RunCapture(cmd string, timeout time.Duration) (string, error)

	// Await waits for the next prompt without sending anything, for use
	// after a SendCmd whose output doesn't need capturing.
	Await(timeout time.Duration) error

	// Capture waits for the next prompt, as Await does, but returns
	// everything received since the last SendCmd (echo and trailing
	// prompt stripped) — used after a SendCmd whose output matters.
	Capture(timeout time.Duration) (string, error)

	// FlushRecv discards whatever output is currently pending.
	FlushRecv(forceCtrlC bool, timeout time.Duration) error

	// OSAdapter reports the shell-command bundle for the currently active
	// hop, or nil if no hop is logged in.
	OSAdapter() *osadapter.Adapter

	// Depth reports how many hops are currently logged in.
	Depth() int

	// SSHClient returns the underlying *ssh.Client when the active
	// transport is a single, unwrapped SSH connection (Depth() == 1 and
	// the base channel is SSH) — the only configuration in which a native
	// SFTP/SCP sub-channel can be opened alongside the interactive shell.
	SSHClient() (*ssh.Client, bool)
}

// PutOptions configures a Put call (§4.9).
type PutOptions struct {
	// CheckMD5 verifies the remote file's md5sum against the local file's
	// after a terminal-streamed transfer. Native SFTP/SCP uploads are not
	// checked.
	CheckMD5 bool

	// RemoveIfBadMD5 deletes the partially-written remote file on an MD5
	// mismatch rather than leaving it in place for inspection.
	RemoveIfBadMD5 bool

	// Replace renames the ".tmp" staging file over the final destination
	// on success. When false, the staged file is left at remote+".tmp".
	// Native SFTP/SCP uploads write remote directly and ignore it.
	Replace bool

	Timeout time.Duration
}

// GetOptions configures a Get call (§4.9).
type GetOptions struct {
	// Replace allows overwriting an existing local destination. When
	// false and the destination exists, an increasing numeric suffix is
	// appended instead.
	Replace bool

	CheckMD5 bool

	Timeout time.Duration
}

// FileInfo reports the remote file's attributes after a transfer, parsed
// from the OS adapter's ListFile output.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime string
}

func timeoutOrDefault(t time.Duration) time.Duration {
	if t <= 0 {
		return 30 * time.Second
	}
	return t
}
