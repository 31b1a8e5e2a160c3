package filetransfer

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mxterm/mxterm/internal/xerrors"
)

// Put transfers local to remote. It uses native SFTP, then native SCP, when
// the active transport is a single-hop SSH connection, and otherwise routes
// the bytes through the interactive terminal (§10.3, §4.9).
func Put(t Terminal, local, remote string, opts PutOptions) (*FileInfo, error) {
	opts.Timeout = timeoutOrDefault(opts.Timeout)

	if client, ok := t.SSHClient(); ok {
		if err := putNativeSFTP(client, local, remote); err == nil {
			return statRemote(t, remote, opts.Timeout)
		} else if scpErr := putNativeSCP(client, local, remote); scpErr == nil {
			return statRemote(t, remote, opts.Timeout)
		}
	}
	return putFallback(t, local, remote, opts)
}

// Get transfers remote to local. On a single-hop SSH connection it tries
// native SFTP (there is no SCP download path); otherwise, or if SFTP fails,
// it routes the bytes through the interactive terminal.
func Get(t Terminal, remote, local string, opts GetOptions) error {
	opts.Timeout = timeoutOrDefault(opts.Timeout)
	local = resolveLocalDest(local, opts.Replace)

	if client, ok := t.SSHClient(); ok {
		if err := getNativeSFTP(client, remote, local); err == nil {
			return verifyGetMD5(t, remote, local, opts)
		}
	}
	return getFallback(t, remote, local, opts)
}

func putFallback(t Terminal, local, remote string, opts PutOptions) (*FileInfo, error) {
	os_ := t.OSAdapter()
	if os_ == nil {
		return nil, &xerrors.FileTransferError{Path: remote, Err: fmt.Errorf("no active hop to transfer through")}
	}

	raw, err := os.ReadFile(local)
	if err != nil {
		return nil, &xerrors.FileTransferError{Path: local, Err: err}
	}

	tmp := remote + ".tmp"
	if os_.HasBase64 {
		b64 := remote + ".b64"
		encoded := base64.StdEncoding.EncodeToString(raw)

		if err := t.SendCmd(os_.CatToFile(b64, encoded), true, false); err != nil {
			return nil, err
		}
		if err := t.Await(opts.Timeout); err != nil {
			return nil, err
		}
		if err := t.SendCmd(os_.Base64DecodeToFile(b64, tmp), true, false); err != nil {
			return nil, err
		}
		if err := t.Await(opts.Timeout); err != nil {
			return nil, err
		}
		if err := t.SendCmd(os_.Remove(b64), true, false); err != nil {
			return nil, err
		}
		if err := t.Await(opts.Timeout); err != nil {
			return nil, err
		}
	} else {
		// Text-mode fallback: only reliable for 7-bit-safe contents.
		if err := t.SendCmd(os_.CatToFile(tmp, string(raw)), true, false); err != nil {
			return nil, err
		}
		if err := t.Await(opts.Timeout); err != nil {
			return nil, err
		}
	}

	final := tmp
	if opts.CheckMD5 {
		localSum := md5.Sum(raw)
		localHex := hex.EncodeToString(localSum[:])
		out, err := t.RunCapture(os_.MD5Checksum(tmp), opts.Timeout)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(out, localHex) {
			if opts.RemoveIfBadMD5 {
				_ = t.SendCmd(os_.Remove(tmp), true, false)
				_ = t.Await(opts.Timeout)
			}
			return nil, &xerrors.FileTransferError{Path: remote, Err: fmt.Errorf("md5 mismatch: local %s not found in remote checksum output %q", localHex, out)}
		}
	}

	if opts.Replace {
		if err := t.SendCmd(os_.Move(tmp, remote, true), true, false); err != nil {
			return nil, err
		}
		if err := t.Await(opts.Timeout); err != nil {
			return nil, err
		}
		final = remote
	}

	return statRemote(t, final, opts.Timeout)
}

func getFallback(t Terminal, remote, local string, opts GetOptions) error {
	os_ := t.OSAdapter()
	if os_ == nil {
		return &xerrors.FileTransferError{Path: remote, Err: fmt.Errorf("no active hop to transfer through")}
	}

	fout, err := os.Create(local)
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	defer fout.Close()

	if os_.HasBase64 {
		if err := t.SendCmd(os_.Base64(remote), true, false); err != nil {
			return err
		}
		raw, err := t.Capture(opts.Timeout)
		if err != nil {
			return err
		}
		if err := decodeBase64Lines(raw, fout); err != nil {
			return &xerrors.FileTransferError{Path: remote, Err: err}
		}
	} else {
		if err := t.SendCmd(os_.Cat(remote), true, false); err != nil {
			return err
		}
		raw, err := t.Capture(opts.Timeout)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fout, raw); err != nil {
			return &xerrors.FileTransferError{Path: remote, Err: err}
		}
	}

	return verifyGetMD5(t, remote, local, GetOptions{CheckMD5: opts.CheckMD5, Timeout: opts.Timeout})
}

// decodeBase64Lines implements the line-buffered decoder sink of §4.9's Get
// path: it accumulates characters per line and decodes each completed line
// independently, so stray carriage returns or PTY echo noise on one line
// never corrupt the rest of the stream.
func decodeBase64Lines(raw string, w io.Writer) error {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunk, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			// Not a base64 line (command echo, shell noise) — skip it
			// rather than failing the whole transfer.
			continue
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func verifyGetMD5(t Terminal, remote, local string, opts GetOptions) error {
	if !opts.CheckMD5 {
		return nil
	}
	os_ := t.OSAdapter()
	if os_ == nil {
		return nil
	}
	localRaw, err := os.ReadFile(local)
	if err != nil {
		return &xerrors.FileTransferError{Path: local, Err: err}
	}
	localSum := md5.Sum(localRaw)
	localHex := hex.EncodeToString(localSum[:])

	out, err := t.RunCapture(os_.MD5Checksum(remote), opts.Timeout)
	if err != nil {
		return err
	}
	if !strings.Contains(out, localHex) {
		_ = os.Remove(local)
		return &xerrors.FileTransferError{Path: remote, Err: fmt.Errorf("md5 mismatch: local %s not found in remote checksum output %q", localHex, out)}
	}
	return nil
}

// resolveLocalDest appends an increasing numeric suffix to local when it
// already exists and replace is false.
func resolveLocalDest(local string, replace bool) string {
	if replace {
		return local
	}
	if _, err := os.Stat(local); os.IsNotExist(err) {
		return local
	}
	ext := filepath.Ext(local)
	base := strings.TrimSuffix(local, ext)
	for i := 1; ; i++ {
		candidate := base + "." + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// statRemote runs the OS adapter's ListFile command and parses out a size,
// tolerating any `ls -l`-shaped output.
func statRemote(t Terminal, path string, timeout time.Duration) (*FileInfo, error) {
	os_ := t.OSAdapter()
	if os_ == nil {
		return &FileInfo{Path: path}, nil
	}
	out, err := t.RunCapture(os_.ListFile(path), timeout)
	if err != nil {
		return nil, err
	}
	info := &FileInfo{Path: path}
	fields := strings.Fields(out)
	// A standard `ls -l` line is "perms links owner group size month day
	// time name" — the size sits at a fixed offset. Anything shorter (e.g.
	// a Cisco "verify" banner) falls back to the first plausible integer.
	if len(fields) >= 5 {
		if n, err := strconv.ParseInt(fields[4], 10, 64); err == nil {
			info.Size = n
		}
	}
	if info.Size == 0 {
		for _, f := range fields {
			if n, convErr := strconv.ParseInt(f, 10, 64); convErr == nil && n > 0 {
				info.Size = n
				break
			}
		}
	}
	if idx := strings.Index(out, path); idx >= 0 {
		before := out[:idx]
		parts := strings.Fields(before)
		if len(parts) >= 3 {
			info.ModTime = strings.Join(parts[len(parts)-3:], " ")
		}
	}
	return info, nil
}
