package filetransfer

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeTerminal is a tiny scripted double for filetransfer.Terminal: it
// drives the osadapter command strings through an in-memory filesystem
// model rather than a real shell, so the fallback encode/decode/verify
// logic can be exercised without a transport.
type fakeTerminal struct {
	os *osadapter.Adapter

	remote map[string][]byte
	lastOp string
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{
		os:     osadapter.Builtins()["linux"],
		remote: map[string][]byte{},
	}
}

func (f *fakeTerminal) SendCmd(text string, flush, hidden bool) error {
	f.lastOp = text
	switch {
	case strings.HasPrefix(text, "cat > "):
		rest := strings.TrimPrefix(text, "cat > ")
		parts := strings.SplitN(rest, " << ", 2)
		path := strings.Trim(parts[0], `"`)
		body := parts[1]
		lines := strings.SplitN(body, "\n", 2)
		inner := strings.SplitN(lines[1], "\n", 2)[0]
		f.remote[path] = []byte(inner)
	case strings.HasPrefix(text, "base64 -d "):
		var src, dst string
		fmt.Sscanf(text, "base64 -d %q > %q", &src, &dst)
		decoded, _ := base64.StdEncoding.DecodeString(string(f.remote[src]))
		f.remote[dst] = decoded
	case strings.HasPrefix(text, "rm -f "):
		var p string
		fmt.Sscanf(text, "rm -f %q", &p)
		delete(f.remote, p)
	case strings.HasPrefix(text, "mv -f "):
		var src, dst string
		fmt.Sscanf(text, "mv -f %q %q", &src, &dst)
		f.remote[dst] = f.remote[src]
		delete(f.remote, src)
	}
	return nil
}

func (f *fakeTerminal) RunCapture(cmd string, timeout time.Duration) (string, error) {
	switch {
	case strings.HasPrefix(cmd, "md5sum "):
		var p string
		fmt.Sscanf(cmd, "md5sum %q", &p)
		sum := md5.Sum(f.remote[p])
		return hex.EncodeToString(sum[:]) + "  " + p, nil
	case strings.HasPrefix(cmd, "ls -l "):
		var p string
		fmt.Sscanf(cmd, "ls -l %q", &p)
		return fmt.Sprintf("-rw-r--r-- 1 root root %d Jan  1 00:00 %s", len(f.remote[p]), p), nil
	case strings.HasPrefix(cmd, "base64 "):
		var p string
		fmt.Sscanf(cmd, "base64 %q", &p)
		return base64.StdEncoding.EncodeToString(f.remote[p]), nil
	case strings.HasPrefix(cmd, "cat "):
		p := strings.TrimPrefix(cmd, "cat ")
		return string(f.remote[strings.Trim(p, `"`)]), nil
	}
	return "", nil
}

func (f *fakeTerminal) Await(timeout time.Duration) error { return nil }

func (f *fakeTerminal) Capture(timeout time.Duration) (string, error) {
	return f.RunCapture(f.lastOp, timeout)
}

func (f *fakeTerminal) FlushRecv(forceCtrlC bool, timeout time.Duration) error { return nil }

func (f *fakeTerminal) OSAdapter() *osadapter.Adapter { return f.os }

func (f *fakeTerminal) Depth() int { return 2 }

func (f *fakeTerminal) SSHClient() (*ssh.Client, bool) { return nil, false }

func TestPutFallbackRoundTripsWithMD5Verification(t *testing.T) {
	ft := newFakeTerminal()
	raw := []byte("hello from the far end\n")

	dir := t.TempDir()
	local := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(local, raw, 0o644))

	info, err := Put(ft, local, "/tmp/dst.txt", PutOptions{CheckMD5: true, Replace: true})
	require.NoError(t, err)
	require.Equal(t, "/tmp/dst.txt", info.Path)
	require.Equal(t, raw, ft.remote["/tmp/dst.txt"])
}

// corruptingTerminal wraps a fakeTerminal but always reports a bogus md5sum,
// exercising Put's mismatch-and-remove branch.
type corruptingTerminal struct {
	*fakeTerminal
}

func (c *corruptingTerminal) RunCapture(cmd string, timeout time.Duration) (string, error) {
	if strings.HasPrefix(cmd, "md5sum ") {
		return "0000000000000000000000000000000000000000  bogus", nil
	}
	return c.fakeTerminal.RunCapture(cmd, timeout)
}

func TestPutFallbackDetectsMD5MismatchAndRemoves(t *testing.T) {
	ft := &corruptingTerminal{newFakeTerminal()}
	dir := t.TempDir()
	local := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(local, []byte("original"), 0o644))

	_, err := Put(ft, local, "/tmp/x.txt", PutOptions{CheckMD5: true, RemoveIfBadMD5: true})
	require.Error(t, err)
	_, stillThere := ft.remote["/tmp/x.txt.tmp"]
	require.False(t, stillThere)
}

func TestGetFallbackDecodesBase64Lines(t *testing.T) {
	ft := newFakeTerminal()
	ft.remote["/etc/hosts"] = []byte("127.0.0.1 localhost\n")

	dir := t.TempDir()
	local := filepath.Join(dir, "hosts.local")

	err := Get(ft, "/etc/hosts", local, GetOptions{Replace: true, CheckMD5: true})
	require.NoError(t, err)

	got, err := os.ReadFile(local)
	require.NoError(t, err)
	require.Equal(t, ft.remote["/etc/hosts"], got)
}

func TestResolveLocalDestAppendsSuffixWhenNotReplacing(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	got := resolveLocalDest(existing, false)
	require.Equal(t, filepath.Join(dir, "file.1.txt"), got)
}

func TestDecodeBase64LinesSkipsNonBase64Noise(t *testing.T) {
	var sb strings.Builder
	payload := base64.StdEncoding.EncodeToString([]byte("payload"))
	err := decodeBase64Lines("base64 /etc/hosts\n"+payload+"\n$ ", &sb)
	require.NoError(t, err)
	require.Equal(t, "payload", sb.String())
}
