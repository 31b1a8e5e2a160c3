package channel

import (
	"testing"
	"time"
)

type fakeChannel struct {
	sent    []string
	recvBuf string
	active  bool
}

func (f *fakeChannel) Send(text string) error {
	f.sent = append(f.sent, text)
	return nil
}
func (f *fakeChannel) Recv(time.Duration) (string, Status, error) {
	out := f.recvBuf
	f.recvBuf = ""
	if out == "" {
		return "", StatusNotReady, nil
	}
	return out, StatusOK, nil
}
func (f *fakeChannel) ResizePTY(int, int) error        { return ErrNotSupported }
func (f *fakeChannel) SetKeepalive(time.Duration) error { return nil }
func (f *fakeChannel) IsActive() bool                   { return f.active }
func (f *fakeChannel) Close() error                     { return nil }

func TestParentSendsSpawnCommandOnce(t *testing.T) {
	fc := &fakeChannel{active: true}
	p := NewParent(fc, "ssh nexthop", nil)

	if err := p.Send("whoami\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Send("ls\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fc.sent) != 3 {
		t.Fatalf("expected spawn + 2 sends, got %v", fc.sent)
	}
	if fc.sent[0] != "ssh nexthop\n" {
		t.Fatalf("expected spawn command first, got %q", fc.sent[0])
	}
}

func TestParentCloseDoesNotCloseUnderlying(t *testing.T) {
	fc := &fakeChannel{active: true}
	p := NewParent(fc, "", nil)
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fc.active {
		t.Fatal("parent Close must not affect underlying channel state")
	}
}
