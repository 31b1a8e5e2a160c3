package transcript

import (
	"strings"
	"testing"
)

func TestInvariantLengthsStayEqual(t *testing.T) {
	e := New()
	e.AppendSend("ls", false)
	e.AppendReceived("file1\n")
	e.AppendSend("whoami", false)
	e.AppendReceived("root\n")

	if e.Len() != 2 {
		t.Fatalf("expected 2 sends, got %d", e.Len())
	}
	sent := e.Sent()
	if len(sent) != 2 || sent[0] != "ls" || sent[1] != "whoami" {
		t.Errorf("unexpected sent log: %v", sent)
	}
}

func TestHiddenSendRedacted(t *testing.T) {
	e := New()
	e.AppendSend("password=SECRET", true)
	sent := e.Sent()
	if strings.Contains(sent[0], "SECRET") {
		t.Error("hidden send should not retain plaintext")
	}
	if sent[0] != redacted {
		t.Errorf("expected redacted marker, got %q", sent[0])
	}
}

func TestStreamTee(t *testing.T) {
	var buf strings.Builder
	e := New()
	e.Stream = &buf
	e.AppendSend("ls\n", false)
	e.AppendReceived("file1\n")

	if !strings.Contains(buf.String(), "file1") {
		t.Errorf("expected streamed output to contain file1, got %q", buf.String())
	}
}

func TestStreamTeeRedactsHidden(t *testing.T) {
	var buf strings.Builder
	e := New()
	e.Stream = &buf
	e.AppendSend("password=SECRET\n", true)

	if strings.Contains(buf.String(), "SECRET") {
		t.Errorf("stream leaked hidden payload: %q", buf.String())
	}
}

func TestLastReceivedBeforeAnySend(t *testing.T) {
	e := New()
	e.AppendReceived("banner line\n")
	if e.LastReceived() != "banner line\n" {
		t.Errorf("got %q", e.LastReceived())
	}
	if e.Len() != 1 {
		t.Errorf("expected implicit send slot, got len %d", e.Len())
	}
}
