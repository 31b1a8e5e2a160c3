// Package transcript implements DataExchange: the append-only, timestamped
// record of every send/receive pair a TerminalCore performs, with optional
// live streaming and hidden-payload redaction.
package transcript

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Meta carries auxiliary information about one sent item.
type Meta struct {
	Timestamp time.Time
	Hidden    bool
}

const redacted = "PROTECTED/HIDDEN DATA"

// Exchange is the append-only transcript for one TerminalCore session.
//
// Invariant: len(sent) == len(sentMeta) == len(received) after every public
// call.
type Exchange struct {
	mu       sync.Mutex
	sent     []string
	sentMeta []Meta
	received []strings.Builder

	Stream            io.Writer
	RemoveEmptyOnStream bool
}

// New returns an empty Exchange.
func New() *Exchange {
	return &Exchange{}
}

// AppendSend records a newly sent item and opens its received accumulator.
func (e *Exchange) AppendSend(text string, hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored := text
	if hidden {
		stored = redacted
	}
	e.sent = append(e.sent, stored)
	e.sentMeta = append(e.sentMeta, Meta{Timestamp: time.Now(), Hidden: hidden})
	e.received = append(e.received, strings.Builder{})

	e.tee(text, hidden)
}

// AppendReceived appends chunk to the accumulator for the most recent send.
func (e *Exchange) AppendReceived(chunk string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.received) == 0 {
		// no send has happened yet (e.g. banner capture before login);
		// open an implicit slot so the invariant holds once a send occurs.
		e.sent = append(e.sent, "")
		e.sentMeta = append(e.sentMeta, Meta{Timestamp: time.Now()})
		e.received = append(e.received, strings.Builder{})
	}
	idx := len(e.received) - 1
	e.received[idx].WriteString(chunk)

	hidden := e.sentMeta[idx].Hidden
	e.tee(chunk, hidden)
}

// tee writes text to the stream sink, honoring RemoveEmptyOnStream and
// redaction. Caller must hold mu.
func (e *Exchange) tee(text string, hidden bool) {
	if e.Stream == nil {
		return
	}
	if e.RemoveEmptyOnStream && strings.TrimSpace(text) == "" {
		return
	}
	out := text
	if hidden {
		out = redacted
	}
	_, _ = io.WriteString(e.Stream, out)
}

// LastReceived returns the accumulator content for the most recent send.
func (e *Exchange) LastReceived() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.received) == 0 {
		return ""
	}
	return e.received[len(e.received)-1].String()
}

// LastSent returns the most recent sent text (redacted if hidden).
func (e *Exchange) LastSent() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sent) == 0 {
		return "", false
	}
	return e.sent[len(e.sent)-1], e.sentMeta[len(e.sentMeta)-1].Hidden
}

// Len returns the number of recorded sends, satisfying the DataExchange
// invariant that all three slices stay equal length.
func (e *Exchange) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

// Sent returns a copy of the sent-text log.
func (e *Exchange) Sent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.sent))
	copy(out, e.sent)
	return out
}
