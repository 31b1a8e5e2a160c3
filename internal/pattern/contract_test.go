package pattern

import (
	"regexp"
	"testing"
)

func TestContractAnyMatch(t *testing.T) {
	c := New("dir")
	v, err := NewString("home", WithName("home"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add(v); err != nil {
		t.Fatal(err)
	}

	if c.Scan("some home directory", "\\$ ") != true {
		t.Fatal("expected a match")
	}
	if !c.OK || !c.AnyMatched {
		t.Errorf("expected ok/anyMatched true, got ok=%v any=%v", c.OK, c.AnyMatched)
	}
	if v.Match == nil || v.Match.Text != "home" {
		t.Errorf("expected value.Match to record 'home', got %+v", v.Match)
	}
}

func TestContractDuplicateNameRejected(t *testing.T) {
	c := New("")
	a, _ := NewString("a", WithName("dup"))
	b, _ := NewString("b", WithName("dup"))
	if err := c.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(b); err == nil {
		t.Fatal("expected NameConflict error")
	}
}

func TestContractAllRequiredInSequence(t *testing.T) {
	c := New("")
	c.AllRequired = true
	c.InSequence = true
	c.ContinueAfterMatch = true

	first, _ := NewString("first")
	second, _ := NewString("second")
	c.Add(first)
	c.Add(second)

	if c.Scan("first then second", "") {
		// single scan should already see both since ContinueAfterMatch keeps scanning
	}
	if !c.AllMatched {
		t.Fatalf("expected all matched, got matchedIndices=%v", c.MatchedIndices)
	}
	if !c.AllMatchedInSequence {
		t.Errorf("expected in-sequence match, indices=%v", c.MatchedIndices)
	}
	if !c.OK {
		t.Error("expected OK true")
	}
}

func TestContractOutOfSequenceFails(t *testing.T) {
	c := New("")
	c.AllRequired = true
	c.InSequence = true
	c.ContinueAfterMatch = true

	first, _ := NewString("first")
	second, _ := NewString("second")
	c.Add(second)
	c.Add(first)

	c.Scan("first then second", "")
	if c.AllMatchedInSequence {
		t.Error("expected sequence mismatch to fail")
	}
	if c.OK {
		t.Error("expected OK false when not in sequence")
	}
}

func TestContractPromptValue(t *testing.T) {
	c := New("")
	p := NewPrompt()
	c.Add(p)

	if !c.Scan("root@host:~$ ", `root@host:~\$`) {
		t.Fatal("expected prompt match")
	}
	if p.Match == nil {
		t.Error("expected prompt value to record a match")
	}
}

func TestContractStripPromptBeforeMatch(t *testing.T) {
	c := New("")
	v := NewRegex(regexp.MustCompile(`\$`), WithName("dollar"))
	c.Add(v)

	// the only '$' in the buffer is part of the trailing prompt; stripping
	// it before comparison should leave no match for 'dollar'.
	c.Scan("no dollar here\nroot@host:~$ ", `root@host:~\$`)
	if v.Match != nil {
		t.Error("expected prompt to be stripped before matching 'dollar'")
	}
}
