package osadapter

import (
	"strings"
	"testing"
)

func TestBuiltinsCoverSpecDevices(t *testing.T) {
	want := []string{"linux", "unix", "busybox", "windows", "cisco_ios", "alcatel", "ilo", "dell_drac"}
	got := Builtins()
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Errorf("missing builtin adapter %q", name)
		}
	}
}

func TestUniquePromptMatchesRegex(t *testing.T) {
	a := Builtins()["linux"]
	p := a.UniquePrompt()
	if !UniquePromptRegex.MatchString(p) {
		t.Errorf("generated prompt %q does not match UniquePromptRegex", p)
	}
}

func TestUniquePromptIsTenLowercaseChars(t *testing.T) {
	a := Builtins()["linux"]
	p := a.UniquePrompt()
	body := strings.TrimSuffix(strings.TrimPrefix(p, "@@"), "@PWN# ")
	// body should be exactly 10 chars between '@@' and '@PWN@#'
	start := strings.Index(p, "@@") + 2
	end := strings.Index(p, "@PWN@#")
	if start < 2 || end < 0 {
		t.Fatalf("unexpected prompt shape: %q", p)
	}
	rand := p[start:end]
	if len(rand) != 10 {
		t.Errorf("expected 10-char random body, got %q (%d)", rand, len(rand))
	}
	for _, c := range rand {
		if c < 'a' || c > 'z' {
			t.Errorf("expected lowercase body, got %q", rand)
		}
	}
	_ = body
}

func TestCiscoSetPrompt(t *testing.T) {
	a := Builtins()["cisco_ios"]
	if got := a.SetPrompt("newprompt"); got != "set prompt newprompt" {
		t.Errorf("got %q", got)
	}
}

func TestLinuxSetPrompt(t *testing.T) {
	a := Builtins()["linux"]
	if got := a.SetPrompt("p$ "); !strings.HasPrefix(got, "export PS1=") {
		t.Errorf("got %q", got)
	}
}

func TestAlcatelResizeClamped(t *testing.T) {
	a := Builtins()["alcatel"]
	got := a.ResizePty(500, 500)
	if got != "tty 150 150" {
		t.Errorf("expected clamp to 150, got %q", got)
	}
}
