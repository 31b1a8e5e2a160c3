package connection

import (
	"testing"

	"github.com/mxterm/mxterm/internal/osadapter"
)

func TestExpandedPromptSubstitutesUsername(t *testing.T) {
	s := &Spec{User: "alice", ExpectedPromptRegex: `{username}@.+?:~\$ `}
	if got, want := s.ExpandedPrompt(), `alice@.+?:~\$ `; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpawnCommandSSH(t *testing.T) {
	s := &Spec{Proto: ProtoSSH, Host: "10.0.0.5", Port: 22, User: "alice"}
	want := "ssh -p 22 -l alice 10.0.0.5"
	if got := s.SpawnCommand(nil); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpawnCommandTelnet(t *testing.T) {
	s := &Spec{Proto: ProtoTelnet, Host: "10.0.0.5", Port: 23}
	want := "telnet 10.0.0.5 23"
	if got := s.SpawnCommand(nil); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpawnCommandUsesOSOverride(t *testing.T) {
	s := &Spec{Proto: ProtoSSH, Host: "h", Port: 22, User: "u"}
	ad := &osadapter.Adapter{SSHApp: "/usr/bin/ssh"}
	got := s.SpawnCommand(ad)
	if got != "/usr/bin/ssh -p 22 -l u h" {
		t.Errorf("got %q", got)
	}
}
