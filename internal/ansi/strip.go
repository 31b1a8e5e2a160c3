// Package ansi strips the terminal control sequences the engine does not
// try to render (spec §6: it targets text, not a full VT100 emulation).
package ansi

import "regexp"

// csiSequence matches CSI parameter/intermediate/final sequences of the
// shapes the spec calls out: cursor moves, SGR, mode toggles.
var csiSequence = regexp.MustCompile(`\x1b\[[\?>]?\d*(;\d+)*[@A-Za-z]`)

// setModeSequence matches `CSI =\d+h` (used by some BusyBox/Cisco shells to
// toggle screen modes).
var setModeSequence = regexp.MustCompile(`\x1b\[=\d+h`)

var bell = regexp.MustCompile("\x07")

// bareCR matches a run of carriage returns not followed by a newline; the
// character after the run (if any) is captured so it can be put back. A
// carriage return directly before "\n" is kept.
var bareCR = regexp.MustCompile("\r+([^\n]|$)")

// Strip removes ANSI escape sequences, bell characters, and bare carriage
// returns from s. It is idempotent: Strip(Strip(x)) == Strip(x).
func Strip(s string) string {
	s = csiSequence.ReplaceAllString(s, "")
	s = setModeSequence.ReplaceAllString(s, "")
	s = bell.ReplaceAllString(s, "")
	s = bareCR.ReplaceAllString(s, "$1")
	return s
}
