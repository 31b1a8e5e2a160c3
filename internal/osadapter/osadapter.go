// Package osadapter implements the narrow OSAdapter contract the terminal
// core consumes (spec §6): prompt handling, spawn-command strings, and the
// shell-command primitives used for prompt control and file transfer.
package osadapter

import "fmt"

// Adapter bundles everything the core needs to know about the far end's
// shell, without knowing anything about how the device is reached.
type Adapter struct {
	Name string

	ExpectedPromptRegex string
	DefaultPrompt        string
	UniquePromptTemplate string

	SSHApp   string
	TelnetApp string
	ShellApp string

	CanChangePrompt   bool
	CanResizePty      bool
	CanDisableHistory bool
	ResetPromptOnExit bool

	HasBase64 bool
}

// SetPrompt returns the shell command that sets the prompt to text.
func (a *Adapter) SetPrompt(text string) string {
	switch a.Name {
	case "cisco", "cisco_ios":
		return "set prompt " + text
	case "alcatel":
		return "session prompt default  " + text
	default:
		return fmt.Sprintf("export PS1='%s'", text)
	}
}

// ResizePty returns the shell command that resizes the PTY via software
// (used when the transport itself cannot resize natively).
func (a *Adapter) ResizePty(cols, rows int) string {
	switch a.Name {
	case "cisco", "cisco_ios":
		return fmt.Sprintf("terminal length 0\nterminal width %d", cols)
	case "alcatel":
		c, r := clamp(cols, 0, 150), clamp(rows, 0, 150)
		return fmt.Sprintf("tty %d %d", r, c)
	default:
		return fmt.Sprintf("stty cols %d rows %d", cols, rows)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Exit returns the shell command that leaves this hop.
func (a *Adapter) Exit() string { return "exit" }

// DisableHistory returns the shell command that stops polluting remote
// history, or "" if the OS has no such mechanism.
func (a *Adapter) DisableHistory() string {
	if !a.CanDisableHistory {
		return ""
	}
	return "set +o history"
}

// Cat returns the shell command that prints filePath to stdout.
func (a *Adapter) Cat(filePath string) string {
	cat := "cat"
	switch a.Name {
	case "cisco", "cisco_ios", "alcatel":
		cat = "type"
	}
	return cat + " " + filePath
}

// CatToFile returns the shell command that writes message to filePath via a
// heredoc (used by the text-mode file-transfer fallback).
func (a *Adapter) CatToFile(filePath, message string) string {
	const delim = "$$$FILE_DELIMITER_MXTERM$$$"
	return fmt.Sprintf("cat > %s << %s\n%s\n%s", filePath, delim, message, delim)
}

// Base64 returns the shell command that base64-encodes filePath to stdout.
func (a *Adapter) Base64(filePath string) string {
	return fmt.Sprintf("base64 %q", filePath)
}

// Base64DecodeToFile returns the shell command that decodes base64File into
// decodedFile.
func (a *Adapter) Base64DecodeToFile(base64File, decodedFile string) string {
	return fmt.Sprintf("base64 -d %q > %q", base64File, decodedFile)
}

// Remove returns the shell command that deletes filePath.
func (a *Adapter) Remove(filePath string) string {
	return fmt.Sprintf("rm -f %q", filePath)
}

// Move returns the shell command that renames src to dst, optionally
// overwriting.
func (a *Adapter) Move(src, dst string, overwrite bool) string {
	if overwrite {
		return fmt.Sprintf("mv -f %q %q", src, dst)
	}
	return fmt.Sprintf("mv -n %q %q", src, dst)
}

// MD5Checksum returns the shell command that prints an md5 checksum line
// for filePath.
func (a *Adapter) MD5Checksum(filePath string) string {
	switch a.Name {
	case "cisco", "cisco_ios":
		return "verify /md5 " + filePath
	default:
		return fmt.Sprintf("md5sum %q", filePath)
	}
}

// ListFile returns the shell command that lists filePath with size/mtime.
func (a *Adapter) ListFile(filePath string) string {
	return fmt.Sprintf("ls -l %q", filePath)
}
