package osadapter

// Builtins returns the OSAdapter bundles shipped with the engine, keyed by
// name, for the device families spec.md §1 names: Linux/Unix, Windows,
// BusyBox, Cisco IOS, Alcatel, iLO, Dell DRAC.
func Builtins() map[string]*Adapter {
	return map[string]*Adapter{
		"linux": {
			Name:                 "linux",
			UniquePromptTemplate: uniquePromptTemplate,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			ShellApp:             "/bin/bash",
			CanChangePrompt:      true,
			CanResizePty:         true,
			CanDisableHistory:    true,
			HasBase64:            true,
		},
		"unix": {
			Name:                 "unix",
			UniquePromptTemplate: uniquePromptTemplate,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			ShellApp:             "/bin/sh",
			CanChangePrompt:      true,
			CanResizePty:         true,
			CanDisableHistory:    true,
			HasBase64:            true,
		},
		"busybox": {
			Name:                 "busybox",
			UniquePromptTemplate: uniquePromptTemplate,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			ShellApp:             "/bin/sh",
			CanChangePrompt:      true,
			CanResizePty:         false,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
		"windows": {
			Name:                 "windows",
			UniquePromptTemplate: uniquePromptTemplate,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			ShellApp:             "cmd.exe",
			CanChangePrompt:      true,
			CanResizePty:         false,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
		"cisco_ios": {
			Name:                 "cisco_ios",
			UniquePromptTemplate: uniquePromptTemplate,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			CanChangePrompt:      true,
			CanResizePty:         true,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
		"alcatel": {
			Name:                 "alcatel",
			UniquePromptTemplate: "@@fidozqkyPROMPT@@",
			DefaultPrompt:        "-> ",
			ResetPromptOnExit:    true,
			SSHApp:               "ssh",
			TelnetApp:            "telnet",
			CanChangePrompt:      true,
			CanResizePty:         true,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
		"ilo": {
			Name:                 "ilo",
			ExpectedPromptRegex:  `</>hpiLO-> `,
			SSHApp:               "ssh",
			CanChangePrompt:      false,
			CanResizePty:         false,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
		"dell_drac": {
			Name:                 "dell_drac",
			ExpectedPromptRegex:  `racadm> `,
			SSHApp:               "ssh",
			CanChangePrompt:      false,
			CanResizePty:         false,
			CanDisableHistory:    false,
			HasBase64:            false,
		},
	}
}

const uniquePromptTemplate = "@@%s@PWN@# "
