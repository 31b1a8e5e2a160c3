package osadapter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// yamlAdapter is the on-disk shape of an OSAdapter override/addition. Only
// the fields the core actually consumes (§6) are exposed; the config
// *mechanism* (plain YAML unmarshal) is in scope, variable substitution and
// `bases` includes are not (spec.md §1 Non-goals: configuration loading is
// an external collaborator).
type yamlAdapter struct {
	Name                 string `yaml:"name"`
	ExpectedPromptRegex  string `yaml:"expected_prompt_regex"`
	DefaultPrompt        string `yaml:"default_prompt"`
	UniquePromptTemplate string `yaml:"unique_prompt_template"`
	SSHApp               string `yaml:"ssh_app"`
	TelnetApp            string `yaml:"telnet_app"`
	ShellApp             string `yaml:"shell_app"`
	CanChangePrompt      bool   `yaml:"can_change_prompt"`
	CanResizePty         bool   `yaml:"can_resize_pty"`
	CanDisableHistory    bool   `yaml:"can_disable_history"`
	ResetPromptOnExit    bool   `yaml:"reset_prompt_on_exit"`
	HasBase64            bool   `yaml:"has_base64"`
}

type yamlDocument struct {
	Adapters []yamlAdapter `yaml:"adapters"`
}

// Load reads a YAML document of adapter overrides/additions and merges them
// into the builtin set, returning the combined map keyed by name.
func Load(r io.Reader) (map[string]*Adapter, error) {
	adapters := Builtins()

	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return adapters, nil
		}
		return nil, err
	}

	for _, ya := range doc.Adapters {
		adapters[ya.Name] = &Adapter{
			Name:                 ya.Name,
			ExpectedPromptRegex:  ya.ExpectedPromptRegex,
			DefaultPrompt:        ya.DefaultPrompt,
			UniquePromptTemplate: ya.UniquePromptTemplate,
			SSHApp:               ya.SSHApp,
			TelnetApp:            ya.TelnetApp,
			ShellApp:             ya.ShellApp,
			CanChangePrompt:      ya.CanChangePrompt,
			CanResizePty:         ya.CanResizePty,
			CanDisableHistory:    ya.CanDisableHistory,
			ResetPromptOnExit:    ya.ResetPromptOnExit,
			HasBase64:            ya.HasBase64,
		}
	}
	return adapters, nil
}
