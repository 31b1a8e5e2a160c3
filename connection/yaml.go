package connection

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mxterm/mxterm/internal/osadapter"
	"gopkg.in/yaml.v3"
)

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// yamlAskResponse is the on-disk dictionary form of one AskResponse (§6):
// `{expect, response, name?, required?, hidden?, count?}`. expect == nil
// means "the prompt"; response == nil means "stop here".
type yamlAskResponse struct {
	Expect   *string `yaml:"expect"`
	Response *string `yaml:"response"`
	Name     string  `yaml:"name"`
	Required bool    `yaml:"required"`
	Hidden   bool    `yaml:"hidden"`
	Count    string  `yaml:"count"`
}

// yamlHop is the on-disk connection descriptor (§6): `{proto, host, port,
// user, key_filename, key_password, expected_prompt}`, plus the fields a
// complete session needs beyond the minimal descriptor (os name,
// ask/response list, password). A `tunnel` key is not read; hops are
// chained by their order in the connections list.
type yamlHop struct {
	Proto    string `yaml:"proto"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	KeyFilename string `yaml:"key_filename"`
	KeyPassword string `yaml:"key_password"`

	Cmd  string   `yaml:"cmd"`
	Args []string `yaml:"args"`

	OS                  string `yaml:"os"`
	ExpectedPrompt      string `yaml:"expected_prompt"`
	KnownHostsPath      string `yaml:"known_hosts_path"`
	EnableProxyJump     bool   `yaml:"enable_proxy_jump"`
	SkipPromptCheck     bool   `yaml:"skip_prompt_check"`
	Cols                int    `yaml:"cols"`
	Rows                int    `yaml:"rows"`
	ConnectTimeoutMS    int    `yaml:"connect_timeout_ms"`

	AskResponses []yamlAskResponse `yaml:"ask_responses"`
}

type yamlSession struct {
	Connections []yamlHop `yaml:"connections"`
}

// LoadSpecs reads an ordered list of connection descriptors from YAML,
// resolving each hop's OS name against adapters (typically
// osadapter.Builtins(), or osadapter.Load's merged result when the caller
// has its own adapter overrides).
func LoadSpecs(r io.Reader, adapters map[string]*osadapter.Adapter) ([]*Spec, error) {
	var doc yamlSession
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("connection: decoding session yaml: %w", err)
	}

	specs := make([]*Spec, 0, len(doc.Connections))
	for i, h := range doc.Connections {
		spec, err := h.toSpec(adapters)
		if err != nil {
			return nil, fmt.Errorf("connection: hop %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (h yamlHop) toSpec(adapters map[string]*osadapter.Adapter) (*Spec, error) {
	spec := &Spec{
		Proto:               Proto(h.Proto),
		Host:                h.Host,
		Port:                h.Port,
		User:                h.User,
		Password:            h.Password,
		KeyPath:             h.KeyFilename,
		KeyPassword:         h.KeyPassword,
		Cmd:                 h.Cmd,
		Args:                h.Args,
		ExpectedPromptRegex: h.ExpectedPrompt,
		KnownHostsPath:      h.KnownHostsPath,
		EnableProxyJump:     h.EnableProxyJump,
		SkipPromptCheck:     h.SkipPromptCheck,
		Cols:                h.Cols,
		Rows:                h.Rows,
	}
	if h.ConnectTimeoutMS > 0 {
		spec.ConnectTimeout = msDuration(h.ConnectTimeoutMS)
	}
	if h.OS != "" {
		ad, ok := adapters[h.OS]
		if !ok {
			return nil, fmt.Errorf("unknown os adapter %q", h.OS)
		}
		spec.OS = ad
		if spec.ExpectedPromptRegex == "" {
			spec.ExpectedPromptRegex = ad.ExpectedPromptRegex
		}
	}

	for i, ya := range h.AskResponses {
		ar, err := ya.toAskResponse(i)
		if err != nil {
			return nil, err
		}
		spec.AskResponses = append(spec.AskResponses, ar)
	}
	return spec, nil
}

func (ya yamlAskResponse) toAskResponse(i int) (AskResponse, error) {
	ar := AskResponse{
		Name:     ya.Name,
		Reply:    ya.Response,
		Required: ya.Required,
		Hidden:   ya.Hidden,
	}
	if ya.Expect != nil {
		re, err := regexp.Compile(*ya.Expect)
		if err != nil {
			return AskResponse{}, fmt.Errorf("ask_responses[%d]: %w", i, err)
		}
		ar.ExpectPattern = re
	}
	lo, hi, err := parseCount(ya.Count)
	if err != nil {
		return AskResponse{}, fmt.Errorf("ask_responses[%d]: %w", i, err)
	}
	ar.CountLo, ar.CountHi = lo, hi
	return ar, nil
}

// parseCount accepts "", "N", "lo,hi", or "N+" (meaning at least N, no
// upper bound) per §6's `count?: <int or "lo,hi" or "N+">`. An omitted
// count and an "N+" count both give hi == CountUnbounded; an explicit "0"
// gives hi == 0, which retires the step unconditionally.
func parseCount(s string) (lo, hi int, err error) {
	if s == "" {
		return 0, CountUnbounded, nil
	}
	if strings.HasSuffix(s, "+") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err != nil {
			return 0, 0, err
		}
		return n, CountUnbounded, nil
	}
	if strings.Contains(s, ",") {
		parts := strings.SplitN(s, ",", 2)
		lo, err = strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, err
		}
		hi, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, err
		}
		return lo, hi, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}
