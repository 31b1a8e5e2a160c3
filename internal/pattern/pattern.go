// Package pattern implements the matching primitives the terminal engine
// scans a receive buffer against: a single expected pattern (Value) and an
// ordered policy-bearing group of them (Contract).
package pattern

import "regexp"

// Match records the result of a successful Value search.
type Match struct {
	Text     string
	Start    int
	End      int
	Captures []string
}

// Callback is invoked with a successful Match.
type Callback func(Match)

// Value is a single expected pattern: a compiled regex, or nil meaning
// "match the current prompt".
type Value struct {
	Regex                  *regexp.Regexp
	Name                   string
	StripPromptBeforeMatch bool
	Match                  *Match
	OnMatch                Callback
}

// Option configures a Value at construction time.
type Option func(*Value)

// WithName gives the value a stable identifier for result lookup.
func WithName(name string) Option {
	return func(v *Value) { v.Name = name }
}

// WithCallback attaches a function invoked on a successful match.
func WithCallback(cb Callback) Option {
	return func(v *Value) { v.OnMatch = cb }
}

// WithoutPromptStrip disables stripping the trailing prompt before matching
// this value against the buffer (default is to strip it).
func WithoutPromptStrip() Option {
	return func(v *Value) { v.StripPromptBeforeMatch = false }
}

// NewRegex builds a Value that matches re against the buffer.
func NewRegex(re *regexp.Regexp, opts ...Option) *Value {
	v := &Value{Regex: re, StripPromptBeforeMatch: true}
	for _, o := range opts {
		o(v)
	}
	return v
}

// NewString compiles s as a literal (escaped) pattern.
func NewString(s string, opts ...Option) (*Value, error) {
	re, err := regexp.Compile(regexp.QuoteMeta(s))
	if err != nil {
		return nil, err
	}
	return NewRegex(re, opts...), nil
}

// NewPrompt builds a Value with Regex == nil, meaning "the current prompt".
func NewPrompt(opts ...Option) *Value {
	v := &Value{StripPromptBeforeMatch: true}
	for _, o := range opts {
		o(v)
	}
	if v.Name == "" {
		v.Name = "prompt"
	}
	return v
}

// IsPrompt reports whether this value refers to the current prompt rather
// than carrying its own regex.
func (v *Value) IsPrompt() bool {
	return v.Regex == nil
}

// Reset clears any stored match.
func (v *Value) Reset() {
	v.Match = nil
}

// search runs the value's regex against haystack, recording and returning
// the match on success.
func (v *Value) search(haystack string) *Match {
	loc := v.Regex.FindStringSubmatchIndex(haystack)
	if loc == nil {
		return nil
	}
	m := &Match{
		Text:  haystack[loc[0]:loc[1]],
		Start: loc[0],
		End:   loc[1],
	}
	for i := 2; i < len(loc); i += 2 {
		if loc[i] < 0 {
			m.Captures = append(m.Captures, "")
			continue
		}
		m.Captures = append(m.Captures, haystack[loc[i]:loc[i+1]])
	}
	v.Match = m
	if v.OnMatch != nil {
		v.OnMatch(*m)
	}
	return m
}
