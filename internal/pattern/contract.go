package pattern

import (
	"regexp"
	"sort"

	"github.com/mxterm/mxterm/internal/xerrors"
)

// Contract is an ordered list of Values scanned together against one
// receive buffer, under an any/all/in-sequence policy.
type Contract struct {
	Command string

	AllRequired        bool
	ContinueAfterMatch bool
	InSequence         bool

	Items []*Value

	MatchedIndices []int

	AnyMatched           bool
	AllMatched           bool
	AllMatchedInSequence bool
	OK                   bool

	nameToIndex map[string]int
}

// New builds an empty Contract for the given sent command (diagnostics
// only — the contract does not send anything itself).
func New(command string) *Contract {
	return &Contract{
		Command:     command,
		nameToIndex: make(map[string]int),
	}
}

// Add appends v to the contract. It rejects a non-empty name already in use.
func (c *Contract) Add(v *Value) error {
	if v.Name != "" {
		if _, exists := c.nameToIndex[v.Name]; exists {
			return xerrors.ErrNameConflict
		}
		c.nameToIndex[v.Name] = len(c.Items)
	}
	c.Items = append(c.Items, v)
	return nil
}

// Get returns the Value registered under name, if any.
func (c *Contract) Get(name string) (*Value, bool) {
	idx, ok := c.nameToIndex[name]
	if !ok {
		return nil, false
	}
	return c.Items[idx], true
}

// Delete removes the Value at name, renumbering the name→index map.
func (c *Contract) Delete(name string) {
	idx, ok := c.nameToIndex[name]
	if !ok {
		return
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	delete(c.nameToIndex, name)
	for k, v := range c.nameToIndex {
		if v > idx {
			c.nameToIndex[k] = v - 1
		}
	}
}

// Reset clears all items and aggregate results so the contract can be reused
// for another scan.
func (c *Contract) Reset() {
	for _, v := range c.Items {
		v.Reset()
	}
	c.AnyMatched = false
	c.AllMatched = false
	c.AllMatchedInSequence = false
	c.OK = false
	c.MatchedIndices = nil
}

var trailingWS = regexp.MustCompile(`\s*$`)

// findPromptAtEnd searches for prompt anchored at end of buf (a prompt is
// meaningful only trailing the accumulated output).
func findPromptAtEnd(buf, prompt string) *Match {
	if prompt == "" {
		return nil
	}
	re, err := regexp.Compile(`(?m)` + prompt + `\s*$`)
	if err != nil {
		return nil
	}
	loc := re.FindStringIndex(buf)
	if loc == nil {
		return nil
	}
	return &Match{Text: buf[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
}

// Scan locates prompt at the end of buf, then scans each Value against buf
// (optionally with the trailing prompt snipped off), and computes OK per the
// contract's any/all/in-sequence policy. Scan never errors — timing out or
// not matching is communicated through OK staying false.
func (c *Contract) Scan(buf, prompt string) bool {
	promptMatch := findPromptAtEnd(buf, prompt)

	c.MatchedIndices = nil
	for idx, v := range c.Items {
		if v.IsPrompt() {
			v.Match = promptMatch
		} else {
			haystack := buf
			if v.StripPromptBeforeMatch && promptMatch != nil {
				haystack = buf[:promptMatch.Start]
			}
			v.search(haystack)
		}

		if v.Match != nil {
			c.AnyMatched = true
			c.MatchedIndices = append(c.MatchedIndices, idx)
			if !c.AllRequired && !c.ContinueAfterMatch {
				break
			}
		}
	}
	// MatchedIndices lists matches in the order they occur in buf, not in
	// item order, so the in-sequence check below can fail.
	sort.SliceStable(c.MatchedIndices, func(i, j int) bool {
		return c.Items[c.MatchedIndices[i]].Match.Start < c.Items[c.MatchedIndices[j]].Match.Start
	})

	c.AllMatched = true
	for _, v := range c.Items {
		if v.Match == nil {
			c.AllMatched = false
			break
		}
	}

	switch {
	case !c.AllRequired:
		c.OK = c.AnyMatched
	case !c.InSequence:
		c.OK = c.AllMatched
	default:
		if c.AllMatched {
			n := len(c.Items)
			tail := c.MatchedIndices
			if len(tail) >= n {
				tail = tail[len(tail)-n:]
			}
			c.AllMatchedInSequence = len(tail) == n && isIdentitySequence(tail)
		}
		c.OK = c.AllMatchedInSequence
	}

	return c.OK
}

func isIdentitySequence(indices []int) bool {
	for i, v := range indices {
		if v != i {
			return false
		}
	}
	return true
}
