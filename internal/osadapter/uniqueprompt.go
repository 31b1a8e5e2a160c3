package osadapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// UniquePromptRegex matches the sentinel this package generates, per
// spec §6: a ten-character random lowercase sentinel wrapped in the
// `@@...@PWN@#` template.
var UniquePromptRegex = regexp.MustCompile(`@@\S+@PWN@#\s+`)

const randomBodyLen = 10

// UniquePrompt returns a freshly generated unique-prompt sentinel using the
// adapter's template (falling back to the default `@@<rand>@PWN@# ` shape
// if the adapter does not override it).
func (a *Adapter) UniquePrompt() string {
	tmpl := a.UniquePromptTemplate
	if tmpl == "" {
		tmpl = uniquePromptTemplate
	}
	body := randomLowercase(randomBodyLen)
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, body)
	}
	// adapters like alcatel ship a fixed sentinel with no substitution slot.
	return tmpl
}

// randomLowercase derives n lowercase ASCII letters from a fresh UUID,
// idiomatic across the retrieval pack's use of google/uuid for random
// tokens rather than hand-rolling a math/rand sampler.
func randomLowercase(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := id[i%len(id)]
		if c >= '0' && c <= '9' {
			c = 'a' + (c - '0')
		}
		out[i] = c
	}
	return string(out)
}
