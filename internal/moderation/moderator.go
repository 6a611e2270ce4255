package moderation

import (
	"regexp"
	"strings"
)

// Moderator flags text containing a denylisted term. A term only matches
// as a whole word: neighbouring letters or digits of any script break it.
type Moderator struct {
	re *regexp.Regexp
}

// New compiles the denylist. Blank terms are ignored; an empty list never matches.
func New(terms []string) *Moderator {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
	}
	if len(quoted) == 0 {
		return &Moderator{}
	}
	// RE2 has no lookaround, so the boundaries are consumed explicitly.
	pattern := `(?i)(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}]|$)`
	return &Moderator{re: regexp.MustCompile(pattern)}
}

// Violates reports whether text contains any denylisted term.
func (m *Moderator) Violates(text string) bool {
	if m == nil || m.re == nil || text == "" {
		return false
	}
	return m.re.MatchString(text)
}
