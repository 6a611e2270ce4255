package utils

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainOnce   sync.Once
	plainPolicy *bluemonday.Policy
)

func plain() *bluemonday.Policy {
	plainOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}

// SanitizeText strips every HTML tag from user supplied free text.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	// the policy entity-encodes what it keeps; descriptions are stored as plain text
	return strings.TrimSpace(html.UnescapeString(plain().Sanitize(s)))
}
