package extraction

import (
	"regexp"
	"strings"
	"time"
)

var dateToken = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{1,4}`)

// ParseDate parses the first date-like token of s with the given layouts.
func ParseDate(s string, layouts []string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	candidates := []string{s}
	if token := dateToken.FindString(s); token != "" && token != s {
		candidates = append([]string{token}, candidates...)
	}

	for _, candidate := range candidates {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, candidate, time.UTC); err == nil {
				return &t, true
			}
		}
	}
	return nil, false
}
