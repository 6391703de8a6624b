package extraction

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// LabelLocator finds the line holding a label in reflowed text.
type LabelLocator interface {
	LocateLabelLine(text, label string) (int, bool)
}

// FlexibleLabelLocator tolerates encoding noise: every label character may
// be followed by a run of non-space characters, and words may be separated
// by any amount of whitespace, including none. Matching ignores case.
type FlexibleLabelLocator struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

func NewFlexibleLabelLocator() *FlexibleLabelLocator {
	return &FlexibleLabelLocator{cache: make(map[string]*regexp.Regexp)}
}

// LabelPattern builds the flexible expression for label.
func LabelPattern(label string) string {
	words := strings.Fields(label)
	parts := make([]string, 0, len(words))
	for _, word := range words {
		var b strings.Builder
		for _, r := range word {
			b.WriteString(regexp.QuoteMeta(string(r)))
			b.WriteString(`\S*?`)
		}
		parts = append(parts, b.String())
	}
	return `(?i)` + strings.Join(parts, `\s*`)
}

func (l *FlexibleLabelLocator) pattern(label string) *regexp.Regexp {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.cache[label]; ok {
		return re
	}
	re := regexp.MustCompile(LabelPattern(label))
	l.cache[label] = re
	return re
}

func (l *FlexibleLabelLocator) LocateLabelLine(text, label string) (int, bool) {
	if strings.TrimSpace(label) == "" {
		return 0, false
	}
	re := l.pattern(label)
	for i, line := range strings.Split(text, "\n") {
		if re.MatchString(line) {
			return i, true
		}
	}
	return 0, false
}

// ReadLabel returns the value found offset lines below the label line. With
// offset 0 the label prefix is cut from the same line.
func ReadLabel(locator LabelLocator, text, label string, offset int) (string, bool) {
	idx, ok := locator.LocateLabelLine(text, label)
	if !ok {
		return "", false
	}

	lines := strings.Split(text, "\n")
	target := idx + offset
	if offset < 0 || target >= len(lines) {
		return "", false
	}

	if offset > 0 {
		value := strings.TrimSpace(lines[target])
		return value, value != ""
	}

	line := lines[idx]
	if loc := labelExpr(locator, label).FindStringIndex(line); loc != nil {
		line = line[loc[1]:]
	}
	line = strings.TrimLeftFunc(line, unicode.IsLetter)
	value := strings.TrimLeftFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '-' || r == '='
	})
	value = strings.TrimSpace(value)
	return value, value != ""
}

func labelExpr(locator LabelLocator, label string) *regexp.Regexp {
	if flexible, ok := locator.(*FlexibleLabelLocator); ok {
		return flexible.pattern(label)
	}
	return regexp.MustCompile(LabelPattern(label))
}
