// Package matching scores portal associations against a property's address.
package matching

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wekeepgrowing/billsync/internal/domain/entity"
)

// Scoring weights and acceptance threshold. The values are empirically
// tuned and kept as-is.
const (
	TokenWeight       = 8
	StreetWeight      = 10
	HouseNumberWeight = 5
	BlockQueryWeight  = 3
	BlockNameWeight   = 2
	RawSubstrWeight   = 2
	MatchThreshold    = 5
)

var (
	blockPattern = regexp.MustCompile(`\b(?:bloc(?:ul)?|bl)\s+([a-z0-9]+)\b`)
	digitsOnly   = regexp.MustCompile(`^\d+[a-z]?$`)
)

// Matcher is deterministic and safe for concurrent use.
type Matcher struct {
	normalizer *Normalizer
}

// NewMatcher uses DefaultStopWords plus extra.
func NewMatcher(extra ...string) *Matcher {
	words := append(append([]string{}, DefaultStopWords...), extra...)
	return &Matcher{normalizer: NewNormalizer(words)}
}

// Match scores candidates against query. Candidates above MatchThreshold are
// returned by descending score, ties in discovery order. When none qualify,
// every candidate is returned with score 0 and Fallback set.
func (m *Matcher) Match(query string, candidates []entity.AssociationCandidate) []entity.AssociationCandidate {
	if len(candidates) == 0 {
		return nil
	}

	q := m.prepare(query)
	var matched []entity.AssociationCandidate
	for _, c := range candidates {
		score := m.score(q, c)
		if score > MatchThreshold {
			c.Score = score
			c.Fallback = false
			matched = append(matched, c)
		}
	}

	if len(matched) == 0 {
		fallback := make([]entity.AssociationCandidate, len(candidates))
		for i, c := range candidates {
			c.Score = 0
			c.Fallback = true
			fallback[i] = c
		}
		return fallback
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})
	return matched
}

// Score returns the raw score of one candidate.
func (m *Matcher) Score(query string, candidate entity.AssociationCandidate) int {
	return m.score(m.prepare(query), candidate)
}

type prepared struct {
	raw        string
	normalized string
	tokens     []string
	street     string
	block      string
}

func (m *Matcher) prepare(s string) prepared {
	return prepared{
		raw:        strings.ToLower(strings.TrimSpace(s)),
		normalized: m.normalizer.Normalize(s),
		tokens:     m.normalizer.Tokens(s),
		street:     m.street(s),
		block:      blockCode(s),
	}
}

func (m *Matcher) score(q prepared, c entity.AssociationCandidate) int {
	display := c.DisplayName()
	cand := m.prepare(display)
	score := 0

	score += TokenWeight * matchedTokens(q.tokens, cand.tokens)

	if streetContained(q, cand) {
		score += StreetWeight
	}

	if house := m.houseNumber(c.Address); house != "" && containsWord(m.normalizer.Words(q.raw), house) {
		score += HouseNumberWeight
	}

	switch {
	case cand.block != "" && cand.block == q.block:
		score += BlockQueryWeight
	case q.block != "" && containsWord(m.normalizer.Words(display), q.block):
		score += BlockNameWeight
	}

	rawDisplay := strings.ToLower(strings.TrimSpace(display))
	if q.raw != "" && rawDisplay != "" && (strings.Contains(q.raw, rawDisplay) || strings.Contains(rawDisplay, q.raw)) {
		score += RawSubstrWeight
	}

	return score
}

// matchedTokens counts query tokens matched by a candidate token: equal, or
// one containing the other with the shorter of at least three characters.
func matchedTokens(query, candidate []string) int {
	count := 0
	for _, qt := range query {
		for _, ct := range candidate {
			if tokensMatch(qt, ct) {
				count++
				break
			}
		}
	}
	return count
}

func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len([]rune(shorter)) >= minTokenLength && strings.Contains(longer, shorter)
}

// street is the leading run of non-numeric words, e.g. "florilor" for
// "Str. Florilor nr. 3".
func (m *Matcher) street(s string) string {
	var words []string
	for _, w := range m.normalizer.Words(s) {
		if strings.IndexFunc(w, isDigitRune) >= 0 {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func streetContained(q, c prepared) bool {
	if q.street != "" && c.normalized != "" && strings.Contains(c.normalized, q.street) {
		return true
	}
	return c.street != "" && q.normalized != "" && strings.Contains(q.normalized, c.street)
}

// houseNumber is the first numeric word of an address.
func (m *Matcher) houseNumber(address string) string {
	for _, w := range m.normalizer.Words(address) {
		if digitsOnly.MatchString(w) {
			return w
		}
	}
	return ""
}

func blockCode(s string) string {
	if m := blockPattern.FindStringSubmatch(fold(s)); m != nil {
		return m[1]
	}
	return ""
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}
