package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopWords are street, unit and sector prefixes that carry no
// identity on their own.
var DefaultStopWords = []string{
	"str", "strada", "nr", "numar", "bl", "bloc", "sc", "scara", "et", "etaj", "ap", "apt",
	"apartament", "sector", "sect", "sec", "bd", "blvd", "bulevardul", "calea", "aleea",
	"soseaua", "sos", "intrarea", "piata", "jud", "judet", "mun", "municipiul", "oras",
	"street", "st", "avenue", "ave", "road", "rd", "unit", "the", "asociatia",
	"asociatia de proprietari", "proprietari", "de",
}

const minTokenLength = 3

// Normalizer lower-cases, strips diacritics and punctuation, and drops stop
// words.
type Normalizer struct {
	stopWords map[string]struct{}
}

func NewNormalizer(stopWords []string) *Normalizer {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		for _, part := range strings.Fields(fold(w)) {
			set[part] = struct{}{}
		}
	}
	return &Normalizer{stopWords: set}
}

// fold lower-cases, removes diacritics and turns punctuation into spaces.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the folded words of s with stop words removed.
func (n *Normalizer) Words(s string) []string {
	var words []string
	for _, w := range strings.Fields(fold(s)) {
		if _, stop := n.stopWords[w]; !stop {
			words = append(words, w)
		}
	}
	return words
}

// Normalize returns the folded, stop-word-free form of s.
func (n *Normalizer) Normalize(s string) string {
	return strings.Join(n.Words(s), " ")
}

// Tokens returns the distinct words of at least three characters.
func (n *Normalizer) Tokens(s string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, w := range n.Words(s) {
		if len([]rune(w)) < minTokenLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}
