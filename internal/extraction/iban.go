package extraction

import (
	"regexp"
	"strings"
)

// ibanLengths is the ISO 13616 registry of IBAN lengths per country.
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16, "BG": 22,
	"BH": 22, "BR": 29, "BY": 28, "CH": 21, "CR": 22, "CY": 28, "CZ": 24, "DE": 22,
	"DK": 18, "DO": 28, "EE": 20, "EG": 29, "ES": 24, "FI": 18, "FO": 18, "FR": 27,
	"GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27, "GT": 28, "HR": 21, "HU": 28,
	"IE": 22, "IL": 23, "IQ": 23, "IS": 26, "IT": 27, "JO": 30, "KW": 30, "KZ": 20,
	"LB": 28, "LC": 32, "LI": 21, "LT": 20, "LU": 20, "LV": 21, "MC": 27, "MD": 24,
	"ME": 22, "MK": 19, "MR": 27, "MT": 31, "MU": 30, "NL": 18, "NO": 15, "PK": 24,
	"PL": 28, "PS": 29, "PT": 25, "QA": 29, "RO": 24, "RS": 22, "SA": 24, "SC": 31,
	"SE": 24, "SI": 19, "SK": 24, "SM": 27, "ST": 25, "SV": 28, "TL": 23, "TN": 24,
	"TR": 26, "UA": 29, "VA": 22, "VG": 24, "XK": 20,
}

const (
	minIBANLength = 15
	maxIBANLength = 34
)

var (
	ibanStart     = regexp.MustCompile(`\b[A-Z]{2}\d{2}`)
	ibanHeuristic = regexp.MustCompile(`^[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,4})?`)
)

// FindIBAN returns the first IBAN in text without spaces, or "".
// Known countries take exactly their registered length, so text glued to the
// end (a bank name) is left out.
func FindIBAN(text string) string {
	upper := strings.ToUpper(text)
	for _, loc := range ibanStart.FindAllStringIndex(upper, -1) {
		candidate := upper[loc[0]:]
		if length, ok := ibanLengths[candidate[:2]]; ok {
			if iban, ok := takeAlnum(candidate, length); ok {
				return iban
			}
			continue
		}
		if m := ibanHeuristic.FindString(candidate); m != "" {
			compact := strings.ReplaceAll(trimLetterGroups(m), " ", "")
			if len(compact) >= minIBANLength && len(compact) <= maxIBANLength {
				return compact
			}
		}
	}
	return ""
}

// trimLetterGroups drops trailing space-separated groups made only of
// letters. Account digits end an IBAN, a word after it does not belong to it.
func trimLetterGroups(grouped string) string {
	groups := strings.Split(grouped, " ")
	for len(groups) > 1 && allLetters(groups[len(groups)-1]) {
		groups = groups[:len(groups)-1]
	}
	return strings.Join(groups, " ")
}

func allLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return s != ""
}

// takeAlnum collects n alphanumerics from s, allowing single spaces between
// them.
func takeAlnum(s string, n int) (string, bool) {
	var b strings.Builder
	prevSpace := false
	for i := 0; i < len(s) && b.Len() < n; i++ {
		c := s[i]
		switch {
		case (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
			prevSpace = false
		case c == ' ' && !prevSpace && b.Len() > 0:
			prevSpace = true
		default:
			return "", false
		}
	}
	if b.Len() != n {
		return "", false
	}
	return b.String(), true
}
