package matching

import (
	"regexp"
	"strings"
)

var unitPattern = regexp.MustCompile(`(?i)(?:\bap(?:t|artament(?:ul)?)?|\bunit(?:ate)?|#)\.?\s*(?:nr\.?\s*)?(\d+[a-z]?)\b`)

// UnitNumber returns the apartment number written in s ("ap. 8", "Apt 12",
// "#3"), lower-cased, or "".
func UnitNumber(s string) string {
	m := unitPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	number := strings.ToLower(strings.TrimLeft(m[1], "0"))
	if number == "" || !isDigit(number[0]) {
		number = "0" + number
	}
	return number
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
