package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Spaces only group thousands: "1 234,56" is one token, "442,38 2024" is not.
var amountToken = regexp.MustCompile(`-?\s?\d+(?:[.,']\d+|\s\d{3}\b)*`)

// ParseAmount reads the first numeric token of s as a count of minor units
// and returns it in major units: "442,38", "442.38" and "44238" all give
// 442.38, "1.234,56" gives 1234.56. Portals render separators inconsistently,
// so every separator is dropped and the last two digits are always the
// fraction.
func ParseAmount(s string) (decimal.Decimal, bool) {
	token := amountToken.FindString(s)
	if token == "" {
		return decimal.Zero, false
	}

	negative := strings.HasPrefix(token, "-")
	var digits strings.Builder
	for _, r := range token {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return decimal.Zero, false
	}

	minor, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		minor = -minor
	}
	return decimal.New(minor, -2), true
}
