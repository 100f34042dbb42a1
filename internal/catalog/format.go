package catalog

import (
	"math"
	"strconv"
)

// formatVND renders an amount as a grouped VND string, e.g. 1200000
// becomes "1,200,000 VND". Amounts are whole dong; fractions round.
func formatVND(amount float64) string {
	n := int64(math.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		out = append([]byte{'-'}, out...)
	}
	return string(out) + " VND"
}
