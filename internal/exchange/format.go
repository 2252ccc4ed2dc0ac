package exchange

import (
	"fmt"
	"math"
	"strings"
)

// MissingValue is rendered for quantities that carry no number at all.
const MissingValue = "—"

// FormatMWh renders an energy quantity on a human scale: below 10³ MWh in
// whole megawatt-hours, below 10⁶ in gigawatt-hours with one decimal, and
// above in terawatt-hours with one decimal. Thousands groups are
// separated by spaces.
func FormatMWh(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return MissingValue
	}
	abs := math.Abs(x)
	switch {
	case abs >= 1e6:
		return groupThousands(fmt.Sprintf("%.1f", x/1e6)) + " TWh"
	case abs >= 1e3:
		return groupThousands(fmt.Sprintf("%.1f", x/1e3)) + " GWh"
	default:
		return groupThousands(fmt.Sprintf("%.0f", x)) + " MWh"
	}
}

// groupThousands inserts a space between every three digits of the
// integer part of an already-formatted number.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
