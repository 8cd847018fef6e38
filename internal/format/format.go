// Package format turns token attributes into display strings for pages and
// preview images. Every function is pure.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	sigDigits   = 4
	maxDecimals = 10
	ellipsis    = "…"
)

var magnitudes = []struct {
	div    float64
	suffix string
}{
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
}

// Magnitude renders a USD amount as $X.YB, $X.YM, $X.YK or whole dollars.
// A value that would round up to 1000 of one unit moves to the next unit.
func Magnitude(n float64) string {
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return "$0"
	}
	a := math.Abs(n)
	if math.Round(a) < 1e3 {
		return "$" + strconv.FormatFloat(math.Round(n), 'f', 0, 64)
	}
	last := len(magnitudes) - 1
	for i, m := range magnitudes {
		mantissa := strconv.FormatFloat(n/m.div, 'f', 1, 64)
		if i < last {
			if v, _ := strconv.ParseFloat(mantissa, 64); math.Abs(v) >= 1e3 {
				continue
			}
		}
		return "$" + mantissa + m.suffix
	}
	return ""
}

// Price renders a USD unit price. Sub-cent prices keep the leading zeros
// plus up to four significant digits, capped at ten decimal places.
func Price(p float64) string {
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return "$0.00"
	}
	switch {
	case p >= 1000:
		return "$" + humanize.FormatFloat("#,###.##", p)
	case p >= 1:
		return fmt.Sprintf("$%.2f", p)
	case p >= 0.01:
		return fmt.Sprintf("$%.4f", p)
	}
	d := decimal.NewFromFloat(p)
	places := leadingZeros(d) + sigDigits
	if places > maxDecimals {
		places = maxDecimals
	}
	return "$" + d.StringFixed(int32(places))
}

// leadingZeros counts the zeros between the decimal point and the first
// significant digit of a value in (0, 1).
func leadingZeros(d decimal.Decimal) int {
	s := strings.TrimPrefix(d.String(), "0.")
	return len(s) - len(strings.TrimLeft(s, "0"))
}

// Percent renders a signed percentage with two decimals.
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + ellipsis
}

// ShortAddress keeps the head and tail of a long address.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
