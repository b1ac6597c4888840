// Package utils provides common utility functions for dexlens.
package utils

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// usPrinter formats numbers with en-US digit grouping (1,234,567).
var usPrinter = message.NewPrinter(language.English)

// FormatUSD formats a price in US dollars at full precision.
// No rounding is applied: 0.00004217 → "$0.00004217".
func FormatUSD(v float64) string {
	if v < 0 {
		return "-$" + strconv.FormatFloat(-v, 'f', -1, 64)
	}
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatUSDInt formats a dollar amount as a grouped-digit integer,
// e.g., 1234567 → "$1,234,567".
func FormatUSDInt(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return usPrinter.Sprintf("-$%d", -n)
	}
	return usPrinter.Sprintf("$%d", n)
}

// FormatPct formats a percentage with fixed two decimal places,
// e.g., -3.456 → "-3.46%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// GroupInt formats an integer with en-US digit grouping.
func GroupInt(n int64) string {
	return usPrinter.Sprintf("%d", n)
}
