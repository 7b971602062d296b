package carbon

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the locale-aware message printer for number formatting.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats a float with the given precision and thousand separators.
// Example: FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	rounded := Round(f, precision)
	if precision <= 0 {
		return FormatNumber(int64(rounded))
	}

	formatted := fmt.Sprintf("%.*f", precision, rounded)
	intPart, frac, found := strings.Cut(formatted, ".")
	if !found {
		return formatted
	}
	var n int64
	if _, err := fmt.Sscan(intPart, &n); err != nil {
		return formatted
	}
	if n == 0 && strings.HasPrefix(intPart, "-") {
		return formatted
	}
	return printer.Sprintf("%d", n) + "." + frac
}

// FormatKg renders a footprint for display, e.g. "1,234.57 kg CO2e".
// Values below MinDisplayThresholdKg render as "0 kg CO2e".
func FormatKg(kg float64) string {
	if math.Abs(kg) < MinDisplayThresholdKg {
		return "0 kg CO2e"
	}
	return FormatFloat(kg, displayPrecision) + " kg CO2e"
}

const displayPrecision = 2
