package textutil

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indianEnglish = language.MustParse("en-IN")

// ParseAmount reads a numeric attribute that may be stored as a number or as text.
// It reports false for missing, malformed and non-finite values.
func ParseAmount(raw any) (float64, bool) {
	var value float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case int32:
		value = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		value = parsed
	case string:
		trimmed := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		trimmed = strings.TrimPrefix(trimmed, "₹")
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// CoerceAmount is ParseAmount with unusable values collapsed to 0.
func CoerceAmount(raw any) float64 {
	value, _ := ParseAmount(raw)
	return value
}

// SafeAmount guards an already-decoded float.
func SafeAmount(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// FormatINR renders a price for display, e.g. ₹1,299.50.
func FormatINR(value float64) string {
	return "₹" + message.NewPrinter(indianEnglish).Sprint(number.Decimal(SafeAmount(value), number.Scale(2)))
}

// NormalizeFacet folds a category or material into its comparison form.
func NormalizeFacet(value string) string {
	// Casers carry state and are not shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(value))
}
