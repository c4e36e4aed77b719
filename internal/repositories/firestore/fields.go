// Package firestore implements the catalog repositories on Cloud Firestore.
package firestore

import (
	"strings"
	"time"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/textutil"
)

// Records are written by hand in the Firebase console as often as by the admin API, so
// decoding reads the raw field map and tolerates loosely typed values.

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func boolField(data map[string]any, key string) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// amountField returns 0 for missing or unparsable amounts.
func amountField(data map[string]any, key string) float64 {
	return textutil.CoerceAmount(data[key])
}

func optionalAmountField(data map[string]any, key string) *float64 {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil
	}
	value, ok := textutil.ParseAmount(raw)
	if !ok {
		return nil
	}
	return &value
}

func stringsField(data map[string]any, key string) []string {
	var out []string
	switch v := data[key].(type) {
	case []any:
		out = make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		out = make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func timeField(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// genderField treats unknown or empty values as both audiences.
func genderField(data map[string]any, key string) domain.Gender {
	if gender, ok := domain.ParseGender(stringField(data, key)); ok {
		return gender
	}
	return domain.GenderBoth
}

// canonicalGender returns the value a stored gender field should hold and whether raw differs
// from it. Audience queries match stored values exactly.
func canonicalGender(raw any) (any, bool) {
	stored, isString := raw.(string)
	want := domain.GenderBoth
	if gender, ok := domain.ParseGender(stored); ok {
		want = gender
	}
	return string(want), !isString || stored != string(want)
}

func genderValues(genders []domain.Gender) []any {
	out := make([]any, 0, len(genders))
	seen := make(map[domain.Gender]struct{}, len(genders))
	for _, g := range genders {
		if _, dup := seen[g]; dup || g == "" {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, string(g))
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
