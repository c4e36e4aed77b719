package textutil

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want float64
		ok   bool
	}{
		{"float", 1299.5, 1299.5, true},
		{"int64", int64(450), 450, true},
		{"numeric string", "1299.50", 1299.50, true},
		{"grouped string", "1,299.50", 1299.50, true},
		{"rupee prefix", "₹ 999", 999, true},
		{"json number", json.Number("12.25"), 12.25, true},
		{"empty string", "  ", 0, false},
		{"garbage", "call us", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAmount(tc.raw)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseAmount(%v) = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestCoerceAmountFallsBackToZero(t *testing.T) {
	if got := CoerceAmount("n/a"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := SafeAmount(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to become 0, got %v", got)
	}
}

func TestFormatINR(t *testing.T) {
	if got := FormatINR(1299.5); got != "₹1,299.50" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatINR(math.NaN()); got != "₹0.00" {
		t.Fatalf("unexpected NaN format: %q", got)
	}
}

func TestNormalizeFacet(t *testing.T) {
	if got := NormalizeFacet("  Rose GOLD "); got != "rose gold" {
		t.Fatalf("unexpected facet %q", got)
	}
}
