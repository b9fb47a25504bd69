package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"", "km", "inch", "M"} {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true, want false", u)
		}
	}
}

func TestFromMeters(t *testing.T) {
	tests := []struct {
		meters float64
		unit   string
		want   float64
	}{
		{1.0, Meter, 1.0},
		{1.0, Millimeter, 1e3},
		{1.0, Micrometer, 1e6},
		{1.0, Nanometer, 1e9},
		{2.5e-6, Micrometer, 2.5},
		{1.0, "bogus", 1.0}, // unknown falls back to meters
	}
	for _, tt := range tests {
		got := FromMeters(tt.meters, tt.unit)
		if math.Abs(got-tt.want) > 1e-9*math.Abs(tt.want) {
			t.Errorf("FromMeters(%v, %q) = %v, want %v", tt.meters, tt.unit, got, tt.want)
		}
	}
}

func TestToMetersRoundTrip(t *testing.T) {
	for _, u := range ValidUnits {
		v := 123.456
		back := FromMeters(ToMeters(v, u), u)
		if math.Abs(back-v) > 1e-9 {
			t.Errorf("unit %q: round trip %v -> %v", u, v, back)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse(Micrometer); err != nil {
		t.Errorf("Parse(um) returned error: %v", err)
	}
	if _, err := Parse("furlong"); err == nil {
		t.Error("Parse(furlong) should return error")
	}
}
