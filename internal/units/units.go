// Package units provides shared constants and conversion for length units.
//
// The simulation engine reports all coordinates in meters; fabrication file
// formats work in much smaller units (GDSII libraries conventionally use
// micrometers). Conversions always go through meters as the canonical form.
package units

import "fmt"

// Unit constants
const (
	Meter      = "m"
	Millimeter = "mm"
	Micrometer = "um"
	Nanometer  = "nm"
)

// DefaultExportUnit is the working unit for fabrication exports when the
// caller does not specify one.
const DefaultExportUnit = Micrometer

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meter, Millimeter, Micrometer, Nanometer}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, mm, um, nm"
}

// MetersPer returns how many meters one target unit spans.
// Unknown units are treated as meters.
func MetersPer(unit string) float64 {
	switch unit {
	case Millimeter:
		return 1e-3
	case Micrometer:
		return 1e-6
	case Nanometer:
		return 1e-9
	case Meter:
		return 1.0
	default:
		return 1.0
	}
}

// FromMeters converts a length in meters to the target units.
func FromMeters(meters float64, targetUnit string) float64 {
	return meters / MetersPer(targetUnit)
}

// ToMeters converts a length in the given units to meters.
func ToMeters(value float64, unit string) float64 {
	return value * MetersPer(unit)
}

// Parse validates a unit string and returns it, or an error listing the
// accepted values.
func Parse(unit string) (string, error) {
	if !IsValid(unit) {
		return "", fmt.Errorf("invalid unit %q (valid: %s)", unit, GetValidUnitsString())
	}
	return unit, nil
}
