package units

import "errors"

// Unit provides common values for units used to describe a parameter's value.
type Unit string

// The valid units.
const (
	// Velocity
	MPH Unit = "mph"
	KMH Unit = "km/h"

	// Distance
	Miles      Unit = "miles"
	Kilometers Unit = "km"

	// Rotational Speed
	RPM Unit = "rpm"

	// Temperature
	F Unit = "F"
	C Unit = "C"

	// Pressure
	PSI Unit = "psi"
	BAR Unit = "bar"
	KPA Unit = "kPa"

	// Airflow
	GS Unit = "g/s"

	// Fueling
	Lambda         Unit = "Lambda"
	LitersPerHour  Unit = "l/h"
	GallonsPerHour Unit = "gal/h"

	// Time
	Seconds Unit = "s"
	Minutes Unit = "min"
	Hours   Unit = "h"

	// Misc
	Percent Unit = "%"
	Boolean Unit = "boolean"
	Index   Unit = "index"
	Raw     Unit = "raw value"
)

// ErrorInvalidConversion is returned when an invalid unit conversion attempt is made.
var ErrorInvalidConversion = errors.New("units are invalid for conversion")

func Convert(value float64, from, to Unit) (float64, error) {
	cvs := UnitConversions[from]
	if cvs == nil {
		return 0, ErrorInvalidConversion
	}

	cv := cvs[to]
	if cv == nil {
		return 0, ErrorInvalidConversion
	}

	return cv(value), nil
}

// UnitConversions provides conversion functions for the package-defined Units.
var UnitConversions = map[Unit]map[Unit]func(v float64) float64{
	MPH: {
		KMH: func(v float64) float64 {
			return v * 1.60934
		},
	},
	KMH: {
		MPH: func(v float64) float64 {
			return v * 0.621371
		},
	},
	Miles: {
		Kilometers: func(v float64) float64 {
			return v * 1.60934
		},
	},
	Kilometers: {
		Miles: func(v float64) float64 {
			return v * 0.621371
		},
	},
	F: {
		C: func(v float64) float64 {
			return (v - 32) / 9 * 5
		},
	},
	C: {
		F: func(v float64) float64 {
			return (v / 5 * 9) + 32
		},
	},
	KPA: {
		PSI: func(v float64) float64 {
			return v * 0.1450377
		},
		BAR: func(v float64) float64 {
			return v / 100
		},
	},
	PSI: {
		KPA: func(v float64) float64 {
			return v * 6.89475729
		},
		BAR: func(v float64) float64 {
			return v * 0.0689475729
		},
	},
	BAR: {
		PSI: func(v float64) float64 {
			return v * 14.5038
		},
		KPA: func(v float64) float64 {
			return v * 100
		},
	},
	LitersPerHour: {
		GallonsPerHour: func(v float64) float64 {
			return v * 0.264172
		},
	},
	GallonsPerHour: {
		LitersPerHour: func(v float64) float64 {
			return v * 3.78541
		},
	},
	Seconds: {
		Minutes: func(v float64) float64 {
			return v / 60
		},
		Hours: func(v float64) float64 {
			return v / 3600
		},
	},
	Minutes: {
		Seconds: func(v float64) float64 {
			return v * 60
		},
		Hours: func(v float64) float64 {
			return v / 60
		},
	},
}
