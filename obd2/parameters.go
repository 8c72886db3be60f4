// Package obd2 defines the J1979 parameter registry used by the emulation
// builder and the device console: parameter metadata, raw byte scaling, and
// the validation guards for VINs, DTCs, and CAN identifier widths.
//
// OBD2/CAN11 frame format:
//
//	S | FH | FH | #B | M | PID | A | B | C | D | XX
//
// OBD2/CAN29 frame format:
//
//	S | FH | FH | FH | FH | #B | M | PID | A | B | C | D | XX
//
// S is the Saint frame header (50 RX, 51 RX with timestamp, 52 TX, 53 TX
// with timestamp), FH the CAN frame header, #B the number of data bytes
// including the mode and PID bytes, M the mode (01 current data, 03 DTC,
// 09 VIN), and A-D the data bytes.
package obd2

import (
	"sort"

	"github.com/obdtools/obd2emu/units"
)

// ScalingKind tags how a parameter's raw bytes convert to a physical value.
type ScalingKind string

// The recognized scaling kinds. Int scales by plain multiplication, Percent
// and Float by floating point multiplication that is rounded on encode, and
// Offset by addition.
const (
	ScaleInt     ScalingKind = "int"
	ScalePercent ScalingKind = "percent"
	ScaleOffset  ScalingKind = "offset"
	ScaleFloat   ScalingKind = "float"
)

// Field describes one scaled sub-value of a parameter. Most parameters have
// a single field; composite parameters like ERT and DEF carry one field per
// encoded sub-value.
type Field struct {
	// Min and Max bound the decoded physical value, inclusive.
	Min float64
	Max float64

	// Factor is the encode multiplier (or the offset for ScaleOffset).
	Factor float64
	Kind   ScalingKind

	// Bytes is the number of data bytes the field occupies.
	Bytes int

	Unit units.Unit
}

// Parameter describes a single registry entry.
type Parameter struct {
	Code string
	Name string

	// PID is the hex identifier on the wire. It is empty for VIN and DTC,
	// which aren't mode-01 requests.
	PID string

	// ByteCount is the number of data bytes the parameter needs in a frame,
	// mode and PID bytes included.
	ByteCount int

	Fields []Field
}

// Composite reports whether the parameter encodes more than one sub-value.
func (p Parameter) Composite() bool {
	return len(p.Fields) > 1
}

// Lookup returns the registry entry for a parameter code.
func Lookup(code string) (Parameter, error) {
	p, ok := Parameters[code]
	if !ok {
		return Parameter{}, &InvalidParameterError{Code: code}
	}
	return p, nil
}

// Codes returns every registered parameter code in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(Parameters))
	for code := range Parameters {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Parameters defines all the parameters supported by the registry.
var Parameters = map[string]Parameter{
	"MIL": {
		Code:      "MIL",
		Name:      "Malfunction Indicator Lamp",
		PID:       "01",
		ByteCount: 6,
		Fields: []Field{
			{Min: 0, Max: 1, Factor: 1, Kind: ScaleInt, Bytes: 4, Unit: units.Boolean},
		},
	},
	"RPM": {
		Code:      "RPM",
		Name:      "RPM",
		PID:       "0C",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 16383, Factor: 4, Kind: ScaleInt, Bytes: 2, Unit: units.RPM},
		},
	},
	"VSS": {
		Code:      "VSS",
		Name:      "Vehicle Speed",
		PID:       "0D",
		ByteCount: 3,
		Fields: []Field{
			{Min: 0, Max: 255, Factor: 1, Kind: ScaleInt, Bytes: 1, Unit: units.KMH},
		},
	},
	"CEL": {
		Code:      "CEL",
		Name:      "Engine Load",
		PID:       "04",
		ByteCount: 3,
		Fields: []Field{
			{Min: 0, Max: 100, Factor: 255.0 / 100.0, Kind: ScalePercent, Bytes: 1, Unit: units.Percent},
		},
	},
	"ECT": {
		Code:      "ECT",
		Name:      "Engine Coolant Temp",
		PID:       "05",
		ByteCount: 3,
		Fields: []Field{
			{Min: -40, Max: 215, Factor: 40, Kind: ScaleOffset, Bytes: 1, Unit: units.C},
		},
	},
	"MAF": {
		Code:      "MAF",
		Name:      "Mass Air Flow",
		PID:       "10",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 655.35, Factor: 100, Kind: ScaleFloat, Bytes: 2, Unit: units.GS},
		},
	},
	"TP": {
		Code:      "TP",
		Name:      "Throttle Position",
		PID:       "11",
		ByteCount: 3,
		Fields: []Field{
			{Min: 0, Max: 100, Factor: 255.0 / 100.0, Kind: ScalePercent, Bytes: 1, Unit: units.Percent},
		},
	},
	"TES": {
		Code:      "TES",
		Name:      "Time since Engine Start",
		PID:       "1F",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 65535, Factor: 1, Kind: ScaleInt, Bytes: 2, Unit: units.Seconds},
		},
	},
	"DMA": {
		Code:      "DMA",
		Name:      "Distance MIL Active",
		PID:       "21",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 65535, Factor: 1, Kind: ScaleInt, Bytes: 2, Unit: units.Kilometers},
		},
	},
	"FRP": {
		Code:      "FRP",
		Name:      "Fuel Rail Pressure",
		PID:       "23",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 655350, Factor: 0.1, Kind: ScaleFloat, Bytes: 2, Unit: units.KPA},
		},
	},
	"FLI": {
		Code:      "FLI",
		Name:      "Fuel Level Input",
		PID:       "2F",
		ByteCount: 3,
		Fields: []Field{
			{Min: 0, Max: 100, Factor: 255.0 / 100.0, Kind: ScalePercent, Bytes: 1, Unit: units.Percent},
		},
	},
	"DDC": {
		Code:      "DDC",
		Name:      "Distance DTC Cleared",
		PID:       "31",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 65535, Factor: 1, Kind: ScaleInt, Bytes: 2, Unit: units.Kilometers},
		},
	},
	"ACE": {
		Code:      "ACE",
		Name:      "Air Commanded Equivalence Ratio",
		PID:       "44",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 1.99, Factor: 32786.88, Kind: ScaleFloat, Bytes: 2, Unit: units.Lambda},
		},
	},
	"RMA": {
		Code:      "RMA",
		Name:      "Engine Runtime MIL Active",
		PID:       "4D",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 65535, Factor: 1, Kind: ScaleInt, Bytes: 2, Unit: units.Minutes},
		},
	},
	"RDA": {
		Code:      "RDA",
		Name:      "Engine Runtime DTC Active",
		PID:       "4E",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 65535, Factor: 1, Kind: ScaleInt, Bytes: 2, Unit: units.Minutes},
		},
	},
	"FT": {
		Code:      "FT",
		Name:      "Fuel Type",
		PID:       "51",
		ByteCount: 3,
		Fields: []Field{
			// 0:None 1:Gasoline 2:Methanol 3:Ethanol 4:Diesel 6:Natural Gas 8:Electric
			{Min: 0, Max: 255, Factor: 1, Kind: ScaleInt, Bytes: 1, Unit: units.Index},
		},
	},
	"EOT": {
		Code:      "EOT",
		Name:      "Engine Oil Temperature",
		PID:       "5C",
		ByteCount: 3,
		Fields: []Field{
			{Min: -40, Max: 215, Factor: 40, Kind: ScaleOffset, Bytes: 1, Unit: units.C},
		},
	},
	"EFR": {
		Code:      "EFR",
		Name:      "Engine Fuel Rate",
		PID:       "5E",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 3276.75, Factor: 20, Kind: ScaleFloat, Bytes: 2, Unit: units.LitersPerHour},
		},
	},
	"ERT": {
		Code:      "ERT",
		Name:      "Engine Run Time",
		PID:       "7F",
		ByteCount: 15,
		Fields: []Field{
			{Min: 0, Max: 4294967295, Factor: 1, Kind: ScaleInt, Bytes: 4, Unit: units.Seconds},
			{Min: 0, Max: 4294967295, Factor: 1, Kind: ScaleInt, Bytes: 4, Unit: units.Seconds},
			{Min: 0, Max: 4294967295, Factor: 1, Kind: ScaleInt, Bytes: 4, Unit: units.Seconds},
		},
	},
	"DEF": {
		Code:      "DEF",
		Name:      "Diesel Exhaust Fluid",
		PID:       "9B",
		ByteCount: 6,
		Fields: []Field{
			{Min: 0, Max: 63.75, Factor: 4, Kind: ScaleFloat, Bytes: 1, Unit: units.Percent},
			{Min: -40, Max: 215, Factor: 40, Kind: ScaleOffset, Bytes: 1, Unit: units.C},
			{Min: 0, Max: 100, Factor: 255.0 / 100.0, Kind: ScalePercent, Bytes: 1, Unit: units.Percent},
		},
	},
	"FR": {
		Code:      "FR",
		Name:      "Fuel Rate",
		PID:       "9D",
		ByteCount: 4,
		Fields: []Field{
			{Min: 0, Max: 1310.7, Factor: 50, Kind: ScaleFloat, Bytes: 2, Unit: units.GS},
		},
	},
	"ODO": {
		Code:      "ODO",
		Name:      "Odometer",
		PID:       "A6",
		ByteCount: 6,
		Fields: []Field{
			{Min: 0, Max: 429496729.5, Factor: 10, Kind: ScaleFloat, Bytes: 4, Unit: units.Kilometers},
		},
	},
	// VIN and DTC are named specials rather than mode-01 requests. They have
	// no scaling fields; Decode and Encode reject them with InvalidScalingError.
	"VIN": {
		Code: "VIN",
		Name: "VIN",
	},
	"DTC": {
		Code: "DTC",
		Name: "Active DTCs",
	},
}
