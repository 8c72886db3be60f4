package obd2

import (
	"math"

	"github.com/obdtools/obd2emu/units"
	"github.com/pkg/errors"
)

// Value stores a decoded physical value with its unit.
type Value struct {
	Value float64
	Unit  units.Unit
}

// ConvertTo converts a value from its current unit to the given unit.
func (v Value) ConvertTo(u units.Unit) (*Value, error) {
	if u == v.Unit {
		return &Value{v.Value, v.Unit}, nil
	}

	val, err := units.Convert(v.Value, v.Unit, u)
	if err != nil {
		return nil, err
	}

	return &Value{Value: val, Unit: u}, nil
}

func (v Value) SafeConvertTo(u units.Unit) Value {
	pv, _ := v.ConvertTo(u)
	if pv != nil {
		return *pv
	}
	return Value{Unit: u}
}

// Decode converts a parameter's raw data bytes into its physical value(s).
// The bytes of each field are combined big-endian, then the field's scaling
// kind is applied: offset subtracts the factor, every other kind divides by
// it. Composite parameters yield one Value per field, in field order.
func Decode(code string, raw []byte) ([]Value, error) {
	p, err := Lookup(code)
	if err != nil {
		return nil, err
	}
	if len(p.Fields) == 0 {
		return nil, &InvalidScalingError{Code: code}
	}

	need := 0
	for _, f := range p.Fields {
		need += f.Bytes
	}
	if len(raw) < need {
		return nil, errors.Errorf("%s: need %d data bytes, have %d", code, need, len(raw))
	}

	// The lamp is bit 7 of the first data byte, not a scaled quantity.
	if p.Code == "MIL" {
		v := float64(0)
		if raw[0]&0x80 != 0 {
			v = 1
		}
		return []Value{{Value: v, Unit: p.Fields[0].Unit}}, nil
	}

	values := make([]Value, len(p.Fields))
	off := 0
	for i, f := range p.Fields {
		rawValue := combine(raw[off : off+f.Bytes])
		off += f.Bytes

		var v float64
		switch f.Kind {
		case ScaleOffset:
			v = rawValue - f.Factor
		case ScaleInt, ScalePercent, ScaleFloat:
			v = rawValue / f.Factor
		default:
			return nil, &InvalidScalingError{Code: code}
		}
		values[i] = Value{Value: v, Unit: f.Unit}
	}
	return values, nil
}

// Encode converts physical values into the parameter's raw data bytes. Each
// value is clamped to the field's bounds, scaled by the field's kind (offset
// adds the factor, every other kind multiplies), rounded, and written
// big-endian. Missing trailing values of a composite parameter default to
// the field minimum.
func Encode(code string, values ...float64) ([]byte, error) {
	p, err := Lookup(code)
	if err != nil {
		return nil, err
	}
	if len(p.Fields) == 0 {
		return nil, &InvalidScalingError{Code: code}
	}
	if len(values) > len(p.Fields) {
		return nil, errors.Errorf("%s: got %d values for %d fields", code, len(values), len(p.Fields))
	}

	if p.Code == "MIL" {
		raw := make([]byte, p.Fields[0].Bytes)
		if len(values) > 0 && values[0] > 0 {
			raw[0] = 0x80
		}
		return raw, nil
	}

	var raw []byte
	for i, f := range p.Fields {
		v := f.Min
		if i < len(values) {
			v = Clamp(values[i], f)
		}

		var scaled float64
		switch f.Kind {
		case ScaleOffset:
			scaled = v + f.Factor
		case ScaleInt, ScalePercent, ScaleFloat:
			scaled = v * f.Factor
		default:
			return nil, &InvalidScalingError{Code: code}
		}

		raw = appendBigEndian(raw, uint64(math.Round(scaled)), f.Bytes)
	}
	return raw, nil
}

// Clamp bounds a physical value to a field's inclusive [Min, Max] range.
func Clamp(v float64, f Field) float64 {
	if v < f.Min {
		return f.Min
	}
	if v > f.Max {
		return f.Max
	}
	return v
}

func combine(b []byte) float64 {
	var v uint64
	for _, bb := range b {
		v = v<<8 | uint64(bb)
	}
	return float64(v)
}

func appendBigEndian(dst []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(uint(i)*8)))
	}
	return dst
}
