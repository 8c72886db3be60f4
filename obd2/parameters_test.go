package obd2_test

import (
	"testing"

	"github.com/obdtools/obd2emu/obd2"
)

func TestLookup(t *testing.T) {
	p, err := obd2.Lookup("RPM")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if p.PID != "0C" || p.ByteCount != 4 {
		t.Errorf("Lookup() = %+v, want PID 0C with 4 bytes", p)
	}

	_, err = obd2.Lookup("NOPE")
	if err == nil {
		t.Fatal("Lookup() expected error for unknown code")
	}
	want := "'NOPE' is an invalid parameter name."
	if err.Error() != want {
		t.Errorf("Lookup() error = %q, want %q", err.Error(), want)
	}
}

func TestRegistryConsistency(t *testing.T) {
	for code, p := range obd2.Parameters {
		if code != p.Code {
			t.Errorf("%s: registry key doesn't match code %s", code, p.Code)
		}
		if p.Name == "" {
			t.Errorf("%s: missing name", code)
		}

		// VIN and DTC carry no mode-01 PID or scaling.
		if code == "VIN" || code == "DTC" {
			if p.PID != "" || len(p.Fields) != 0 {
				t.Errorf("%s: should have no PID or fields", code)
			}
			continue
		}

		if p.PID == "" {
			t.Errorf("%s: missing PID", code)
		}
		if len(p.Fields) == 0 {
			t.Errorf("%s: missing fields", code)
		}

		dataBytes := 0
		for i, f := range p.Fields {
			if f.Min > f.Max {
				t.Errorf("%s: field %d has min %v > max %v", code, i, f.Min, f.Max)
			}
			if f.Factor == 0 && f.Kind != obd2.ScaleOffset {
				t.Errorf("%s: field %d has zero factor", code, i)
			}
			if f.Bytes <= 0 {
				t.Errorf("%s: field %d has no data bytes", code, i)
			}
			dataBytes += f.Bytes
		}

		// ByteCount covers mode, PID, and data. DEF leads its data with a
		// presence bitmask and ERT with a counter count, so each carries one
		// extra byte.
		if code == "DEF" || code == "ERT" {
			dataBytes++
		}
		if want := dataBytes + 2; p.ByteCount != want {
			t.Errorf("%s: ByteCount = %d, want %d", code, p.ByteCount, want)
		}
	}
}

func TestComposite(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"RPM", false},
		{"MIL", false},
		{"ERT", true},
		{"DEF", true},
	}
	for _, tt := range tests {
		p, err := obd2.Lookup(tt.code)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", tt.code, err)
		}
		if got := p.Composite(); got != tt.want {
			t.Errorf("%s.Composite() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCodes(t *testing.T) {
	codes := obd2.Codes()
	if len(codes) != len(obd2.Parameters) {
		t.Fatalf("Codes() returned %d codes, want %d", len(codes), len(obd2.Parameters))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes() not sorted: %s before %s", codes[i-1], codes[i])
		}
	}
}
