package monitor_test

import (
	"math"
	"testing"

	"github.com/obdtools/obd2emu/monitor"
	"github.com/obdtools/obd2emu/obd2"
	"github.com/obdtools/obd2emu/units"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		code   string
		values []obd2.Value
	}{
		{
			name:   "rpm",
			line:   "53 07 E8 04 41 0C 0C 80 00 00 00",
			code:   "RPM",
			values: []obd2.Value{{Value: 800, Unit: units.RPM}},
		},
		{
			name:   "coolant temp",
			line:   "53 07 E8 03 41 05 28 00 00 00 00",
			code:   "ECT",
			values: []obd2.Value{{Value: 0, Unit: units.C}},
		},
		{
			name: "def composite",
			line: "53 07 E8 06 41 9B 07 28 5A BF 00",
			code: "DEF",
			values: []obd2.Value{
				{Value: 10, Unit: units.Percent},
				{Value: 50, Unit: units.C},
				{Value: 74.90196078431373, Unit: units.Percent},
			},
		},
		{
			name:   "mil lamp on",
			line:   "53 07 E8 06 41 01 80 00 00 00 00",
			code:   "MIL",
			values: []obd2.Value{{Value: 1, Unit: units.Boolean}},
		},
		{
			name:   "can29 header",
			line:   "53 98 DA F1 33 04 41 0D 3C 00 00 00 00",
			code:   "VSS",
			values: []obd2.Value{{Value: 60, Unit: units.KMH}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, values, err := monitor.ParseFrame(tt.line)
			if err != nil {
				t.Fatalf("ParseFrame(%q) error: %v", tt.line, err)
			}
			if code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
			if len(values) != len(tt.values) {
				t.Fatalf("got %d values, want %d", len(values), len(tt.values))
			}
			for i, v := range values {
				if math.Abs(v.Value-tt.values[i].Value) > 0.001 {
					t.Errorf("values[%d].Value = %v, want %v", i, v.Value, tt.values[i].Value)
				}
				if v.Unit != tt.values[i].Unit {
					t.Errorf("values[%d].Unit = %v, want %v", i, v.Unit, tt.values[i].Unit)
				}
			}
		})
	}
}

func TestDescribeFrame(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{
			name: "rpm",
			line: "53 07 E8 04 41 0C 0C 80 00 00 00",
			want: "RPM: 800 rpm",
			ok:   true,
		},
		{
			name: "coolant temp",
			line: "53 07 E8 03 41 05 28 00 00 00 00",
			want: "ECT: 0 C",
			ok:   true,
		},
		{
			name: "mil lamp",
			line: "53 07 E8 06 41 01 80 00 00 00 00",
			want: "MIL: 1 boolean",
			ok:   true,
		},
		{name: "plain console output", line: "devStateChange: curr=Boot"},
		{name: "request frame", line: "51 07 DF 02 01 0C 00 00 00 00 00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := monitor.DescribeFrame(tt.line)
			if ok != tt.ok {
				t.Fatalf("DescribeFrame(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("DescribeFrame(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not hex", "device ready"},
		{"no response byte", "51 07 DF 02 01 0C 00 00 00 00 00"},
		{"unknown pid", "53 07 E8 03 41 C7 00 00 00 00 00"},
		{"truncated data", "53 07 E8 04 41 0C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := monitor.ParseFrame(tt.line); err == nil {
				t.Fatalf("ParseFrame(%q) expected an error", tt.line)
			}
		})
	}
}
