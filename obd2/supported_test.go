package obd2_test

import (
	"testing"

	"github.com/obdtools/obd2emu/obd2"
)

func TestSupportedPIDGroup(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"00", 0},
		{"20", 1},
		{"A0", 5},
	}
	for _, tt := range tests {
		got, err := obd2.SupportedPIDGroup(tt.code)
		if err != nil {
			t.Fatalf("SupportedPIDGroup(%q) error = %v", tt.code, err)
		}
		if got != tt.want {
			t.Errorf("SupportedPIDGroup(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}

	_, err := obd2.SupportedPIDGroup("C0")
	if err == nil {
		t.Fatal("SupportedPIDGroup() expected error for unknown group")
	}
	want := "'C0' is not a valid group PID."
	if err.Error() != want {
		t.Errorf("SupportedPIDGroup() error = %q, want %q", err.Error(), want)
	}
}

func TestGroupMasks(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  [6]uint32
	}{
		{
			"single PID in first group",
			[]string{"RPM"},
			[6]uint32{1 << 20},
		},
		{
			"two PIDs in first group",
			[]string{"RPM", "ECT"},
			[6]uint32{1<<20 | 1<<27},
		},
		{
			"PID in a later group chains the previous group",
			[]string{"ERT"},
			[6]uint32{0, 0, 1, 1 << 1},
		},
		{
			"last group",
			[]string{"ODO"},
			[6]uint32{0, 0, 0, 0, 1, 1 << 26},
		},
		{
			"VIN and DTC carry no mode-01 PID",
			[]string{"VIN", "DTC"},
			[6]uint32{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := obd2.GroupMasks(tt.codes)
			if err != nil {
				t.Fatalf("GroupMasks() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GroupMasks() = %08X, want %08X", got, tt.want)
			}
		})
	}
}

func TestGroupMasksUnknownCode(t *testing.T) {
	if _, err := obd2.GroupMasks([]string{"NOPE"}); err == nil {
		t.Error("GroupMasks() expected error for unknown code")
	}
}
