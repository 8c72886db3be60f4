package emulation_test

import (
	"testing"

	"github.com/obdtools/obd2emu/emulation"
	"github.com/obdtools/obd2emu/obd2"
)

func TestRequestFrame(t *testing.T) {
	tests := []struct {
		name  string
		width int
		code  string
		want  string
	}{
		{
			"11-bit coolant temp",
			obd2.CAN11,
			"ECT",
			"51 07 DF 02 01 05 00 00 00 00 00",
		},
		{
			"29-bit rpm",
			obd2.CAN29,
			"RPM",
			"51 98 DB 33 F1 02 01 0C 00 00 00 00 00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := emulation.RequestFrame(tt.width, tt.code)
			if err != nil {
				t.Fatalf("RequestFrame() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RequestFrame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestFrameErrors(t *testing.T) {
	if _, err := emulation.RequestFrame(obd2.CAN11, "VIN"); err == nil {
		t.Error("RequestFrame() expected error for a parameter with no PID")
	}
	if _, err := emulation.RequestFrame(15, "RPM"); err == nil {
		t.Error("RequestFrame() expected error for an invalid CAN identifier width")
	}
}

func TestResponseFrame(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		code   string
		values []float64
		want   string
	}{
		{
			"coolant temp at freezing",
			obd2.CAN11,
			"ECT",
			[]float64{0},
			"53 07 E8 03 41 05 28 00 00 00 00",
		},
		{
			"800 rpm",
			obd2.CAN11,
			"RPM",
			[]float64{800},
			"53 07 E8 04 41 0C 0C 80 00 00 00",
		},
		{
			"29-bit 800 rpm",
			obd2.CAN29,
			"RPM",
			[]float64{800},
			"53 98 DA F1 33 04 41 0C 0C 80 00 00 00",
		},
		{
			"lamp on",
			obd2.CAN11,
			"MIL",
			[]float64{1},
			"53 07 E8 06 41 01 80 00 00 00 00",
		},
		{
			"exhaust fluid leads with presence bitmask",
			obd2.CAN11,
			"DEF",
			[]float64{10, 50, 75},
			"53 07 E8 06 41 9B 07 28 5A BF 00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := emulation.ResponseFrame(tt.width, tt.code, tt.values...)
			if err != nil {
				t.Fatalf("ResponseFrame() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResponseFrame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseFrameTooLarge(t *testing.T) {
	// The engine run time counters need 15 data bytes and must go through a
	// group file.
	if _, err := emulation.ResponseFrame(obd2.CAN11, "ERT", 1, 2, 3); err == nil {
		t.Error("ResponseFrame() expected error for a multi-frame parameter")
	}
}

func TestSupportedPIDFrames(t *testing.T) {
	masks, err := obd2.GroupMasks([]string{"RPM"})
	if err != nil {
		t.Fatal(err)
	}

	frames, err := emulation.SupportedPIDFrames(obd2.CAN11, masks)
	if err != nil {
		t.Fatalf("SupportedPIDFrames() error = %v", err)
	}
	if len(frames) != 6 {
		t.Fatalf("SupportedPIDFrames() returned %d pairs, want 6", len(frames))
	}

	wantReq := "51 07 DF 02 01 00 00 00 00 00 00"
	wantResp := "53 07 E8 06 41 00 00 10 00 00 00"
	if frames[0][0] != wantReq {
		t.Errorf("request = %q, want %q", frames[0][0], wantReq)
	}
	if frames[0][1] != wantResp {
		t.Errorf("response = %q, want %q", frames[0][1], wantResp)
	}

	// The remaining groups have no enabled PIDs.
	wantEmpty := "53 07 E8 06 41 20 00 00 00 00 00"
	if frames[1][1] != wantEmpty {
		t.Errorf("response = %q, want %q", frames[1][1], wantEmpty)
	}
}
