package emulation_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/obdtools/obd2emu/emulation"
	"github.com/obdtools/obd2emu/obd2"
)

func newPrimedCycle(t *testing.T) (*emulation.DriveCycle, *emulation.Builder) {
	t.Helper()

	b, err := emulation.NewBuilder(obd2.CAN11, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err = b.BuildFile([]emulation.Request{{Code: "VSS"}}); err != nil {
		t.Fatal(err)
	}

	cycle := emulation.NewDriveCycle(b, 10*time.Millisecond, nil)
	if err = cycle.Prime(); err != nil {
		t.Fatalf("Prime() error = %v", err)
	}
	return cycle, b
}

func TestDriveCyclePrime(t *testing.T) {
	cycle, b := newPrimedCycle(t)

	content, err := os.ReadFile(b.EmulationFile())
	if err != nil {
		t.Fatal(err)
	}
	rows := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	if !strings.HasPrefix(rows[0], "=== Drive Cycle RPM & TES ===") {
		t.Errorf("first row = %q, want the drive cycle marker", rows[0])
	}

	rpmGroup := filepath.Join(b.Dir(), "RPM.grp")
	wantRPM := "51 07 DF 02 01 0C 00 00 00 00 00,Group," + rpmGroup + ",True"
	if rows[1] != wantRPM {
		t.Errorf("RPM row = %q, want %q", rows[1], wantRPM)
	}

	tesGroup := filepath.Join(b.Dir(), "TES.grp")
	wantTES := "51 07 DF 02 01 1F 00 00 00 00 00,Group," + tesGroup + ",True"
	if rows[2] != wantTES {
		t.Errorf("TES row = %q, want %q", rows[2], wantTES)
	}

	// The engine has been running for one second at prime time.
	tes, err := os.ReadFile(tesGroup)
	if err != nil {
		t.Fatal(err)
	}
	if want := "0010 53 07 E8 04 41 1F 00 01 00 00 00"; string(tes) != want {
		t.Errorf("TES group file = %q, want %q", tes, want)
	}

	rpm, err := os.ReadFile(rpmGroup)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(rpm), "0010 53 07 E8 04 41 0C ") {
		t.Errorf("RPM group file = %q, want a single response frame", rpm)
	}

	// Priming again must not duplicate the rows.
	if err = cycle.Prime(); err != nil {
		t.Fatalf("second Prime() error = %v", err)
	}
	again, err := os.ReadFile(b.EmulationFile())
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(content) {
		t.Error("second Prime() changed the emulation file")
	}
}

func TestDriveCyclePrimeWithoutEmulationFile(t *testing.T) {
	b, err := emulation.NewBuilder(obd2.CAN11, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cycle := emulation.NewDriveCycle(b, 0, nil)
	if err = cycle.Prime(); err == nil {
		t.Error("Prime() expected error when the emulation file is missing")
	}
}

func TestDriveCycleRun(t *testing.T) {
	cycle, b := newPrimedCycle(t)

	// Remove the primed group files so the run provably rewrites them.
	rpmGroup := filepath.Join(b.Dir(), "RPM.grp")
	tesGroup := filepath.Join(b.Dir(), "TES.grp")
	if err := os.Remove(rpmGroup); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(tesGroup); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := cycle.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run() error = %v, want %v", err, context.DeadlineExceeded)
	}

	for _, name := range []string{rpmGroup, tesGroup} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("Run() never rewrote %s: %v", filepath.Base(name), err)
		}
	}
}
