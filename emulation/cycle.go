package emulation

import (
	"context"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Logger logs debug output from long running operations.
type Logger interface {
	Debug(message string)
	Debugf(message string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(message string)                       {}
func (nopLogger) Debugf(message string, args ...interface{}) {}

type defaultLogger struct {
	l *log.Logger
}

func (l *defaultLogger) Debug(message string) {
	l.l.Print(message)
}

func (l *defaultLogger) Debugf(message string, args ...interface{}) {
	l.l.Printf(message, args...)
}

// DefaultLogger returns a Logger that writes to the given output.
var DefaultLogger = func(out io.Writer) Logger {
	return &defaultLogger{log.New(out, "EMULATION ", log.LstdFlags)}
}

// markerRow is prepended to the emulation file so the drive cycle rows are
// only ever added once.
const markerRow = "=== Drive Cycle RPM & TES ===,Transmit,=== DO NOT DISABLE ===,False"

// DriveCycle periodically rewrites the RPM and engine run time group files so
// an attached scan tool sees a running engine instead of static values.
type DriveCycle struct {
	Builder  *Builder
	Interval time.Duration
	Logger   Logger

	rand *rand.Rand
	tes  float64
}

const defaultInterval = 3 * time.Second

func NewDriveCycle(b *Builder, interval time.Duration, l Logger) *DriveCycle {
	if interval <= 0 {
		interval = defaultInterval
	}
	if l == nil {
		l = nopLogger{}
	}
	return &DriveCycle{
		Builder:  b,
		Interval: interval,
		Logger:   l,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		tes:      1,
	}
}

// Prime inserts the RPM and TES group rows at the top of the emulation file
// if they are not already present. The emulation file must exist.
func (d *DriveCycle) Prime() error {
	name := d.Builder.EmulationFile()
	content, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "reading emulation file, build it first")
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) > 0 && lines[0] == markerRow {
		return nil
	}

	rpmRow, err := d.groupRow("RPM", float64(d.randRPM()))
	if err != nil {
		return err
	}
	tesRow, err := d.groupRow("TES", d.tes)
	if err != nil {
		return err
	}

	lines = append([]string{markerRow, rpmRow, tesRow}, lines...)
	return errors.Wrap(os.WriteFile(name, []byte(strings.Join(lines, "\n")+"\n"), 0o644),
		"writing emulation file")
}

// Run rewrites the RPM group file with a random value and advances the engine
// run time on every interval until the context is cancelled.
func (d *DriveCycle) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := d.Builder.WriteParameterGroup("RPM", float64(d.randRPM())); err != nil {
			return err
		}
		if _, err := d.Builder.WriteParameterGroup("TES", d.tes); err != nil {
			return err
		}
		d.tes += d.Interval.Seconds()

		d.Logger.Debugf("drive cycle running for %s", time.Since(start).Round(time.Second))
	}
}

func (d *DriveCycle) groupRow(code string, value float64) (string, error) {
	path, err := d.Builder.WriteParameterGroup(code, value)
	if err != nil {
		return "", err
	}
	rx, err := RequestFrame(d.Builder.Width(), code)
	if err != nil {
		return "", err
	}
	return row(rx, optionGroup, path, true), nil
}

func (d *DriveCycle) randRPM() int {
	return 1000 + d.rand.Intn(3001)
}
