package emulation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/obdtools/obd2emu/obd2"
	"github.com/pkg/errors"
)

// Row options understood by the SAINT Bus Monitor.
const (
	optionTransmit = "Transmit"
	optionGroup    = "Group"
)

// Request names a parameter to emulate and the values it should report.
type Request struct {
	Code string

	// Values holds one frame's worth of physical values per entry; composite
	// parameters take one value per field. When empty, frames for the
	// parameter's minimum and maximum are generated instead.
	Values [][]float64

	// VIN is the vehicle identification number, used when Code is "VIN".
	VIN string

	// DTCs are the active trouble codes, used when Code is "DTC".
	DTCs []string
}

// Builder generates emulation files for one CAN identifier width. Files are
// written under <root>/CAN<width>/.
type Builder struct {
	width int
	root  string
}

// NewBuilder returns a Builder for the given CAN identifier width.
func NewBuilder(width int, root string) (*Builder, error) {
	if err := obd2.ValidateCANID(width); err != nil {
		return nil, err
	}
	return &Builder{width: width, root: root}, nil
}

// Width returns the builder's CAN identifier width.
func (b *Builder) Width() int { return b.width }

// Dir returns the directory the builder writes into.
func (b *Builder) Dir() string {
	return filepath.Join(b.root, fmt.Sprintf("CAN%d", b.width))
}

// EmulationFile returns the path of the emulation file the builder writes.
func (b *Builder) EmulationFile() string {
	return filepath.Join(b.Dir(), fmt.Sprintf("CAN%d_emulation.emu", b.width))
}

// BuildFile generates the emulation file for the given requests, along with
// any group files their values need, and returns the emulation file's path.
func (b *Builder) BuildFile(requests []Request) (string, error) {
	rows, err := b.Rows(requests)
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(b.Dir(), 0o755); err != nil {
		return "", errors.Wrap(err, "creating emulation directory")
	}

	name := b.EmulationFile()
	content := strings.Join(rows, "\n") + "\n"
	if err = os.WriteFile(name, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, "writing emulation file")
	}
	return name, nil
}

// Rows generates the emulation file rows for the given requests: the
// supported-PID section first, then a labeled section per parameter with one
// request/response row per value. Group-file rows reference files written
// under the builder's directory.
func (b *Builder) Rows(requests []Request) ([]string, error) {
	codes := make([]string, len(requests))
	for i, r := range requests {
		codes[i] = strings.ToUpper(r.Code)
	}

	masks, err := obd2.GroupMasks(codes)
	if err != nil {
		return nil, err
	}
	supported, err := SupportedPIDFrames(b.width, masks)
	if err != nil {
		return nil, err
	}

	rows := []string{labelRow("Supported PIDs")}
	for _, f := range supported {
		rows = append(rows, row(f[0], optionTransmit, f[1], true))
	}

	for i, req := range requests {
		p, err := obd2.Lookup(codes[i])
		if err != nil {
			return nil, err
		}

		rows = append(rows, labelRow(fmt.Sprintf("%s (%s)", p.Name, p.Code)))

		switch p.Code {
		case "VIN":
			r, err := b.vinRow(req.VIN)
			if err != nil {
				return nil, err
			}
			rows = append(rows, r)
		case "DTC":
			r, err := b.dtcRow(req.DTCs)
			if err != nil {
				return nil, err
			}
			rows = append(rows, r)
		default:
			values := req.Values
			if len(values) == 0 {
				values = [][]float64{mins(p), maxs(p)}
			}
			for _, v := range values {
				r, err := b.parameterRow(p, v)
				if err != nil {
					return nil, err
				}
				rows = append(rows, r)
			}
		}
	}
	return rows, nil
}

func (b *Builder) parameterRow(p obd2.Parameter, values []float64) (string, error) {
	rx, err := RequestFrame(b.width, p.Code)
	if err != nil {
		return "", err
	}

	// Values too large for a single frame go through a group file.
	if p.ByteCount > 6 {
		path, err := b.writeRunTimeGroup(values)
		if err != nil {
			return "", err
		}
		return row(rx, optionGroup, path, false), nil
	}

	tx, err := ResponseFrame(b.width, p.Code, values...)
	if err != nil {
		return "", err
	}
	return row(rx, optionTransmit, tx, false), nil
}

func row(rx, option, tx string, enabled bool) string {
	e := "False"
	if enabled {
		e = "True"
	}
	return fmt.Sprintf("%s,%s,%s,%s", rx, option, tx, e)
}

func labelRow(label string) string {
	l := fmt.Sprintf("=== %s ===", label)
	return fmt.Sprintf("%s,%s,%s,False", l, optionTransmit, l)
}

func mins(p obd2.Parameter) []float64 {
	vs := make([]float64, len(p.Fields))
	for i, f := range p.Fields {
		vs[i] = f.Min
	}
	return vs
}

func maxs(p obd2.Parameter) []float64 {
	vs := make([]float64, len(p.Fields))
	for i, f := range p.Fields {
		vs[i] = f.Max
	}
	return vs
}
