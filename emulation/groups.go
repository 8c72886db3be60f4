package emulation

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/obdtools/obd2emu/obd2"
	"github.com/pkg/errors"
)

// Frame delays written at the start of each group file line, in the
// monitor's 4-digit tick format.
const (
	groupFrameDelay = "0010"
	vinFrameDelay   = "0001"
)

// Group file frame headers. The run-time group keeps the transmit-side
// header the original tool emits; VIN and DTC responses use the plain
// receive header.
func (b *Builder) runTimeGroupHeader() []byte {
	if b.width == obd2.CAN29 {
		return append([]byte{HeaderTXTimestamp}, can29TX...)
	}
	return append([]byte{HeaderRXTimestamp}, can11TX...)
}

func (b *Builder) responseGroupHeader() []byte {
	if b.width == obd2.CAN29 {
		return append([]byte{HeaderRX}, can29TX...)
	}
	return append([]byte{HeaderRX}, can11TX...)
}

// writeRunTimeGroup writes the multi-frame group file carrying the three
// engine run time counters and returns its path.
func (b *Builder) writeRunTimeGroup(values []float64) (string, error) {
	p, err := obd2.Lookup("ERT")
	if err != nil {
		return "", err
	}

	data, err := obd2.Encode("ERT", values...)
	if err != nil {
		return "", err
	}

	hdr := hexBytes(b.runTimeGroupHeader())
	lines := []string{
		// First frame: frame number, byte count, mode, PID, counter count,
		// then the first three data bytes.
		fmt.Sprintf("%s %s 10 %02X %02X %s 03 %s", groupFrameDelay, hdr,
			p.ByteCount, ModeCurrentDataResp, p.PID, hexBytes(data[:3])),
		fmt.Sprintf("%s %s 21 %s", groupFrameDelay, hdr, hexBytes(data[3:10])),
		fmt.Sprintf("%s %s 22 %s", groupFrameDelay, hdr, hexBytes(pad(data[10:], 7))),
	}

	clamped := make([]int64, len(p.Fields))
	for i, f := range p.Fields {
		v := f.Min
		if i < len(values) {
			v = obd2.Clamp(values[i], f)
		}
		clamped[i] = int64(v)
	}
	name := filepath.Join(b.Dir(), fmt.Sprintf("ENGINE_RUNTIME_%d_%d_%d.grp",
		clamped[0], clamped[1], clamped[2]))

	if err = b.writeGroupFile(name, lines); err != nil {
		return "", err
	}
	return name, nil
}

// vinRow writes the VIN group file and returns the emulation row pairing the
// mode-09 request with it. The 17 VIN characters are sent as ASCII split
// across three frames.
func (b *Builder) vinRow(vin string) (string, error) {
	if err := obd2.ValidateVIN(vin); err != nil {
		return "", err
	}

	rx := []byte{HeaderRXTimestamp}
	if b.width == obd2.CAN29 {
		rx = append(rx, can29RX...)
	} else {
		rx = append(rx, can11RX...)
	}
	rx = append(rx, 0x02, ModeVIN, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00)

	hdr := hexBytes(b.responseGroupHeader())
	data := []byte(vin)
	lines := []string{
		fmt.Sprintf("%s %s 10 14 %02X 02 01 %s", vinFrameDelay, hdr, ModeVINResp, hexBytes(data[:3])),
		fmt.Sprintf("%s %s 21 %s", vinFrameDelay, hdr, hexBytes(data[3:10])),
		fmt.Sprintf("%s %s 22 %s", vinFrameDelay, hdr, hexBytes(data[10:])),
	}

	name := filepath.Join(b.Dir(), vin+"_VIN.grp")
	if err := b.writeGroupFile(name, lines); err != nil {
		return "", err
	}
	return row(hexBytes(rx), optionGroup, name, false), nil
}

// dtcRow writes the DTC group file and returns the emulation row pairing the
// mode-03 request with it. Each trouble code packs into two bytes; codes are
// split across as many consecutive frames as needed.
func (b *Builder) dtcRow(dtcs []string) (string, error) {
	if len(dtcs) == 0 {
		return "", errors.New("at least one DTC is required")
	}

	var data []byte
	for _, dtc := range dtcs {
		bb, err := obd2.EncodeDTC(dtc)
		if err != nil {
			return "", err
		}
		data = append(data, bb[0], bb[1])
	}

	rx := []byte{HeaderRXTimestamp}
	if b.width == obd2.CAN29 {
		rx = append(rx, can29RX...)
	} else {
		rx = append(rx, can11RX...)
	}
	rx = append(rx, 0x01, ModeDTC, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)

	hdr := hexBytes(b.responseGroupHeader())
	count := len(dtcs)
	first := data
	if len(first) > 4 {
		first = first[:4]
	}
	lines := []string{
		fmt.Sprintf("%s %s 10 %02X %02X %02X %s", groupFrameDelay, hdr,
			len(data)+2, ModeDTCResp, count, hexBytes(pad(first, 4))),
	}
	rest := data[len(first):]
	for frame := 0x21; len(rest) > 0; frame++ {
		chunk := rest
		if len(chunk) > 7 {
			chunk = chunk[:7]
		}
		rest = rest[len(chunk):]
		lines = append(lines, fmt.Sprintf("%s %s %X %s", groupFrameDelay, hdr,
			frame, hexBytes(pad(chunk, 7))))
	}

	// A random letter keeps files for different code sets from colliding.
	letter := 'A' + rune(rand.Intn(26))
	name := filepath.Join(b.Dir(), fmt.Sprintf("DTCx%d_%c.grp", count, letter))
	if err := b.writeGroupFile(name, lines); err != nil {
		return "", err
	}
	return row(hexBytes(rx), optionGroup, name, false), nil
}

// WriteParameterGroup writes a single-frame group file for a parameter whose
// value is rewritten on the fly, like the drive cycle's RPM and TES, and
// returns its path.
func (b *Builder) WriteParameterGroup(code string, value float64) (string, error) {
	p, err := obd2.Lookup(strings.ToUpper(code))
	if err != nil {
		return "", err
	}

	data, err := obd2.Encode(p.Code, value)
	if err != nil {
		return "", err
	}

	hdr := []byte{HeaderTXTimestamp}
	if b.width == obd2.CAN29 {
		hdr = append(hdr, can29TX...)
	} else {
		hdr = append(hdr, can11TX...)
	}

	line := fmt.Sprintf("%s %s %02X %02X %s %s", groupFrameDelay, hexBytes(hdr),
		p.ByteCount, ModeCurrentDataResp, p.PID, hexBytes(pad(data, 5)))

	name := filepath.Join(b.Dir(), p.Code+".grp")
	if err = b.writeGroupFile(name, []string{line}); err != nil {
		return "", err
	}
	return name, nil
}

func (b *Builder) writeGroupFile(name string, lines []string) error {
	if err := os.MkdirAll(b.Dir(), 0o755); err != nil {
		return errors.Wrap(err, "creating emulation directory")
	}
	content := strings.Join(lines, "\n")
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "writing group file %s", filepath.Base(name))
	}
	return nil
}

func pad(b []byte, n int) []byte {
	for len(b) < n {
		b = append(b, 0x00)
	}
	return b
}
