package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/obdtools/obd2emu/obd2"
)

// ParseFrame decodes a service-01 response frame echoed on the console into
// its parameter code and physical values. The line is scanned for hex byte
// tokens; everything before the 41 mode byte (Saint and CAN headers, byte
// counts) is skipped.
func ParseFrame(line string) (string, []obd2.Value, error) {
	fields := strings.Fields(line)
	raw := make([]byte, 0, len(fields))
	for _, f := range fields {
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return "", nil, errors.Wrapf(err, "parsing byte %q", f)
		}
		raw = append(raw, byte(b))
	}

	mode := -1
	for i, b := range raw {
		if b == 0x41 && i+1 < len(raw) {
			mode = i
			break
		}
	}
	if mode < 0 {
		return "", nil, errors.New("no service 01 response byte in frame")
	}

	p, err := parameterForPID(raw[mode+1])
	if err != nil {
		return "", nil, err
	}

	// Composite responses lead their data with a presence bitmask byte.
	data := raw[mode+2:]
	if p.Composite() && len(data) > 0 {
		data = data[1:]
	}

	values, err := obd2.Decode(p.Code, data)
	if err != nil {
		return "", nil, err
	}
	return p.Code, values, nil
}

// DescribeFrame renders a console-logged service-01 frame as its parameter
// code and decoded physical values, reporting false for lines that don't
// carry one.
func DescribeFrame(line string) (string, bool) {
	code, values, err := ParseFrame(line)
	if err != nil {
		return "", false
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g %s", v.Value, v.Unit)
	}
	return fmt.Sprintf("%s: %s", code, strings.Join(parts, ", ")), true
}

func parameterForPID(pid byte) (obd2.Parameter, error) {
	for _, code := range obd2.Codes() {
		p, err := obd2.Lookup(code)
		if err != nil {
			return obd2.Parameter{}, err
		}
		if p.PID == "" {
			continue
		}
		if b, err := strconv.ParseUint(p.PID, 16, 8); err == nil && byte(b) == pid {
			return p, nil
		}
	}
	return obd2.Parameter{}, errors.Errorf("no parameter with PID %02X", pid)
}
