// Package emulation builds SAINT Bus Monitor emulation files: text files of
// OBD2 request/response CAN frame pairs, plus multi-frame group files for
// values that don't fit a single frame.
package emulation

import (
	"fmt"
	"strings"

	"github.com/obdtools/obd2emu/obd2"
	"github.com/pkg/errors"
)

// Saint frame headers.
const (
	HeaderRX          byte = 0x50
	HeaderRXTimestamp byte = 0x51
	HeaderTX          byte = 0x52
	HeaderTXTimestamp byte = 0x53
)

// Frame modes.
const (
	ModeCurrentData     byte = 0x01
	ModeDTC             byte = 0x03
	ModeVIN             byte = 0x09
	ModeCurrentDataResp byte = 0x41
	ModeDTCResp         byte = 0x43
	ModeVINResp         byte = 0x49
)

// CAN frame headers for the two supported identifier widths.
var (
	can11RX = []byte{0x07, 0xDF}
	can11TX = []byte{0x07, 0xE8}
	can29RX = []byte{0x98, 0xDB, 0x33, 0xF1}
	can29TX = []byte{0x98, 0xDA, 0xF1, 0x33}
)

func canHeaders(width int) (rx, tx []byte, err error) {
	switch width {
	case obd2.CAN11:
		return can11RX, can11TX, nil
	case obd2.CAN29:
		return can29RX, can29TX, nil
	}
	return nil, nil, &obd2.InvalidCANIDError{Width: width}
}

// RequestFrame renders the receive frame polling a mode-01 parameter.
func RequestFrame(width int, code string) (string, error) {
	p, err := obd2.Lookup(code)
	if err != nil {
		return "", err
	}
	if p.PID == "" {
		return "", errors.Errorf("%s is not a mode-01 parameter", code)
	}

	rx, _, err := canHeaders(width)
	if err != nil {
		return "", err
	}

	frame := []byte{HeaderRXTimestamp}
	frame = append(frame, rx...)
	frame = append(frame, 0x02, ModeCurrentData)
	frame = append(frame, mustPIDByte(p))
	frame = append(frame, 0x00, 0x00, 0x00, 0x00, 0x00)
	return hexBytes(frame), nil
}

// ResponseFrame renders the transmit frame answering a mode-01 poll with the
// given physical value(s). Values are scaled and clamped by obd2.Encode; a
// parameter whose data doesn't fit the four frame data bytes must go through
// a group file instead.
func ResponseFrame(width int, code string, values ...float64) (string, error) {
	p, err := obd2.Lookup(code)
	if err != nil {
		return "", err
	}
	if p.ByteCount > 6 {
		return "", errors.Errorf("%s needs a group file, its value doesn't fit one frame", code)
	}

	_, tx, err := canHeaders(width)
	if err != nil {
		return "", err
	}

	data, err := obd2.Encode(code, values...)
	if err != nil {
		return "", err
	}
	// A composite single-frame parameter leads its data with a presence
	// bitmask, one bit per field.
	if p.Composite() {
		data = append([]byte{byte(1<<len(p.Fields)) - 1}, data...)
	}

	frame := []byte{HeaderTXTimestamp}
	frame = append(frame, tx...)
	frame = append(frame, byte(p.ByteCount), ModeCurrentDataResp)
	frame = append(frame, mustPIDByte(p))
	frame = append(frame, data...)
	for i := 0; i < 7-p.ByteCount; i++ {
		frame = append(frame, 0x00)
	}
	return hexBytes(frame), nil
}

// SupportedPIDFrames renders the request/response pair for each of the six
// supported-PID bitmask groups.
func SupportedPIDFrames(width int, masks [6]uint32) ([][2]string, error) {
	rx, tx, err := canHeaders(width)
	if err != nil {
		return nil, err
	}

	frames := make([][2]string, len(masks))
	for i, mask := range masks {
		group, err := groupPIDByte(i)
		if err != nil {
			return nil, err
		}

		req := []byte{HeaderRXTimestamp}
		req = append(req, rx...)
		req = append(req, 0x02, ModeCurrentData, group)
		req = append(req, 0x00, 0x00, 0x00, 0x00, 0x00)

		resp := []byte{HeaderTXTimestamp}
		resp = append(resp, tx...)
		resp = append(resp, 0x06, ModeCurrentDataResp, group)
		resp = append(resp, byte(mask>>24), byte(mask>>16), byte(mask>>8), byte(mask))
		resp = append(resp, 0x00)

		frames[i] = [2]string{hexBytes(req), hexBytes(resp)}
	}
	return frames, nil
}

func groupPIDByte(i int) (byte, error) {
	if i < 0 || i >= len(obd2.SupportedPIDs) {
		return 0, &obd2.InvalidGroupPIDError{Code: fmt.Sprintf("%d", i)}
	}
	b, err := parseHexByte(obd2.SupportedPIDs[i])
	if err != nil {
		return 0, err
	}
	return b, nil
}

func mustPIDByte(p obd2.Parameter) byte {
	b, _ := parseHexByte(p.PID)
	return b
}

func parseHexByte(s string) (byte, error) {
	var b byte
	if _, err := fmt.Sscanf(s, "%02X", &b); err != nil {
		return 0, errors.Wrapf(err, "parsing hex byte %q", s)
	}
	return b, nil
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, bb := range b {
		parts[i] = fmt.Sprintf("%02X", bb)
	}
	return strings.Join(parts, " ")
}
