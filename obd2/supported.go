package obd2

import "strconv"

// SupportedPIDs lists the mode-01 bitmask request codes in ascending order.
// Each request covers the 32 PIDs following it; bit 0 of a response chains
// to the next request code.
var SupportedPIDs = [6]string{"00", "20", "40", "60", "80", "A0"}

// SupportedPIDGroup returns the bitmask group index for a supported-PID
// request code. Codes outside the known set fail with InvalidGroupPIDError.
func SupportedPIDGroup(code string) (int, error) {
	for i, c := range SupportedPIDs {
		if c == code {
			return i, nil
		}
	}
	return 0, &InvalidGroupPIDError{Code: code}
}

// GroupMasks computes the supported-PID bitmask for each group from a set of
// parameter codes. A parameter's enable bit is 1 << (group base + 0x20 - pid)
// within its group; enabling a PID in a later group also sets the chain bit
// of the preceding group. VIN and DTC carry no mode-01 PID and are skipped.
func GroupMasks(codes []string) ([6]uint32, error) {
	var masks [6]uint32

	for _, code := range codes {
		p, err := Lookup(code)
		if err != nil {
			return masks, err
		}
		if p.PID == "" {
			continue
		}

		pid, err := strconv.ParseUint(p.PID, 16, 8)
		if err != nil {
			return masks, &InvalidParameterError{Code: code}
		}

		for i, base := range SupportedPIDs {
			b, _ := strconv.ParseUint(base, 16, 8)
			if pid > b+0x20 {
				continue
			}

			masks[i] |= 1 << uint(b+0x20-pid)
			if i > 0 {
				masks[i-1] |= 1
			}
			break
		}
	}

	return masks, nil
}
