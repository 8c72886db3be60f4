package obd2

import "strings"

// CAN identifier widths for the two supported frame header formats.
const (
	CAN11 = 11
	CAN29 = 29
)

const (
	// VINLength is the required length of a vehicle identification number.
	VINLength = 17
	// DTCLength is the required length of a diagnostic trouble code string.
	DTCLength = 5
)

// dtcSystems maps a trouble code's leading letter to its 2-bit system value.
var dtcSystems = map[byte]byte{'P': 0, 'C': 1, 'B': 2, 'U': 3}

// ValidateVIN checks that a VIN is exactly 17 characters.
func ValidateVIN(vin string) error {
	if len(vin) != VINLength {
		return &InvalidVINError{Value: vin}
	}
	return nil
}

// ValidateDTC checks that a trouble code is 5 characters, starts with
// P, C, B, or U, and that its digits are valid: the second character must
// be 0-3 and the remaining three must be hex digits.
func ValidateDTC(dtc string) error {
	if len(dtc) != DTCLength {
		return &InvalidDTCError{Value: dtc}
	}
	if _, ok := dtcSystems[upperByte(dtc[0])]; !ok {
		return &InvalidDTCError{Value: dtc}
	}
	if d, ok := hexDigit(dtc[1]); !ok || d > 3 {
		return &InvalidDTCError{Value: dtc}
	}
	for i := 2; i < DTCLength; i++ {
		if _, ok := hexDigit(dtc[i]); !ok {
			return &InvalidDTCError{Value: dtc}
		}
	}
	return nil
}

// ValidateCANID checks that a CAN identifier width is 11 or 29 bits.
func ValidateCANID(width int) error {
	if width != CAN11 && width != CAN29 {
		return &InvalidCANIDError{Width: width}
	}
	return nil
}

// EncodeDTC packs a trouble code string into its two wire bytes. The system
// letter occupies bits 7-6 of the first byte, the second digit bits 5-4, and
// the remaining three digits fill the low nibble and the second byte.
func EncodeDTC(dtc string) ([2]byte, error) {
	if err := ValidateDTC(dtc); err != nil {
		return [2]byte{}, err
	}

	system := dtcSystems[upperByte(dtc[0])]
	d1, _ := hexDigit(dtc[1])
	d2, _ := hexDigit(dtc[2])
	d3, _ := hexDigit(dtc[3])
	d4, _ := hexDigit(dtc[4])

	return [2]byte{system<<6 | d1<<4 | d2, d3<<4 | d4}, nil
}

// DecodeDTC unpacks two wire bytes into a trouble code string like "P0101".
// Two zero bytes mean "no code" and decode to the empty string.
func DecodeDTC(a, b byte) string {
	if a == 0 && b == 0 {
		return ""
	}

	const hexDigits = "0123456789ABCDEF"
	systems := [4]byte{'P', 'C', 'B', 'U'}

	return string([]byte{
		systems[(a>>6)&0x03],
		'0' + (a>>4)&0x03,
		hexDigits[a&0x0F],
		hexDigits[(b>>4)&0x0F],
		hexDigits[b&0x0F],
	})
}

func upperByte(b byte) byte {
	return strings.ToUpper(string(b))[0]
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}
