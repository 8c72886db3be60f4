package obd2

import "fmt"

// InvalidParameterError is returned when a parameter code is missing from the
// registry. A valid parameter must have a name, bounds, and scaling.
type InvalidParameterError struct {
	Code string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("'%s' is an invalid parameter name.", e.Code)
}

// InvalidVINError is returned when a VIN is validated and isn't a string of
// exactly 17 characters.
type InvalidVINError struct {
	Value string
}

func (e *InvalidVINError) Error() string {
	return fmt.Sprintf("'%s' is an invalid VIN. VIN must contain 17 characters.", e.Value)
}

// InvalidDTCError is returned when a diagnostic trouble code doesn't start
// with P, C, B, or U, or isn't 5 characters long.
type InvalidDTCError struct {
	Value string
}

func (e *InvalidDTCError) Error() string {
	return fmt.Sprintf("'%s' is an invalid DTC.", e.Value)
}

// InvalidCANIDError is returned when a CAN identifier width other than
// 11 or 29 bits is requested.
type InvalidCANIDError struct {
	Width int
}

func (e *InvalidCANIDError) Error() string {
	return fmt.Sprintf("'%d' is an invalid CAN ID, must be 11 or 29", e.Width)
}

// InvalidScalingError is returned when a parameter has no recognized
// scaling unit.
type InvalidScalingError struct {
	Code string
}

func (e *InvalidScalingError) Error() string {
	return fmt.Sprintf("'%s' has no associated scaling unit.", e.Code)
}

// InvalidGroupPIDError is returned when a supported-PID group is requested
// for a code outside the known bitmask request codes.
type InvalidGroupPIDError struct {
	Code string
}

func (e *InvalidGroupPIDError) Error() string {
	return fmt.Sprintf("'%s' is not a valid group PID.", e.Code)
}
