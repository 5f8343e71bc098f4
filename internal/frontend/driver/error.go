package driver

import "fmt"

// InvalidFeedError is returned when an operation names a feed outside {1, 2}
type InvalidFeedError struct {
	Feed int
}

func NewInvalidFeedError(feed int) *InvalidFeedError {
	return &InvalidFeedError{feed}
}

func (e *InvalidFeedError) Error() string {
	return fmt.Sprintf("invalid feed %d: receiver has feeds 1 and 2", e.Feed)
}

// InvalidPolarizationError is returned when an operation names a polarization
// outside {E, H}
type InvalidPolarizationError struct {
	Pol string
}

func NewInvalidPolarizationError(pol string) *InvalidPolarizationError {
	return &InvalidPolarizationError{pol}
}

func (e *InvalidPolarizationError) Error() string {
	return fmt.Sprintf("invalid polarization %q: orthomode outputs are E and H", e.Pol)
}

// UnrecognizedOptionError is returned for option codes outside the legacy menu
type UnrecognizedOptionError struct {
	Option int
}

func NewUnrecognizedOptionError(option int) *UnrecognizedOptionError {
	return &UnrecognizedOptionError{option}
}

func (e *UnrecognizedOptionError) Error() string {
	return fmt.Sprintf("option %d not recognized", e.Option)
}

// HardwareUnavailableError is returned when an operation requires a physical
// device and no adapter is connected
type HardwareUnavailableError struct {
	Op string
}

func NewHardwareUnavailableError(op string) *HardwareUnavailableError {
	return &HardwareUnavailableError{op}
}

func (e *HardwareUnavailableError) Error() string {
	return fmt.Sprintf("%s: hardware not available", e.Op)
}

// CalibrationInputError is returned for malformed arguments to calibration
// routines
type CalibrationInputError struct {
	msg string
}

func NewCalibrationInputError(format string, args ...any) *CalibrationInputError {
	return &CalibrationInputError{fmt.Sprintf(format, args...)}
}

func (e *CalibrationInputError) Error() string {
	return e.msg
}
