package errcode

import "errors"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	NotReady      Code = "not_ready"
	UnknownPin    Code = "unknown_pin"
	Timeout       Code = "timeout"

	// Bus addressing.
	InvalidTopic      Code = "invalid_topic"
	UnknownCapability Code = "unknown_capability"
	UnknownVerb       Code = "unknown_verb"

	// HAL status classes.
	HALFail          Code = "hal_fail"
	InvalidHandle    Code = "invalid_handle"
	InProgress       Code = "in_progress"
	OutOfRange       Code = "out_of_range"
	InvalidOperation Code = "invalid_operation"
	HWError          Code = "hw_error"

	// Capture-path faults raised by the PDM interrupt.
	DMAError  Code = "dma_error"
	Overflow  Code = "fifo_overflow"
	Underflow Code = "fifo_underflow"

	// Captured frames could not be delivered.
	SinkError Code = "sink_error"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches a code and an operation name to err. A nil err stays nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
// It walks the wrap chain, so codes survive fmt.Errorf("%w").
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// FromStatus maps an Ambiq HAL status word (AM_HAL_STATUS_*) to a Code.
func FromStatus(status uint32) Code {
	switch status {
	case 0:
		return OK
	case 1:
		return HALFail
	case 2:
		return InvalidHandle
	case 3:
		return InProgress
	case 4:
		return Timeout
	case 5:
		return OutOfRange
	case 6:
		return InvalidParams
	case 7:
		return InvalidOperation
	case 8:
		return HALFail
	case 9:
		return HWError
	default:
		return Error
	}
}
