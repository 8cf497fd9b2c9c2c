package pdm

import (
	"strconv"

	"apollo3-go/errcode"
)

// Status is the vendor HAL result word (AM_HAL_STATUS_*). Zero is success;
// every other value implements error so it can travel through the usual
// error returns and be recovered with errors.As.
type Status uint32

const (
	StatusSuccess Status = iota
	StatusFail
	StatusInvalidHandle
	StatusInProgress
	StatusTimeout
	StatusOutOfRange
	StatusInvalidArg
	StatusInvalidOperation
	StatusMemErr
	StatusHWErr
)

var statusNames = [...]string{
	"success",
	"fail",
	"invalid handle",
	"in progress",
	"timeout",
	"out of range",
	"invalid argument",
	"invalid operation",
	"memory error",
	"hardware error",
}

func (s Status) Error() string {
	if int(s) < len(statusNames) {
		return "am_hal: " + statusNames[s]
	}
	return "am_hal: status " + strconv.FormatUint(uint64(s), 10)
}

// Code maps the status onto the bus-facing error codes.
func (s Status) Code() errcode.Code { return errcode.FromStatus(uint32(s)) }

// Err converts a raw status word into an error (nil for success).
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return s
}

// Handle is the opaque peripheral handle owned by the vendor HAL.
type Handle uintptr

// Interrupt source bits (PDM INTEN/INTSTAT).
const (
	IntThreshold   uint32 = 0x01
	IntOverflow    uint32 = 0x02
	IntUnderflow   uint32 = 0x04
	IntDMAComplete uint32 = 0x08
	IntDMAError    uint32 = 0x10
)

// captureInterrupts is the set Begin unmasks.
const captureInterrupts = IntDMAError | IntDMAComplete | IntUnderflow | IntOverflow

// Transfer describes one DMA capture into caller memory.
// TotalCount is in bytes, as the DMA engine counts them.
type Transfer struct {
	Target     []int16
	TotalCount uint32
}

// Pad is a physical Apollo3 pad number.
type Pad uint8

// Pin is a board-level pin identifier. The board maps pins to pads.
type Pin uint8

// FuncSel is a pad function-select code.
type FuncSel uint8

// HAL is the subset of the vendor HAL the driver sequences. Methods return
// nil on success and a Status (or a wrapped one) on failure.
type HAL interface {
	Initialize(module uint32) (Handle, error)
	PowerOn(h Handle) error
	Configure(h Handle, cfg Config) error
	Enable(h Handle) error
	Disable(h Handle) error

	InterruptEnable(h Handle, mask uint32) error
	// InterruptStatus returns the pending enabled sources. The read also
	// clears them on the Apollo3 implementation.
	InterruptStatus(h Handle) (uint32, error)
	InterruptClear(h Handle, mask uint32) error

	FIFOFlush(h Handle) error
	DMAStart(h Handle, t Transfer) error

	// InterruptMasterEnable unmasks interrupts globally; EnableIRQ unmasks
	// the PDM line at the interrupt controller.
	InterruptMasterEnable()
	EnableIRQ()

	// PinFunc routes a pad to the given function.
	PinFunc(pad Pad, fn FuncSel) error
}

// PadMapper maps a board pin to its physical pad.
type PadMapper interface {
	Pad(pin Pin) (Pad, bool)
}

// IdentityPads is a PadMapper for boards whose pin numbers are pad numbers.
type IdentityPads struct{}

func (IdentityPads) Pad(pin Pin) (Pad, bool) { return Pad(pin), true }
