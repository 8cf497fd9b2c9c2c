// Package pdm drives the Apollo3 PDM (pulse-density modulation) microphone
// interface through the vendor HAL. It exposes a single-buffer capture API:
//
//	d.GetData(buf)         // arm one DMA transfer (returns immediately)
//	for !d.Available() {}  // ready is signalled from the PDM interrupt
//
// Capture combines both with a bounded wait.
//
// Only one PDM block exists on the part, so Begin registers the device as the
// single target of the package-level interrupt trampoline (see Interrupt).
package pdm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"
)

// DefaultSettleDelay is the wait between enabling the block and starting DMA.
const DefaultSettleDelay = 100 * time.Millisecond

// Errors returned by the driver.
var (
	ErrInvalidArg = errors.New("pdm: invalid argument")
	ErrNotReady   = errors.New("pdm: not initialised")
	ErrUnknownPin = errors.New("pdm: unknown pin")
)

// OpError records which step of a driver operation failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "pdm: " + e.Op + ": " + e.Err.Error() }
func (e *OpError) Unwrap() error { return e.Err }

// Options controls non-hardware behaviour. All fields are optional.
type Options struct {
	// Module is the PDM instance index handed to the HAL. Apollo3 has one.
	Module uint32
	// Pads maps board pins to pads. Defaults to IdentityPads.
	Pads PadMapper
	// SettleDelay defaults to DefaultSettleDelay; negative disables it.
	SettleDelay time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Device is one PDM microphone interface.
type Device struct {
	hal    HAL
	pads   PadMapper
	module uint32

	handle    Handle
	hasHandle bool

	cfg      Config
	desynced bool

	dataPin, clockPin Pin

	settle time.Duration
	sleep  func(time.Duration)

	// Written from the interrupt path.
	ready  atomic.Bool
	done   chan struct{}
	faults faultCounters
}

// New creates a Device. It does not touch the hardware.
func New(hal HAL, opts Options) *Device {
	d := &Device{
		hal:    hal,
		pads:   opts.Pads,
		module: opts.Module,
		cfg:    DefaultConfig(),
		settle: opts.SettleDelay,
		sleep:  opts.Sleep,
		done:   make(chan struct{}, 1),
	}
	if d.pads == nil {
		d.pads = IdentityPads{}
	}
	switch {
	case d.settle == 0:
		d.settle = DefaultSettleDelay
	case d.settle < 0:
		d.settle = 0
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	return d
}

// Begin routes the data and clock pins to the PDM block, brings the
// peripheral up with the default record and unmasks its interrupts. The HAL
// handle is created on the first call only; later calls reconfigure it. The
// first failing step aborts Begin and already-routed pins are left as they are.
func (d *Device) Begin(dataPin, clockPin Pin) error {
	d.cfg = DefaultConfig()
	d.dataPin, d.clockPin = dataPin, clockPin

	if err := d.route(RoleData, dataPin); err != nil {
		return err
	}
	if err := d.route(RoleClock, clockPin); err != nil {
		return err
	}

	if !d.hasHandle {
		h, err := d.hal.Initialize(d.module)
		if err != nil {
			return &OpError{Op: "initialize", Err: err}
		}
		d.handle, d.hasHandle = h, true
	}
	if err := d.hal.PowerOn(d.handle); err != nil {
		return &OpError{Op: "power on", Err: err}
	}
	if err := d.hal.Configure(d.handle, d.cfg); err != nil {
		d.desynced = true
		return &OpError{Op: "configure", Err: err}
	}
	d.desynced = false
	if err := d.hal.Enable(d.handle); err != nil {
		return &OpError{Op: "enable", Err: err}
	}

	if err := d.hal.InterruptEnable(d.handle, captureInterrupts); err != nil {
		return &OpError{Op: "interrupt enable", Err: err}
	}
	d.hal.InterruptMasterEnable()
	d.hal.EnableIRQ()

	Register(d)
	return nil
}

func (d *Device) route(role Role, pin Pin) error {
	op := "route " + role.String() + " pin"
	pad, ok := d.pads.Pad(pin)
	if !ok {
		return &OpError{Op: op, Err: ErrUnknownPin}
	}
	fn, err := PadFuncSel(role, pad)
	if err != nil {
		return &OpError{Op: op, Err: err}
	}
	if err := d.hal.PinFunc(pad, fn); err != nil {
		return &OpError{Op: op, Err: err}
	}
	return nil
}

// Pins returns the data and clock pins given to the last Begin.
func (d *Device) Pins() (data, clock Pin) { return d.dataPin, d.clockPin }

// Handle returns the HAL handle and whether one has been created.
func (d *Device) Handle() (Handle, bool) { return d.handle, d.hasHandle }

// ---------------- Configuration ----------------

// ApplyConfig stores cfg as the configuration record and pushes all of it to
// the peripheral. On failure the record keeps cfg even though the hardware
// did not take it; Desynced reports that state until an apply succeeds.
func (d *Device) ApplyConfig(cfg Config) error {
	d.cfg = cfg
	if !d.hasHandle {
		d.desynced = true
		return ErrNotReady
	}
	if err := d.hal.Configure(d.handle, cfg); err != nil {
		d.desynced = true
		return &OpError{Op: "configure", Err: err}
	}
	d.desynced = false
	return nil
}

// Resync re-applies the current record.
func (d *Device) Resync() error { return d.ApplyConfig(d.cfg) }

// Desynced reports whether the last apply of the record failed.
func (d *Device) Desynced() bool { return d.desynced }

// Config returns a copy of the configuration record.
func (d *Device) Config() Config { return d.cfg }

// SampleRate is the PCM rate, in Hz, the current record produces.
func (d *Device) SampleRate() uint32 {
	return uint32(d.cfg.SampleRate() / physic.Hertz)
}

func (d *Device) SetClockSpeed(s ClockSpeed) error {
	d.cfg.ClockSpeed = s
	return d.ApplyConfig(d.cfg)
}

func (d *Device) ClockSpeed() ClockSpeed { return d.cfg.ClockSpeed }

func (d *Device) SetClockDivider(div ClockDivider) error {
	d.cfg.ClockDivider = div
	return d.ApplyConfig(d.cfg)
}

func (d *Device) ClockDivider() ClockDivider { return d.cfg.ClockDivider }

func (d *Device) SetLeftGain(g Gain) error {
	d.cfg.LeftGain = g
	return d.ApplyConfig(d.cfg)
}

func (d *Device) SetRightGain(g Gain) error {
	d.cfg.RightGain = g
	return d.ApplyConfig(d.cfg)
}

// SetGain sets both channels in one apply.
func (d *Device) SetGain(g Gain) error {
	d.cfg.LeftGain = g
	d.cfg.RightGain = g
	return d.ApplyConfig(d.cfg)
}

func (d *Device) LeftGain() Gain  { return d.cfg.LeftGain }
func (d *Device) RightGain() Gain { return d.cfg.RightGain }

func (d *Device) SetChannel(c Channel) error {
	d.cfg.Channel = c
	return d.ApplyConfig(d.cfg)
}

func (d *Device) Channel() Channel { return d.cfg.Channel }

func (d *Device) SetDecimationRate(rate uint32) error {
	d.cfg.DecimationRate = rate
	return d.ApplyConfig(d.cfg)
}

func (d *Device) DecimationRate() uint32 { return d.cfg.DecimationRate }

// ---------------- Capture ----------------

// GetData arms one DMA transfer into buf and returns without waiting. The
// transfer is len(buf) 16-bit samples (len(buf)*2 bytes). buf must stay
// untouched until Available reports true. Arming again before then replaces
// the outstanding transfer.
func (d *Device) GetData(buf []int16) error {
	if !d.hasHandle {
		return ErrNotReady
	}
	if err := d.hal.Enable(d.handle); err != nil {
		return &OpError{Op: "enable", Err: err}
	}
	if d.settle > 0 {
		d.sleep(d.settle)
	}
	if err := d.hal.FIFOFlush(d.handle); err != nil {
		return &OpError{Op: "fifo flush", Err: err}
	}

	// Cleared before the transfer starts so a fast completion cannot be lost.
	d.ready.Store(false)
	select {
	case <-d.done:
	default:
	}

	t := Transfer{Target: buf, TotalCount: uint32(len(buf)) * 2}
	if err := d.hal.DMAStart(d.handle, t); err != nil {
		return &OpError{Op: "dma start", Err: err}
	}
	return nil
}

// Available reports whether the last armed transfer has completed.
func (d *Device) Available() bool { return d.ready.Load() }

// Wait blocks until the armed transfer completes or ctx is done.
func (d *Device) Wait(ctx context.Context) error {
	for {
		if d.ready.Load() {
			return nil
		}
		select {
		case <-d.done:
		case <-ctx.Done():
			if d.ready.Load() {
				return nil
			}
			return ctx.Err()
		}
	}
}

// Capture arms a transfer into buf and waits for it.
func (d *Device) Capture(ctx context.Context, buf []int16) error {
	if err := d.GetData(buf); err != nil {
		return err
	}
	return d.Wait(ctx)
}
