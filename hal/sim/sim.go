// hal/sim/sim.go
//go:build !tinygo

// Package sim is an in-memory PDM peripheral for host runs and tests. It
// implements pdm.HAL, fills DMA targets with a synthetic tone and raises the
// PDM interrupt through pdm.Interrupt like the vector would.
package sim

import (
	"math"
	"sync"
	"time"

	"apollo3-go/drivers/pdm"
)

// Tone parameters for generated samples.
const (
	DefaultToneHz    = 1000
	DefaultAmplitude = 4000 // at 0 dB
)

// PDM is a simulated PDM block. The zero value is not usable; call New.
type PDM struct {
	mu sync.Mutex

	initialised bool
	handle      pdm.Handle
	powered     bool
	enabled     bool
	cfg         pdm.Config
	configured  bool
	intMask     uint32
	pending     uint32
	xfer        *pdm.Transfer
	pins        map[pdm.Pad]pdm.FuncSel
	masterOn    bool
	irqOn       bool

	failNext map[string]pdm.Status
	phase    float64
	captures uint32

	// ToneHz and Amplitude shape generated samples.
	ToneHz    float64
	Amplitude float64
	// AutoComplete finishes each transfer after the time the samples would
	// take at the configured rate, scaled by TimeScale.
	AutoComplete bool
	TimeScale    float64
}

// New returns a powered-off simulated PDM block.
func New() *PDM {
	return &PDM{
		handle:    0x5020_1000,
		pins:      make(map[pdm.Pad]pdm.FuncSel),
		failNext:  make(map[string]pdm.Status),
		ToneHz:    DefaultToneHz,
		Amplitude: DefaultAmplitude,
		TimeScale: 1,
	}
}

// Operation names accepted by FailNext.
const (
	OpInitialize      = "initialize"
	OpPowerOn         = "power_on"
	OpConfigure       = "configure"
	OpEnable          = "enable"
	OpDisable         = "disable"
	OpInterruptEnable = "interrupt_enable"
	OpInterruptStatus = "interrupt_status"
	OpInterruptClear  = "interrupt_clear"
	OpFIFOFlush       = "fifo_flush"
	OpDMAStart        = "dma_start"
	OpPinFunc         = "pin_func"
)

// FailNext makes the next call of op return st.
func (p *PDM) FailNext(op string, st pdm.Status) {
	p.mu.Lock()
	p.failNext[op] = st
	p.mu.Unlock()
}

// check consumes a scheduled failure. Caller holds p.mu.
func (p *PDM) check(op string) error {
	if st, ok := p.failNext[op]; ok {
		delete(p.failNext, op)
		return st.Err()
	}
	return nil
}

func (p *PDM) validHandle(h pdm.Handle) error {
	if !p.initialised || h != p.handle {
		return pdm.StatusInvalidHandle
	}
	return nil
}

func (p *PDM) Initialize(module uint32) (pdm.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpInitialize); err != nil {
		return 0, err
	}
	if module != 0 {
		return 0, pdm.StatusOutOfRange
	}
	if p.initialised {
		return 0, pdm.StatusInvalidOperation
	}
	p.initialised = true
	return p.handle, nil
}

func (p *PDM) PowerOn(h pdm.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpPowerOn); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	p.powered = true
	return nil
}

// Configure rejects records whose fields do not fit the register widths.
func (p *PDM) Configure(h pdm.Handle, cfg pdm.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpConfigure); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	switch {
	case cfg.DecimationRate < pdm.DecimationMin || cfg.DecimationRate > pdm.DecimationMax:
		return pdm.StatusOutOfRange
	case cfg.LeftGain > pdm.GainMax || cfg.RightGain > pdm.GainMax:
		return pdm.StatusOutOfRange
	case cfg.ClockSpeed.Frequency() == 0 || cfg.ClockDivider > pdm.Div4:
		return pdm.StatusOutOfRange
	case cfg.Channel < pdm.ChannelLeft || cfg.Channel > pdm.ChannelStereo:
		return pdm.StatusInvalidArg
	}
	p.cfg = cfg
	p.configured = true
	return nil
}

func (p *PDM) Enable(h pdm.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpEnable); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	if !p.powered {
		return pdm.StatusInvalidOperation
	}
	p.enabled = true
	return nil
}

func (p *PDM) Disable(h pdm.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpDisable); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	p.enabled = false
	return nil
}

func (p *PDM) InterruptEnable(h pdm.Handle, mask uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpInterruptEnable); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	p.intMask |= mask
	return nil
}

// InterruptStatus returns and clears the pending enabled sources.
func (p *PDM) InterruptStatus(h pdm.Handle) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpInterruptStatus); err != nil {
		return 0, err
	}
	if err := p.validHandle(h); err != nil {
		return 0, err
	}
	st := p.pending & p.intMask
	p.pending &^= st
	return st, nil
}

func (p *PDM) InterruptClear(h pdm.Handle, mask uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpInterruptClear); err != nil {
		return err
	}
	if err := p.validHandle(h); err != nil {
		return err
	}
	p.pending &^= mask
	return nil
}

func (p *PDM) FIFOFlush(h pdm.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpFIFOFlush); err != nil {
		return err
	}
	return p.validHandle(h)
}

// DMAStart accepts one transfer; a new one replaces any outstanding.
func (p *PDM) DMAStart(h pdm.Handle, t pdm.Transfer) error {
	p.mu.Lock()
	if err := p.check(OpDMAStart); err != nil {
		p.mu.Unlock()
		return err
	}
	if err := p.validHandle(h); err != nil {
		p.mu.Unlock()
		return err
	}
	if !p.enabled || !p.configured {
		p.mu.Unlock()
		return pdm.StatusInvalidOperation
	}
	if int(t.TotalCount) > 2*len(t.Target) {
		p.mu.Unlock()
		return pdm.StatusOutOfRange
	}
	p.xfer = &t
	auto := p.AutoComplete
	d := p.transferTime(t)
	p.mu.Unlock()

	if auto {
		time.AfterFunc(d, p.Complete)
	}
	return nil
}

// transferTime is how long the samples take at the configured rate.
// Caller holds p.mu.
func (p *PDM) transferTime(t pdm.Transfer) time.Duration {
	hz := float64(p.cfg.SampleRate()) / 1e6
	if hz <= 0 {
		return 0
	}
	frames := float64(t.TotalCount/2) / float64(p.channels())
	secs := frames / hz * p.TimeScale
	return time.Duration(secs * float64(time.Second))
}

func (p *PDM) channels() int {
	if p.cfg.Channel == pdm.ChannelStereo {
		return 2
	}
	return 1
}

func (p *PDM) InterruptMasterEnable() {
	p.mu.Lock()
	p.masterOn = true
	p.mu.Unlock()
}

func (p *PDM) EnableIRQ() {
	p.mu.Lock()
	p.irqOn = true
	p.mu.Unlock()
}

func (p *PDM) PinFunc(pad pdm.Pad, fn pdm.FuncSel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(OpPinFunc); err != nil {
		return err
	}
	if pad > 49 {
		return pdm.StatusOutOfRange
	}
	p.pins[pad] = fn
	return nil
}

// ---------------- Hardware events ----------------

// Complete finishes the outstanding transfer: the target is filled with the
// tone, DMA-complete is latched and the interrupt fires. Without an
// outstanding transfer or with the block disabled it does nothing.
func (p *PDM) Complete() {
	p.mu.Lock()
	x := p.xfer
	if x == nil || !p.enabled {
		p.mu.Unlock()
		return
	}
	p.xfer = nil
	p.fill(x.Target[:x.TotalCount/2])
	p.captures++
	p.pending |= pdm.IntDMAComplete
	p.mu.Unlock()

	p.fire()
}

// Raise latches status bits (e.g. pdm.IntOverflow) and fires the interrupt.
func (p *PDM) Raise(bits uint32) {
	p.mu.Lock()
	p.pending |= bits
	p.mu.Unlock()
	p.fire()
}

// fire delivers the interrupt when the line is unmasked and a source pends.
func (p *PDM) fire() {
	p.mu.Lock()
	deliver := p.masterOn && p.irqOn && p.pending&p.intMask != 0
	p.mu.Unlock()
	if deliver {
		pdm.Interrupt()
	}
}

// fill writes the tone into buf. Caller holds p.mu.
func (p *PDM) fill(buf []int16) {
	rate := float64(p.cfg.SampleRate()) / 1e6
	if rate <= 0 {
		return
	}
	ch := p.channels()
	step := 2 * math.Pi * p.ToneHz / rate
	gains := [2]float64{gainScale(p.cfg.LeftGain), gainScale(p.cfg.RightGain)}
	if p.cfg.Channel == pdm.ChannelRight {
		gains[0] = gains[1]
	}
	for i := 0; i+ch <= len(buf); i += ch {
		s := math.Sin(p.phase)
		for c := 0; c < ch; c++ {
			v := s * p.Amplitude * gains[c]
			buf[i+c] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, v)))
		}
		p.phase += step
		if p.phase > 2*math.Pi {
			p.phase -= 2 * math.Pi
		}
	}
}

func gainScale(g pdm.Gain) float64 {
	return math.Pow(10, float64(g.DeciBels())/200)
}

// ---------------- Inspection ----------------

// State is a snapshot of the simulated registers.
type State struct {
	Initialised bool
	Powered     bool
	Enabled     bool
	Config      pdm.Config
	IntMask     uint32
	Pending     uint32
	Armed       bool
	Captures    uint32
	MasterOn    bool
	IRQOn       bool
}

func (p *PDM) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Initialised: p.initialised,
		Powered:     p.powered,
		Enabled:     p.enabled,
		Config:      p.cfg,
		IntMask:     p.intMask,
		Pending:     p.pending,
		Armed:       p.xfer != nil,
		Captures:    p.captures,
		MasterOn:    p.masterOn,
		IRQOn:       p.irqOn,
	}
}

// PinFuncOf returns the function routed to pad.
func (p *PDM) PinFuncOf(pad pdm.Pad) (pdm.FuncSel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn, ok := p.pins[pad]
	return fn, ok
}

var _ pdm.HAL = (*PDM)(nil)
