package pdm

import (
	"sync"
	"time"
)

// fakeHAL records every call and lets tests fail a named step.
type fakeHAL struct {
	mu sync.Mutex

	calls   []string
	fail    map[string]error
	inits   int
	nextH   Handle
	enabled bool
	powered bool
	cfg     Config
	intMask uint32
	pending uint32
	xfer    *Transfer
	pins    map[Pad]FuncSel
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		fail:  map[string]error{},
		nextH: 0x5000_0000,
		pins:  map[Pad]FuncSel{},
	}
}

func (f *fakeHAL) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeHAL) failOn(name string, err error) {
	f.mu.Lock()
	f.fail[name] = err
	f.mu.Unlock()
}

func (f *fakeHAL) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeHAL) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeHAL) set(fn func()) {
	f.mu.Lock()
	fn()
	f.mu.Unlock()
}

func (f *fakeHAL) Initialize(module uint32) (Handle, error) {
	if err := f.call("initialize"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	f.nextH++
	return f.nextH, nil
}

func (f *fakeHAL) PowerOn(Handle) error {
	if err := f.call("power_on"); err != nil {
		return err
	}
	f.set(func() { f.powered = true })
	return nil
}

func (f *fakeHAL) Configure(_ Handle, cfg Config) error {
	if err := f.call("configure"); err != nil {
		return err
	}
	f.set(func() { f.cfg = cfg })
	return nil
}

func (f *fakeHAL) Enable(Handle) error {
	if err := f.call("enable"); err != nil {
		return err
	}
	f.set(func() { f.enabled = true })
	return nil
}

func (f *fakeHAL) Disable(Handle) error {
	if err := f.call("disable"); err != nil {
		return err
	}
	f.set(func() { f.enabled = false })
	return nil
}

func (f *fakeHAL) InterruptEnable(_ Handle, mask uint32) error {
	if err := f.call("interrupt_enable"); err != nil {
		return err
	}
	f.set(func() { f.intMask |= mask })
	return nil
}

func (f *fakeHAL) InterruptStatus(Handle) (uint32, error) {
	if err := f.call("interrupt_status"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	st := f.pending & f.intMask
	f.pending &^= st
	f.mu.Unlock()
	return st, nil
}

func (f *fakeHAL) InterruptClear(_ Handle, mask uint32) error {
	return f.call("interrupt_clear")
}

func (f *fakeHAL) FIFOFlush(Handle) error { return f.call("fifo_flush") }

func (f *fakeHAL) DMAStart(_ Handle, t Transfer) error {
	if err := f.call("dma_start"); err != nil {
		return err
	}
	f.set(func() { f.xfer = &t })
	return nil
}

func (f *fakeHAL) InterruptMasterEnable() { _ = f.call("master_enable") }
func (f *fakeHAL) EnableIRQ()             { _ = f.call("nvic_enable") }

func (f *fakeHAL) PinFunc(pad Pad, fn FuncSel) error {
	if err := f.call("pin_func"); err != nil {
		return err
	}
	f.set(func() { f.pins[pad] = fn })
	return nil
}

// raise latches interrupt status bits as the hardware would.
func (f *fakeHAL) raise(bits uint32) {
	f.mu.Lock()
	f.pending |= bits
	f.mu.Unlock()
}

// armed reports whether a DMA transfer has been started.
func (f *fakeHAL) armed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.xfer != nil
}

// newTestDevice builds a Device on f that records settle sleeps instead of
// paying them.
func newTestDevice(f *fakeHAL) (*Device, *[]time.Duration) {
	var slept []time.Duration
	d := New(f, Options{Sleep: func(d time.Duration) { slept = append(slept, d) }})
	return d, &slept
}
