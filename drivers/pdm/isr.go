package pdm

import "sync/atomic"

// InterruptHandler is serviced by the PDM interrupt trampoline.
type InterruptHandler interface {
	HandleInterrupt()
}

type handlerSlot struct{ h InterruptHandler }

// The vector table calls a fixed-signature function with no context, so the
// handler lives in one package-level slot. Last registration wins.
var registered atomic.Value // handlerSlot

// Register makes h the target of Interrupt. A nil h clears the slot.
func Register(h InterruptHandler) { registered.Store(handlerSlot{h: h}) }

// Registered returns the current target of Interrupt, or nil.
func Registered() InterruptHandler {
	s, _ := registered.Load().(handlerSlot)
	return s.h
}

// Interrupt dispatches the PDM interrupt to the registered handler. Platform
// code calls it from the vector (am_pdm_isr on Apollo3).
func Interrupt() {
	if h := Registered(); h != nil {
		h.HandleInterrupt()
	}
}

// Faults is a snapshot of hardware fault interrupts seen by the driver.
type Faults struct {
	DMAErrors  uint32
	Underflows uint32
	Overflows  uint32
	LastStatus uint32 // last interrupt status that carried a fault bit
	// HALErrors counts failed clear or disable calls made from the interrupt.
	HALErrors uint32
}

// Total is the sum of all fault counters.
func (f Faults) Total() uint32 { return f.DMAErrors + f.Underflows + f.Overflows }

type faultCounters struct {
	dmaErr, underflow, overflow, last, hal uint32
}

func (c *faultCounters) record(status uint32) {
	if status&IntDMAError != 0 {
		atomic.AddUint32(&c.dmaErr, 1)
	}
	if status&IntUnderflow != 0 {
		atomic.AddUint32(&c.underflow, 1)
	}
	if status&IntOverflow != 0 {
		atomic.AddUint32(&c.overflow, 1)
	}
	atomic.StoreUint32(&c.last, status)
}

func (c *faultCounters) snapshot() Faults {
	return Faults{
		DMAErrors:  atomic.LoadUint32(&c.dmaErr),
		Underflows: atomic.LoadUint32(&c.underflow),
		Overflows:  atomic.LoadUint32(&c.overflow),
		LastStatus: atomic.LoadUint32(&c.last),
		HALErrors:  atomic.LoadUint32(&c.hal),
	}
}

const faultInterrupts = IntDMAError | IntUnderflow | IntOverflow

// HandleInterrupt services one PDM interrupt: the pending status is read
// (clear-on-read) and cleared, fault bits are counted, and on DMA completion
// the block is disabled and the capture is marked ready. It never blocks.
func (d *Device) HandleInterrupt() {
	if !d.hasHandle {
		return
	}
	status, err := d.hal.InterruptStatus(d.handle)
	if err != nil {
		return
	}
	if err := d.hal.InterruptClear(d.handle, status); err != nil {
		atomic.AddUint32(&d.faults.hal, 1)
	}

	if status&faultInterrupts != 0 {
		d.faults.record(status)
	}
	if status&IntDMAComplete != 0 {
		// Single buffer: stop sampling until the next GetData. The buffer is
		// complete even if the disable fails; GetData re-enables regardless.
		if err := d.hal.Disable(d.handle); err != nil {
			atomic.AddUint32(&d.faults.hal, 1)
		}
		d.ready.Store(true)
		select {
		case d.done <- struct{}{}:
		default:
		}
	}
}

// Faults returns the fault counters accumulated since New.
func (d *Device) Faults() Faults { return d.faults.snapshot() }
