//go:build !tinygo

package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"apollo3-go/drivers/pdm"
)

func begin(t *testing.T, p *PDM) *pdm.Device {
	t.Helper()
	d := pdm.New(p, pdm.Options{SettleDelay: -1})
	if err := d.Begin(36, 37); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	t.Cleanup(func() { pdm.Register(nil) })
	return d
}

func TestBeginBringsBlockUp(t *testing.T) {
	p := New()
	begin(t, p)

	st := p.State()
	if !st.Initialised || !st.Powered || !st.Enabled {
		t.Fatalf("state after Begin: %+v", st)
	}
	if !st.MasterOn || !st.IRQOn {
		t.Fatal("interrupt line not unmasked")
	}
	if st.Config != pdm.DefaultConfig() {
		t.Fatalf("config: %+v", st.Config)
	}
	if fn, ok := p.PinFuncOf(36); !ok || fn != 7 {
		t.Fatalf("data pad: %d %v", fn, ok)
	}
	if fn, ok := p.PinFuncOf(37); !ok || fn != 6 {
		t.Fatalf("clock pad: %d %v", fn, ok)
	}
}

func TestCompleteFillsAndSignals(t *testing.T) {
	p := New()
	d := begin(t, p)

	buf := make([]int16, 256)
	if err := d.GetData(buf); err != nil {
		t.Fatal(err)
	}
	if !p.State().Armed {
		t.Fatal("transfer not armed")
	}
	p.Complete()

	if !d.Available() {
		t.Fatal("ready not set by the interrupt")
	}
	if p.State().Enabled {
		t.Fatal("interrupt should disable the block")
	}
	var peak int16
	for _, s := range buf {
		if s > peak {
			peak = s
		}
	}
	if peak < DefaultAmplitude*9/10 || peak > DefaultAmplitude {
		t.Fatalf("peak %d", peak)
	}

	// Nothing outstanding: a second completion is ignored.
	p.Complete()
	if p.State().Captures != 1 {
		t.Fatalf("captures: %d", p.State().Captures)
	}
}

func TestAutoComplete(t *testing.T) {
	p := New()
	p.AutoComplete = true
	p.TimeScale = 0.01
	d := begin(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if err := d.Capture(ctx, make([]int16, 160)); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}
	if p.State().Captures != 3 {
		t.Fatalf("captures: %d", p.State().Captures)
	}
}

func TestConfigureValidates(t *testing.T) {
	p := New()
	d := begin(t, p)

	err := d.SetDecimationRate(64)
	var st pdm.Status
	if !errors.As(err, &st) || st != pdm.StatusOutOfRange {
		t.Fatalf("decimation 64: %v", err)
	}
	if !d.Desynced() {
		t.Fatal("record should be desynced")
	}
	if p.State().Config.DecimationRate != pdm.DefaultConfig().DecimationRate {
		t.Fatal("rejected config reached the block")
	}

	if err := d.SetGain(pdm.GainMax + 1); err == nil {
		t.Fatal("gain above max accepted")
	}
	if err := d.SetChannel(pdm.Channel(0)); err == nil {
		t.Fatal("zero channel accepted")
	}
}

func TestFailNextIsOneShot(t *testing.T) {
	p := New()
	d := begin(t, p)

	p.FailNext(OpDMAStart, pdm.StatusHWErr)
	if err := d.GetData(make([]int16, 4)); !errors.Is(err, pdm.StatusHWErr) {
		t.Fatalf("first: %v", err)
	}
	if err := d.GetData(make([]int16, 4)); err != nil {
		t.Fatalf("second: %v", err)
	}
}

func TestRaiseCountsFaults(t *testing.T) {
	p := New()
	d := begin(t, p)

	p.Raise(pdm.IntOverflow)
	p.Raise(pdm.IntThreshold) // not unmasked by Begin
	if f := d.Faults(); f.Overflows != 1 || f.Total() != 1 {
		t.Fatalf("faults: %+v", f)
	}
	if p.State().Pending != pdm.IntThreshold {
		t.Fatalf("pending: %#x", p.State().Pending)
	}
}

func TestInitializeOnce(t *testing.T) {
	p := New()
	if _, err := p.Initialize(1); !errors.Is(err, pdm.StatusOutOfRange) {
		t.Fatalf("module 1: %v", err)
	}
	if _, err := p.Initialize(0); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Initialize(0); !errors.Is(err, pdm.StatusInvalidOperation) {
		t.Fatalf("second initialize: %v", err)
	}
	if err := p.PowerOn(0x1234); !errors.Is(err, pdm.StatusInvalidHandle) {
		t.Fatalf("bad handle: %v", err)
	}
}
