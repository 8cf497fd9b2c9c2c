// services/mic/service.go

// Package mic publishes the PDM microphone as a bus capability. It owns one
// driver, applies config/mic, runs the capture loop and reports summaries,
// status and hardware faults under hal/cap/audio/mic/<name>/.
package mic

import (
	"context"
	"errors"
	"time"

	"apollo3-go/bus"
	"apollo3-go/drivers/pdm"
	"apollo3-go/errcode"
	"apollo3-go/frame"
	"apollo3-go/types"
	"apollo3-go/x/timex"

	"periph.io/x/conn/v3/physic"
)

// Defaults used until config/mic says otherwise.
const (
	DefaultName      = "pdm0"
	DefaultPeriod    = time.Second
	DefaultFrameSize = 1024

	MinFrameSize = 16
	MaxFrameSize = 8192
	MinPeriod    = 10 * time.Millisecond

	// Consecutive sink failures before the capability degrades.
	sinkFailLimit = 3
)

// FrameSink receives every completed capture. frame.Writer implements it.
type FrameSink interface {
	WriteFrame(f frame.Frame) error
}

// Options configure a Service. Data and Clock are required.
type Options struct {
	Name        string
	Data, Clock pdm.Pin
	Sink        FrameSink
	// MaxFrameSize caps frame_size, e.g. to what the sink can carry.
	// Defaults to MaxFrameSize.
	MaxFrameSize uint32
	// Now returns Unix milliseconds; defaults to timex.NowMs.
	Now func() int64
}

// Service is the mic capability. All state is owned by the Run goroutine.
type Service struct {
	conn *bus.Connection
	dev  *pdm.Device
	opts Options

	name      string
	period    time.Duration
	timeout   time.Duration // 0 derives from frame size and rate
	frameSize uint32

	begun   bool
	busy    bool
	buf     []int16
	waitCh  chan error
	pending *types.MicConfig
	seq     uint32

	faults    pdm.Faults
	lastLink  types.Link
	lastErr   errcode.Code
	sinkFails uint32
}

// New creates the service. It does not touch the hardware until Run.
func New(conn *bus.Connection, dev *pdm.Device, opts Options) *Service {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Now == nil {
		opts.Now = timex.NowMs
	}
	if opts.MaxFrameSize == 0 || opts.MaxFrameSize > MaxFrameSize {
		opts.MaxFrameSize = MaxFrameSize
	}
	opts.MaxFrameSize = max(opts.MaxFrameSize, MinFrameSize)
	return &Service{
		conn:      conn,
		dev:       dev,
		opts:      opts,
		name:      opts.Name,
		period:    DefaultPeriod,
		frameSize: min(DefaultFrameSize, opts.MaxFrameSize),
		waitCh:    make(chan error, 1),
	}
}

// Start runs the service in a goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigMic())
	ctrlSub := s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.begin()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishStatus(types.LinkDown, "")
			return
		case m, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			s.onConfig(m)
		case m, ok := <-ctrlSub.Channel():
			if !ok {
				return
			}
			s.onControl(ctx, m)
		case <-timer.C:
			if !s.busy {
				if !s.arm(ctx) {
					resetTimer(timer, s.period)
				}
			}
		case err := <-s.waitCh:
			s.onCaptured(err)
			resetTimer(timer, s.period)
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// ---------------- Lifecycle ----------------

// begin brings the driver up. Failures leave the capability down and are
// retried on the next tick.
func (s *Service) begin() bool {
	if s.begun {
		return true
	}
	if err := s.dev.Begin(s.opts.Data, s.opts.Clock); err != nil {
		code := codeOf(err)
		println("[mic] begin failed:", err.Error())
		s.publishStatus(types.LinkDown, code)
		return false
	}
	s.begun = true
	if s.pending != nil {
		// Begin resets the record to defaults; replay what config asked for.
		cfg := *s.pending
		s.pending = nil
		s.applyConfig(cfg)
	}
	s.publishInfo()
	s.publishStatus(types.LinkUp, "")
	return true
}

// arm starts one capture. It reports whether a transfer is outstanding.
func (s *Service) arm(ctx context.Context) bool {
	if !s.begin() {
		return false
	}
	if uint32(len(s.buf)) != s.frameSize {
		s.buf = make([]int16, s.frameSize)
	}
	if err := s.dev.GetData(s.buf); err != nil {
		println("[mic] arm failed:", err.Error())
		s.publishStatus(types.LinkDegraded, codeOf(err))
		return false
	}
	s.busy = true

	wctx, cancel := context.WithTimeout(ctx, s.captureTimeout())
	go func() {
		defer cancel()
		s.waitCh <- s.dev.Wait(wctx)
	}()
	return true
}

func (s *Service) captureTimeout() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return 2*timex.SamplesDuration(s.frameSize, s.dev.SampleRate()) + 50*time.Millisecond
}

func (s *Service) onCaptured(err error) {
	s.busy = false
	defer s.applyPending()

	faulted := s.checkFaults()
	if err != nil {
		if !faulted {
			println("[mic] capture failed:", err.Error())
			s.publishStatus(types.LinkDegraded, codeOf(err))
		}
		return
	}

	s.seq++
	ts := s.opts.Now()
	v := Summarise(s.buf)
	v.Seq = s.seq
	v.TS = ts
	s.conn.Publish(s.conn.NewMessage(capValue(s.name), v, true))

	s.writeSink(ts)
	if !faulted && !s.dev.Desynced() && s.sinkFails < sinkFailLimit {
		s.publishStatus(types.LinkUp, "")
	}
}

func (s *Service) writeSink(ts int64) {
	if s.opts.Sink == nil {
		return
	}
	gain := s.dev.LeftGain()
	if s.dev.Channel() == pdm.ChannelRight {
		gain = s.dev.RightGain()
	}
	f := frame.New(s.seq, s.dev.SampleRate(), uint8(s.dev.Channel()), uint8(gain), ts, s.buf)
	if err := s.opts.Sink.WriteFrame(f); err != nil {
		s.sinkFails++
		if s.sinkFails == 1 {
			println("[mic] sink write failed:", err.Error())
		}
		if s.sinkFails == sinkFailLimit {
			s.publishStatus(types.LinkDegraded, errcode.SinkError)
		}
		return
	}
	s.sinkFails = 0
}

// checkFaults publishes a fault event when the driver's counters moved.
func (s *Service) checkFaults() bool {
	f := s.dev.Faults()
	if f == s.faults {
		return false
	}
	prev := s.faults
	s.faults = f

	var code errcode.Code
	switch {
	case f.DMAErrors != prev.DMAErrors:
		code = errcode.DMAError
	case f.Overflows != prev.Overflows:
		code = errcode.Overflow
	case f.HALErrors != prev.HALErrors:
		code = errcode.HWError
	default:
		code = errcode.Underflow
	}
	s.conn.Publish(s.conn.NewMessage(capFault(s.name), s.faultPayload(), false))
	s.publishStatus(types.LinkDegraded, code)
	return true
}

func (s *Service) faultPayload() types.MicFault {
	f := s.dev.Faults()
	return types.MicFault{
		DMAErrors:  f.DMAErrors,
		Underflows: f.Underflows,
		Overflows:  f.Overflows,
		HALErrors:  f.HALErrors,
		Status:     f.LastStatus,
		TS:         s.opts.Now(),
	}
}

// ---------------- Publication ----------------

func (s *Service) publishInfo() {
	cfg := s.dev.Config()
	data, clock := s.dev.Pins()
	s.conn.Publish(s.conn.NewMessage(capInfo(s.name), types.Info{
		SchemaVersion: 1,
		Driver:        "apollo3-pdm",
		Detail: types.MicInfo{
			DataPin:      uint8(data),
			ClockPin:     uint8(clock),
			Channel:      cfg.Channel.String(),
			ClockHz:      uint32(cfg.ClockSpeed.Frequency() / physic.Hertz),
			ClockDivider: uint8(cfg.ClockDivider.Divisor()),
			Decimation:   cfg.DecimationRate,
			SampleRateHz: s.dev.SampleRate(),
			LeftGainDdB:  cfg.LeftGain.DeciBels(),
			RightGainDdB: cfg.RightGain.DeciBels(),
			FrameSize:    s.frameSize,
		},
	}, true))
}

// publishStatus publishes retained status when it changes.
func (s *Service) publishStatus(link types.Link, code errcode.Code) {
	if link == s.lastLink && code == s.lastErr {
		return
	}
	s.lastLink, s.lastErr = link, code
	s.conn.Publish(s.conn.NewMessage(capStatus(s.name), types.CapabilityStatus{
		Link:  link,
		TS:    s.opts.Now(),
		Error: string(code),
	}, true))
}

// rename moves the capability. Retained topics under the old name are cleared.
func (s *Service) rename(name string) {
	if name == "" || name == s.name {
		return
	}
	for _, t := range []bus.Topic{capInfo(s.name), capStatus(s.name), capValue(s.name)} {
		s.conn.Publish(s.conn.NewMessage(t, nil, true))
	}
	s.name = name
	link, code := s.lastLink, s.lastErr
	s.lastLink, s.lastErr = "", ""
	if link != "" {
		s.publishStatus(link, code)
	}
}

// codeOf maps driver errors onto bus codes.
func codeOf(err error) errcode.Code {
	switch {
	case err == nil:
		return errcode.OK
	case errors.Is(err, pdm.ErrNotReady):
		return errcode.NotReady
	case errors.Is(err, pdm.ErrUnknownPin):
		return errcode.UnknownPin
	case errors.Is(err, pdm.ErrInvalidArg):
		return errcode.InvalidParams
	case errors.Is(err, context.DeadlineExceeded):
		return errcode.Timeout
	}
	return errcode.Of(err)
}
