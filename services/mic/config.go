package mic

import (
	"apollo3-go/bus"
	"apollo3-go/drivers/pdm"
	"apollo3-go/errcode"
	"apollo3-go/services/internal/util"
	"apollo3-go/types"
	"apollo3-go/x/mathx"
	"apollo3-go/x/timex"
)

func (s *Service) onConfig(m *bus.Message) {
	if m.Payload == nil {
		return // retained config cleared
	}
	var cfg types.MicConfig
	if err := util.DecodeJSON(m.Payload, &cfg); err != nil {
		println("[mic] bad config:", err.Error())
		s.publishStatus(types.LinkDegraded, errcode.InvalidParams)
		return
	}
	if s.busy || !s.begun {
		// The DMA target is live or Begin has yet to reset the record.
		s.pending = &cfg
		return
	}
	s.applyConfig(cfg)
}

func (s *Service) applyPending() {
	if s.pending == nil || s.busy || !s.begun {
		return
	}
	cfg := *s.pending
	s.pending = nil
	s.applyConfig(cfg)
}

// applyConfig clamps cfg into range and pushes the driver fields in one
// apply. Zero or absent fields keep their current value.
func (s *Service) applyConfig(c types.MicConfig) {
	rec, err := mergeConfig(s.dev.Config(), c)
	if err != nil {
		println("[mic] config rejected:", err.Error())
		s.publishStatus(types.LinkDegraded, errcode.Of(err))
		return
	}

	s.rename(c.Name)
	if c.PeriodMs > 0 {
		s.period = mathx.Max(timex.Ms(c.PeriodMs), MinPeriod)
	}
	if c.FrameSize > 0 {
		s.frameSize = mathx.Clamp(c.FrameSize, MinFrameSize, s.opts.MaxFrameSize)
	}
	if c.TimeoutMs > 0 {
		s.timeout = timex.Ms(c.TimeoutMs)
	}

	if rec != s.dev.Config() || s.dev.Desynced() {
		if err := s.dev.ApplyConfig(rec); err != nil {
			println("[mic] apply failed:", err.Error())
			s.publishStatus(types.LinkDegraded, codeOf(err))
			s.publishInfo()
			return
		}
	}
	s.publishInfo()
	if s.lastLink == types.LinkDegraded {
		s.publishStatus(types.LinkUp, "")
	}
}

// mergeConfig overlays the set fields of c onto rec.
func mergeConfig(rec pdm.Config, c types.MicConfig) (pdm.Config, error) {
	if c.ClockSpeed != nil {
		rec.ClockSpeed = pdm.ClockSpeed(mathx.Clamp(*c.ClockSpeed, uint8(pdm.Clock12MHz), uint8(pdm.Clock187kHz)))
	}
	if c.ClockDivider != nil {
		rec.ClockDivider = pdm.ClockDivider(mathx.Clamp(*c.ClockDivider, uint8(pdm.Div1), uint8(pdm.Div4)))
	}
	if c.Gain != nil {
		g := clampGain(*c.Gain)
		rec.LeftGain, rec.RightGain = g, g
	}
	if c.LeftGain != nil {
		rec.LeftGain = clampGain(*c.LeftGain)
	}
	if c.RightGain != nil {
		rec.RightGain = clampGain(*c.RightGain)
	}
	if c.Decimation != nil {
		rec.DecimationRate = mathx.Clamp(*c.Decimation, pdm.DecimationMin, pdm.DecimationMax)
	}
	if c.Channel != "" {
		ch, ok := parseChannel(c.Channel)
		if !ok {
			return rec, &errcode.E{C: errcode.InvalidParams, Op: "mic.config", Msg: "channel " + c.Channel}
		}
		rec.Channel = ch
	}
	return rec, nil
}

func clampGain(g uint8) pdm.Gain {
	return pdm.Gain(mathx.Min(g, uint8(pdm.GainMax)))
}

func parseChannel(s string) (pdm.Channel, bool) {
	for _, c := range []pdm.Channel{pdm.ChannelLeft, pdm.ChannelRight, pdm.ChannelStereo} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}
