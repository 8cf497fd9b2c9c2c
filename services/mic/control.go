package mic

import (
	"context"

	"apollo3-go/bus"
	"apollo3-go/errcode"
	"apollo3-go/services/internal/util"
	"apollo3-go/types"
	"apollo3-go/x/mathx"
	"apollo3-go/x/timex"
)

func (s *Service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (s *Service) replyFromError(m *bus.Message, err error) {
	if err == nil {
		s.replyOK(m)
		return
	}
	s.replyErr(m, codeOf(err))
}

// onControl handles hal/cap/audio/mic/<name>/control/<verb>.
func (s *Service) onControl(ctx context.Context, m *bus.Message) {
	if m.Topic.Len() != 7 {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	name, _ := m.Topic.At(4).(string)
	verb, _ := m.Topic.At(6).(string)
	if name != s.name {
		s.replyErr(m, errcode.UnknownCapability)
		return
	}

	switch verb {
	case verbCaptureNow:
		if s.busy {
			s.replyErr(m, errcode.Busy)
			return
		}
		if !s.arm(ctx) {
			s.replyErr(m, s.lastErr)
			return
		}
		s.replyOK(m)

	case verbSetGain:
		var p types.MicSetGain
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		if s.busy {
			s.replyErr(m, errcode.Busy)
			return
		}
		err := s.dev.SetGain(clampGain(p.Gain))
		s.publishInfo()
		if err != nil {
			s.publishStatus(types.LinkDegraded, codeOf(err))
		}
		s.replyFromError(m, err)

	case verbSetPeriod:
		var p types.MicSetPeriod
		if err := util.DecodeJSON(m.Payload, &p); err != nil || p.PeriodMs == 0 {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		s.period = mathx.Max(timex.Ms(p.PeriodMs), MinPeriod)
		s.replyOK(m)

	case verbResync:
		if s.busy {
			s.replyErr(m, errcode.Busy)
			return
		}
		err := s.dev.Resync()
		if err == nil && s.lastLink == types.LinkDegraded {
			s.publishStatus(types.LinkUp, "")
		}
		s.replyFromError(m, err)

	case verbFaults:
		if m.CanReply() {
			s.conn.Reply(m, s.faultPayload(), false)
		}

	default:
		s.replyErr(m, errcode.UnknownVerb)
	}
}
