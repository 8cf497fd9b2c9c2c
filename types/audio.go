package types

// ------------------------
// Microphone (hal/cap/audio/mic/<name>/...)
// ------------------------

// MicConfig is supplied on "config/mic". Zero fields keep the current value.
type MicConfig struct {
	Name string `json:"name,omitempty"` // capability name, default "pdm0"

	ClockSpeed   *uint8  `json:"clock_speed,omitempty"`   // pdm.ClockSpeed selector
	ClockDivider *uint8  `json:"clock_divider,omitempty"` // pdm.ClockDivider selector
	Gain         *uint8  `json:"gain,omitempty"`          // both channels, gain step 0..31
	LeftGain     *uint8  `json:"left_gain,omitempty"`
	RightGain    *uint8  `json:"right_gain,omitempty"`
	Channel      string  `json:"channel,omitempty"` // "left" | "right" | "stereo"
	Decimation   *uint32 `json:"decimation,omitempty"`

	PeriodMs  uint32 `json:"period_ms,omitempty"`  // pause between captures; 0 keeps
	FrameSize uint32 `json:"frame_size,omitempty"` // samples per capture
	TimeoutMs uint32 `json:"timeout_ms,omitempty"` // wait bound per capture
}

// MicInfo is Info.Detail for a microphone.
type MicInfo struct {
	DataPin      uint8  `json:"data_pin"`
	ClockPin     uint8  `json:"clock_pin"`
	Channel      string `json:"channel"`
	ClockHz      uint32 `json:"clock_hz"`
	ClockDivider uint8  `json:"clock_divider"`
	Decimation   uint32 `json:"decimation"`
	SampleRateHz uint32 `json:"sample_rate_hz"`
	LeftGainDdB  int32  `json:"left_gain_ddb"` // tenths of a dB
	RightGainDdB int32  `json:"right_gain_ddb"`
	FrameSize    uint32 `json:"frame_size"`
}

// MicValue summarises one completed capture (retained).
type MicValue struct {
	Seq     uint32 `json:"seq"`
	Samples uint32 `json:"samples"`
	Peak    int16  `json:"peak"`   // max |sample|
	RMS     uint16 `json:"rms"`    // root mean square
	DCx10   int32  `json:"dc_x10"` // mean sample value, tenths
	TS      int64  `json:"ts_ms"`
	Clipped uint32 `json:"clipped"` // samples at full scale
}

// MicFault is published non-retained on .../event/fault.
type MicFault struct {
	DMAErrors  uint32 `json:"dma_errors"`
	Underflows uint32 `json:"underflows"`
	Overflows  uint32 `json:"overflows"`
	HALErrors  uint32 `json:"hal_errors"`
	Status     uint32 `json:"status"` // last raw interrupt status
	TS         int64  `json:"ts_ms"`
}

// Control payloads (hal/cap/audio/mic/<name>/control/<verb>).

// MicSetGain is the "set_gain" payload. Gain applies to both channels.
type MicSetGain struct {
	Gain uint8 `json:"gain"`
}

// MicSetPeriod is the "set_period" payload.
type MicSetPeriod struct {
	PeriodMs uint32 `json:"period_ms"`
}
