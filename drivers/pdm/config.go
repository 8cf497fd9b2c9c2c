package pdm

import "periph.io/x/conn/v3/physic"

// ClockSpeed selects the PDM microphone clock (PCFG.PDMCLKSEL).
type ClockSpeed uint8

const (
	Clock12MHz ClockSpeed = iota
	Clock6MHz
	Clock3MHz
	Clock1_5MHz
	Clock750kHz
	Clock375kHz
	Clock187kHz
)

var clockFrequencies = [...]physic.Frequency{
	12 * physic.MegaHertz,
	6 * physic.MegaHertz,
	3 * physic.MegaHertz,
	1500 * physic.KiloHertz,
	750 * physic.KiloHertz,
	375 * physic.KiloHertz,
	187500 * physic.Hertz,
}

// Frequency returns the nominal clock rate, or 0 for an unknown selector.
func (c ClockSpeed) Frequency() physic.Frequency {
	if int(c) < len(clockFrequencies) {
		return clockFrequencies[c]
	}
	return 0
}

// ClockDivider is the master clock divider (PCFG.MCLKDIV).
type ClockDivider uint8

const (
	Div1 ClockDivider = iota
	Div2
	Div3
	Div4
)

// Divisor returns the numeric divide ratio.
func (d ClockDivider) Divisor() int64 { return int64(d) + 1 }

// Gain is a PGA gain step. Steps are 1.5 dB apart, Gain0dB is step 8.
type Gain uint8

const (
	GainM120dB Gain = iota
	GainM105dB
	GainM90dB
	GainM75dB
	GainM60dB
	GainM45dB
	GainM30dB
	GainM15dB
	Gain0dB
	GainP15dB
	GainP30dB
	GainP45dB
	GainP60dB
	GainP75dB
	GainP90dB
	GainP105dB
	GainP120dB
	GainP135dB
	GainP150dB
	GainP165dB
	GainP180dB
	GainP195dB
	GainP210dB
	GainP225dB
	GainP240dB
	GainP255dB
	GainP270dB
	GainP285dB
	GainP300dB
	GainP315dB
	GainP330dB
	GainP345dB
)

// GainMax is the highest gain step the PGA field holds.
const GainMax = GainP345dB

// DeciBels returns the gain in tenths of a dB.
func (g Gain) DeciBels() int32 { return (int32(g) - int32(Gain0dB)) * 15 }

// Channel selects which PCM channels are produced (PCFG.CHSET).
type Channel uint8

const (
	ChannelLeft   Channel = 1
	ChannelRight  Channel = 2
	ChannelStereo Channel = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	case ChannelStereo:
		return "stereo"
	default:
		return "unknown"
	}
}

// StepSize is the gain ramp step (PCFG.STEPSEL).
type StepSize uint8

const (
	Step0_13dB StepSize = iota
	Step0_26dB
)

// ClockSource selects the I2S/PDM clock source (VCFG.SELAP).
type ClockSource uint8

const (
	ClockInternal ClockSource = iota
	ClockI2S
)

// Decimation rate limits (6-bit SINCRATE field).
const (
	DecimationMin = 1
	DecimationMax = 63
)

// Config mirrors am_hal_pdm_config_t. It is always pushed to the peripheral
// as a whole.
type Config struct {
	ClockDivider     ClockDivider
	LeftGain         Gain
	RightGain        Gain
	StepSize         StepSize
	DecimationRate   uint32
	HighPassEnable   bool
	HighPassCutoff   uint32
	ClockSpeed       ClockSpeed
	InvertI2SBCLK    bool
	ClockSource      ClockSource
	SampleDelay      bool
	DataPacking      bool
	Channel          Channel
	GainChangeDelay  uint32
	I2SEnable        bool
	SoftMute         bool
	LeftRightSwapped bool
}

// DefaultConfig returns the record New and Begin start from.
func DefaultConfig() Config { return defaultConfig }

var defaultConfig = Config{
	ClockDivider:    Div1,
	LeftGain:        Gain0dB,
	RightGain:       Gain0dB,
	StepSize:        Step0_13dB,
	DecimationRate:  48,
	HighPassEnable:  false,
	HighPassCutoff:  0xB,
	ClockSpeed:      Clock1_5MHz,
	ClockSource:     ClockInternal,
	DataPacking:     true,
	Channel:         ChannelRight,
	GainChangeDelay: 1,
}

// SampleRate is the PCM output rate for cfg: clock / divider / (2 * decimation).
// It returns 0 when the record cannot produce samples.
func (cfg Config) SampleRate() physic.Frequency {
	clk := cfg.ClockSpeed.Frequency()
	if clk == 0 || cfg.DecimationRate == 0 {
		return 0
	}
	return clk / physic.Frequency(cfg.ClockDivider.Divisor()*2*int64(cfg.DecimationRate))
}
