// bsp/edge2/edge2.go

// Package edge2 holds the SparkFun Edge2 board constants: microphone, LEDs,
// on-board I²C devices and console UART.
package edge2

import "apollo3-go/drivers/pdm"

// Microphone.
const (
	MicData  pdm.Pin = 36
	MicClock pdm.Pin = 37

	MicChannel = pdm.ChannelRight
)

// LEDs. The yellow LED shares pad 37 with the microphone clock.
const (
	LEDRed    pdm.Pin = 19
	LEDBlue   pdm.Pin = 18
	LEDGreen  pdm.Pin = 17
	LEDYellow pdm.Pin = 37

	NumLEDs = 4

	// PWM on the red LED uses CTIMER 1 segment B.
	PWMLED      = LEDRed
	PWMLEDTimer = 1
)

// LEDs lists LED0..LED3.
var LEDs = [NumLEDs]pdm.Pin{LEDRed, LEDBlue, LEDGreen, LEDYellow}

// I²C master instances (IOM) and their pads.
const (
	IOM1SDA pdm.Pin = 9
	IOM1SCL pdm.Pin = 8
	IOM3SDA pdm.Pin = 43
	IOM3SCL pdm.Pin = 42
	IOM4SDA pdm.Pin = 40
	IOM4SCL pdm.Pin = 39
)

// Accelerometer (LIS2DH12).
const (
	AccelIOM     = 3
	AccelAddress = 0x19
	AccelSDA     = IOM3SDA
	AccelSCL     = IOM3SCL
)

// Qwiic connector.
const (
	QwiicIOM = 4
	QwiicSDA = IOM4SDA
	QwiicSCL = IOM4SCL
)

// HM01B0 camera.
const (
	CameraIOM = 1
	CameraSDA = IOM1SDA
	CameraSCL = IOM1SCL

	CameraMCLK pdm.Pin = 26

	// MCLK is generated by CTIMER 0 segment B.
	CameraMCLKTimer = 0
)

// Console UART.
const (
	UARTIOSInst        = 0
	UARTPrintInst      = 0
	UARTBootloaderInst = 0
)

// Print interfaces, as selected by the vendor BSP.
const (
	PrintNone = iota
	PrintSWO
	PrintUART0
	PrintBufferedUART0
)

var known = map[pdm.Pin]struct{}{
	MicData: {}, MicClock: {},
	LEDRed: {}, LEDBlue: {}, LEDGreen: {},
	IOM1SDA: {}, IOM1SCL: {},
	IOM3SDA: {}, IOM3SCL: {},
	IOM4SDA: {}, IOM4SCL: {},
	CameraMCLK: {},
}

// Pads maps Edge2 pins to Apollo3 pads. Pins are numbered by pad on this
// board; pins the board does not break out are rejected.
type Pads struct{}

func (Pads) Pad(pin pdm.Pin) (pdm.Pad, bool) {
	if _, ok := known[pin]; !ok {
		return 0, false
	}
	return pdm.Pad(pin), true
}

// Pad is Pads{}.Pad.
func Pad(pin pdm.Pin) (pdm.Pad, bool) { return Pads{}.Pad(pin) }

// NewMic returns a PDM device wired to the board microphone's pad map.
// Call Begin(MicData, MicClock) on it.
func NewMic(hal pdm.HAL, opts pdm.Options) *pdm.Device {
	if opts.Pads == nil {
		opts.Pads = Pads{}
	}
	return pdm.New(hal, opts)
}
