package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (the value passed to WithDevice)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Clock speed 3 is 1.5 MHz; with decimation 48 the mic runs at 15625 Hz.
const cfgEdge2 = `{
  "mic": {
      "name": "pdm0",
      "clock_speed": 3,
      "clock_divider": 0,
      "gain": 8,
      "channel": "right",
      "decimation": 48,
      "period_ms": 1000,
      "frame_size": 1024,
      "timeout_ms": 500
  },
  "heartbeat": {
      "interval_ms": 10000
  }
}`

// cfgHost drives the simulator faster for desk runs.
const cfgHost = `{
  "mic": {
      "name": "sim0",
      "gain": 12,
      "channel": "right",
      "period_ms": 250,
      "frame_size": 512,
      "timeout_ms": 1000
  },
  "heartbeat": {
      "interval_ms": 5000
  }
}`

var embeddedConfigs = map[string][]byte{
	"edge2": []byte(cfgEdge2),
	"host":  []byte(cfgHost),
}
