package mic

import "apollo3-go/bus"

const (
	domainAudio = "audio"
	kindMic     = "mic"
)

func topicConfigMic() bus.Topic { return bus.T("config", "mic") }

// hal/cap/audio/mic/<name>/...
func capBase(name string) bus.Topic { return bus.T("hal", "cap", domainAudio, kindMic, name) }

func capInfo(name string) bus.Topic   { return capBase(name).Append("info") }
func capStatus(name string) bus.Topic { return capBase(name).Append("status") }
func capValue(name string) bus.Topic  { return capBase(name).Append("value") }
func capFault(name string) bus.Topic  { return capBase(name).Append("event", "fault") }

// hal/cap/audio/mic/+/control/+
func ctrlWildcard() bus.Topic {
	return bus.T("hal", "cap", domainAudio, kindMic, "+", "control", "+")
}

// Control verbs.
const (
	verbCaptureNow = "capture_now"
	verbSetGain    = "set_gain"
	verbSetPeriod  = "set_period"
	verbResync     = "resync"
	verbFaults     = "faults"
)
