package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// SamplesDuration is how long n samples take at rateHz.
// rateHz==0 is coerced to 1 to avoid division by zero.
func SamplesDuration(n, rateHz uint32) time.Duration {
	if rateHz == 0 {
		rateHz = 1
	}
	return time.Duration(uint64(n) * uint64(time.Second) / uint64(rateHz))
}

// Ms converts a millisecond count from config into a Duration.
func Ms(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }
