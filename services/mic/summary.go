package mic

import (
	"math"

	"apollo3-go/types"
	"apollo3-go/x/mathx"
)

// Summarise reduces a capture to its level statistics using integer maths.
func Summarise(buf []int16) types.MicValue {
	v := types.MicValue{Samples: uint32(len(buf))}
	if len(buf) == 0 {
		return v
	}
	var (
		sum   int64
		sumSq uint64
		peak  int32
	)
	for _, s := range buf {
		x := int32(s)
		sum += int64(x)
		sumSq += uint64(x * x)
		peak = mathx.Max(peak, mathx.Abs(x))
		if s == math.MaxInt16 || s == math.MinInt16 {
			v.Clipped++
		}
	}
	n := uint64(len(buf))
	v.Peak = int16(mathx.Min(peak, math.MaxInt16))
	v.RMS = uint16(mathx.ISqrt(mathx.RoundDiv(sumSq, n)))
	v.DCx10 = int32(sum * 10 / int64(n))
	return v
}
