package mathx

// ISqrt returns floor(sqrt(x)) without floating point.
func ISqrt(x uint64) uint64 {
	if x < 2 {
		return x
	}
	var r uint64
	bit := uint64(1) << 62
	for bit > x {
		bit >>= 2
	}
	for bit != 0 {
		if x >= r+bit {
			x -= r + bit
			r = r>>1 + bit
		} else {
			r >>= 1
		}
		bit >>= 2
	}
	return r
}
