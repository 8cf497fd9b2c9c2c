// Package mathx holds small generic numeric helpers used when turning config
// values into register fields.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range spanned by a and b, in either order.
func Clamp[T constraints.Ordered](v, a, b T) T {
	lo, hi := Min(a, b), Max(a, b)
	return Max(lo, Min(v, hi))
}

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Abs returns the magnitude of v. The most negative value of a type has no
// positive counterpart and comes back unchanged; widen first when it matters.
func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
