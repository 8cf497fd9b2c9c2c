// Package ring is a single-producer, single-consumer byte ring used to
// decouple a producer that must not block (the capture loop) from a slow
// writer (the console UART).
package ring

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
)

// ErrFull is returned by Write when p does not fit in the free space.
var ErrFull = errors.New("ring: full")

// Ring is a power-of-two byte ring. One goroutine may write and one may read.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{}
	dropped  atomic.Uint32
}

// New panics unless size is a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || size&(size-1) != 0 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Cap is the ring size in bytes.
func (r *Ring) Cap() int { return len(r.buf) }

// Len is the number of unread bytes.
func (r *Ring) Len() int { return int(r.wr.Load() - r.rd.Load()) }

// Space is the number of bytes Write can accept.
func (r *Ring) Space() int { return len(r.buf) - r.Len() }

// Dropped counts writes rejected with ErrFull.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

// Readable receives a token after data has been written.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Write stores all of p or nothing. It never blocks.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	if len(p) > int(r.size()-(wr-rd)) {
		r.dropped.Add(1)
		return 0, ErrFull
	}
	idx := wr & r.mask
	n := copy(r.buf[idx:], p)
	copy(r.buf, p[n:])
	r.wr.Store(wr + uint32(len(p)))

	select {
	case r.readable <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Read copies up to len(p) unread bytes into p. It never blocks and returns
// 0 when the ring is empty.
func (r *Ring) Read(p []byte) int {
	rd := r.rd.Load()
	avail := int(r.wr.Load() - rd)
	if avail > len(p) {
		avail = len(p)
	}
	if avail <= 0 {
		return 0
	}
	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > avail {
		first = avail
	}
	copy(p, r.buf[idx:idx+uint32(first)])
	copy(p[first:avail], r.buf)
	r.rd.Store(rd + uint32(avail))
	return avail
}

// Pump drains the ring into w until ctx is done or w fails.
func (r *Ring) Pump(ctx context.Context, w io.Writer, chunk int) error {
	if chunk <= 0 {
		chunk = 256
	}
	tmp := make([]byte, chunk)
	for {
		if n := r.Read(tmp); n > 0 {
			if _, err := w.Write(tmp[:n]); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.readable:
		}
	}
}
