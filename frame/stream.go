package frame

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"
)

// Envelope: magic (2 bytes), body length (uint16 LE), CBOR body.
const (
	magic0 = 0xA5
	magic1 = 0x3D

	headerLen = 4
	MaxBody   = 0xFFFF
)

// Overhead bounds the bytes a frame adds beyond its PCM: the envelope, the
// CBOR array head and the widest encoding of each header field.
const Overhead = headerLen + 1 + 5 + 5 + 2 + 2 + 9 + 5

// MaxSamples is the largest sample count whose enveloped frame always fits
// in n bytes.
func MaxSamples(n int) uint32 {
	n = min(n, headerLen+MaxBody)
	if n <= Overhead {
		return 0
	}
	return uint32((n - Overhead) / 2)
}

// Writer writes enveloped frames. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteFrame encodes f and writes it in one Write call.
func (w *Writer) WriteFrame(f Frame) error {
	body, err := Encode(f)
	if err != nil {
		return err
	}
	if len(body) > MaxBody {
		return ErrTooLarge
	}
	buf := make([]byte, headerLen+len(body))
	buf[0], buf[1] = magic0, magic1
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(body)))
	copy(buf[headerLen:], body)

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(buf)
	return err
}

// Reader reads enveloped frames, skipping any bytes between them.
type Reader struct {
	r       *bufio.Reader
	skipped int
}

func NewReader(r io.Reader) *Reader { return &Reader{r: bufio.NewReader(r)} }

// Skipped returns how many non-frame bytes have been discarded so far.
func (r *Reader) Skipped() int { return r.skipped }

// ReadFrame returns the next frame. A corrupt body is reported as
// ErrMalformed and the reader resynchronises on the next call. io.EOF is
// returned only at a frame boundary.
func (r *Reader) ReadFrame() (Frame, error) {
	if err := r.sync(); err != nil {
		return Frame{}, err
	}
	var lb [2]byte
	if _, err := io.ReadFull(r.r, lb[:]); err != nil {
		return Frame{}, unexpected(err)
	}
	body := make([]byte, binary.LittleEndian.Uint16(lb[:]))
	if _, err := io.ReadFull(r.r, body); err != nil {
		return Frame{}, unexpected(err)
	}
	return Decode(body)
}

// sync consumes bytes up to and including the magic pair.
func (r *Reader) sync() error {
	prev := -1
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			if prev >= 0 {
				r.skipped++
			}
			return err
		}
		if prev == magic0 && b == magic1 {
			return nil
		}
		if prev >= 0 {
			r.skipped++
		}
		prev = int(b)
	}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
