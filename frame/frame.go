// Package frame is the wire format for captured PCM sent from the board to a
// host. A frame is a CBOR array (header fields followed by little-endian
// 16-bit samples) carried in a small envelope so a reader can find frame
// boundaries in a console stream that also carries log text.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Frame is one capture.
type Frame struct {
	_          struct{} `cbor:",toarray"`
	Seq        uint32
	SampleRate uint32 // Hz
	Channel    uint8  // pdm.Channel
	Gain       uint8  // pdm.Gain step
	TS         int64  // Unix ms at completion
	PCM        []byte // little-endian int16
}

var (
	ErrMalformed = errors.New("frame: malformed")
	ErrTooLarge  = errors.New("frame: too large")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxArrayElements:  16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// New builds a frame from samples.
func New(seq, rate uint32, channel, gain uint8, ts int64, samples []int16) Frame {
	pcm := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(s))
	}
	return Frame{Seq: seq, SampleRate: rate, Channel: channel, Gain: gain, TS: ts, PCM: pcm}
}

// Samples decodes the PCM payload.
func (f Frame) Samples() []int16 {
	out := make([]int16, len(f.PCM)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(f.PCM[2*i:]))
	}
	return out
}

// Len is the number of samples in the frame.
func (f Frame) Len() int { return len(f.PCM) / 2 }

// Encode returns the CBOR form of f.
func Encode(f Frame) ([]byte, error) {
	b, err := encMode.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("frame: encode: %w", err)
	}
	return b, nil
}

// Decode parses the CBOR form of a frame.
func Decode(b []byte) (Frame, error) {
	var f Frame
	if err := decMode.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.SampleRate == 0 || len(f.PCM)%2 != 0 {
		return Frame{}, ErrMalformed
	}
	return f, nil
}
