package main

import (
	"bytes"
	"strings"
	"testing"

	"apollo3-go/frame"
)

func TestDumpSummarisesAndCopiesPCM(t *testing.T) {
	var stream bytes.Buffer
	w := frame.NewWriter(&stream)
	stream.WriteString("[main] starting mic service\r\n")
	if err := w.WriteFrame(frame.New(1, 15625, 2, 8, 0, []int16{100, -100, 100, -100})); err != nil {
		t.Fatal(err)
	}
	stream.WriteString("[mem] alloc: 1\r\n")
	if err := w.WriteFrame(frame.New(3, 15625, 2, 8, 0, []int16{1, 2})); err != nil {
		t.Fatal(err)
	}

	var log, pcm bytes.Buffer
	if err := dump(frame.NewReader(&stream), &log, &pcm, 0); err != nil {
		t.Fatal(err)
	}
	out := log.String()
	if !strings.Contains(out, "seq=1 rate=15625Hz ch=2 gain=8 n=4 peak=100 rms=100") {
		t.Fatalf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "gap: 1 frame(s) lost before seq 3") {
		t.Fatalf("gap not reported:\n%s", out)
	}
	if pcm.Len() != 12 {
		t.Fatalf("pcm bytes: %d", pcm.Len())
	}
}

func TestDumpStopsAfterN(t *testing.T) {
	var stream bytes.Buffer
	w := frame.NewWriter(&stream)
	for i := uint32(1); i <= 3; i++ {
		w.WriteFrame(frame.New(i, 8000, 1, 8, 0, []int16{0}))
	}
	var log bytes.Buffer
	if err := dump(frame.NewReader(&stream), &log, nil, 2); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(log.String(), "seq="); got != 2 {
		t.Fatalf("frames printed: %d", got)
	}
}

func TestDumpReportsRestart(t *testing.T) {
	var stream bytes.Buffer
	w := frame.NewWriter(&stream)
	for _, seq := range []uint32{41, 42, 1, 2} {
		w.WriteFrame(frame.New(seq, 8000, 1, 8, 0, []int16{0}))
	}
	var log bytes.Buffer
	if err := dump(frame.NewReader(&stream), &log, nil, 0); err != nil {
		t.Fatal(err)
	}
	out := log.String()
	if !strings.Contains(out, "restart: seq 1 after 42") {
		t.Fatalf("restart not reported:\n%s", out)
	}
	if strings.Contains(out, "gap:") {
		t.Fatalf("restart reported as a gap:\n%s", out)
	}
}
