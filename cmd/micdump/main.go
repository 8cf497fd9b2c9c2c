//go:build !tinygo

// micdump reads capture frames from a board's serial console, prints one
// summary line per frame and optionally appends the raw PCM to a file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"apollo3-go/frame"
	"apollo3-go/services/mic"

	"github.com/tarm/serial"
)

var (
	port  = flag.String("port", "/dev/ttyUSB0", "Serial device path, or - for stdin")
	baud  = flag.Int("baud", 115200, "Baud rate")
	out   = flag.String("out", "", "Append raw little-endian PCM to this file")
	count = flag.Int("n", 0, "Stop after this many frames (0 = forever)")
)

func open(name string, baud int) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 0, // block until data arrives
	})
}

func main() {
	flag.Parse()

	src, err := open(*port, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", *port, err)
		os.Exit(1)
	}
	defer src.Close()

	var pcm io.Writer
	if *out != "" {
		f, err := os.OpenFile(*out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", *out, err)
			os.Exit(1)
		}
		defer f.Close()
		pcm = f
	}

	if err := dump(frame.NewReader(src), os.Stdout, pcm, *count); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dump copies frames from r until EOF or n frames (n <= 0 means no limit).
// Corrupt frames are reported and skipped.
func dump(r *frame.Reader, log io.Writer, pcm io.Writer, n int) error {
	var lastSeq uint32
	for got := 0; n <= 0 || got < n; {
		f, err := r.ReadFrame()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, frame.ErrMalformed):
			fmt.Fprintf(log, "skipping corrupt frame: %v\n", err)
			continue
		case err != nil:
			return err
		}
		got++

		switch {
		case lastSeq == 0:
		case f.Seq <= lastSeq:
			fmt.Fprintf(log, "restart: seq %d after %d\n", f.Seq, lastSeq)
		case f.Seq != lastSeq+1:
			fmt.Fprintf(log, "gap: %d frame(s) lost before seq %d\n", f.Seq-lastSeq-1, f.Seq)
		}
		lastSeq = f.Seq

		v := mic.Summarise(f.Samples())
		fmt.Fprintf(log, "%s seq=%d rate=%dHz ch=%d gain=%d n=%d peak=%d rms=%d dc=%.1f clipped=%d skipped=%d\n",
			time.UnixMilli(f.TS).UTC().Format("15:04:05.000"),
			f.Seq, f.SampleRate, f.Channel, f.Gain, v.Samples, v.Peak, v.RMS,
			float64(v.DCx10)/10, v.Clipped, r.Skipped())

		if pcm != nil {
			if _, err := pcm.Write(f.PCM); err != nil {
				return fmt.Errorf("write pcm: %w", err)
			}
		}
	}
	return nil
}
