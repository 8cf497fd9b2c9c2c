//go:build !tinygo

// Host demo: runs the mic capability against the simulated PDM block and
// prints what it publishes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"apollo3-go/bsp/edge2"
	"apollo3-go/bus"
	"apollo3-go/drivers/pdm"
	"apollo3-go/hal/sim"
	"apollo3-go/services/config"
	"apollo3-go/services/mic"
	"apollo3-go/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = config.WithDevice(ctx, "host")

	b := bus.NewBus(8)
	uiConn := b.NewConnection("ui")
	mon := uiConn.Subscribe(bus.T("hal", "cap", "audio", "#"))

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	p := sim.New()
	p.AutoComplete = true
	dev := edge2.NewMic(p, pdm.Options{})
	mic.New(b.NewConnection("mic"), dev, mic.Options{
		Data:  edge2.MicData,
		Clock: edge2.MicClock,
	}).Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-mon.Channel():
			stamp := time.Now().Format("15:04:05.000")
			switch v := m.Payload.(type) {
			case types.MicValue:
				fmt.Printf("%s value seq=%d n=%d peak=%d rms=%d\n", stamp, v.Seq, v.Samples, v.Peak, v.RMS)
			case types.CapabilityStatus:
				fmt.Printf("%s status %s %s\n", stamp, v.Link, v.Error)
			case types.Info:
				fmt.Printf("%s info %+v\n", stamp, v.Detail)
			case types.MicFault:
				fmt.Printf("%s fault %+v\n", stamp, v)
			}
		}
	}
}
