//go:build tinygo && apollo3

// edge2-mic runs the PDM microphone capability on a SparkFun Edge2. Each
// capture is streamed as a framed CBOR record on the console UART; log lines
// share the same port and are skipped by the host reader.
package main

import (
	"context"
	"os"
	"time"

	"apollo3-go/bsp/edge2"
	"apollo3-go/bus"
	"apollo3-go/drivers/pdm"
	"apollo3-go/frame"
	"apollo3-go/hal/ambiq"
	"apollo3-go/services/config"
	"apollo3-go/services/heartbeat"
	"apollo3-go/services/mic"
	"apollo3-go/types"
	"apollo3-go/x/ring"
)

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix, " ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func main() {
	// Give the USB-serial bridge time to settle before we print.
	time.Sleep(2 * time.Second)
	ctx := config.WithDevice(context.Background(), "edge2")

	println("[main] bootstrapping bus")
	b := bus.NewBus(4)
	cfgConn := b.NewConnection("config")
	micConn := b.NewConnection("mic")
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "cap", "audio", "#"))
	go func() {
		for m := range mon.Channel() {
			switch p := m.Payload.(type) {
			case types.CapabilityStatus:
				printTopicWith("[monitor] status", m.Topic)
				println("[monitor]   link:", string(p.Link), "err:", p.Error)
			case types.MicFault:
				println("[monitor] fault dma:", p.DMAErrors, "ovf:", p.Overflows, "udf:", p.Underflows)
			case types.MicValue:
				// Values arrive every period; frames already carry them.
			default:
				printTopicWith("[monitor] <-", m.Topic)
			}
		}
	}()

	println("[main] publishing config")
	config.NewConfigService().Start(ctx, cfgConn)

	// Frames go through a ring so a slow UART never stalls the capture loop.
	// A log line landing between two pump writes corrupts that one frame;
	// micdump reports it and resynchronises.
	tx := ring.New(16 * 1024)
	go tx.Pump(ctx, os.Stdout, 4096)

	dev := edge2.NewMic(&ambiq.PDM{}, pdm.Options{})
	svc := mic.New(micConn, dev, mic.Options{
		Data:         edge2.MicData,
		Clock:        edge2.MicClock,
		Sink:         frame.NewWriter(tx),
		MaxFrameSize: frame.MaxSamples(tx.Cap()),
	})
	println("[main] starting mic service")
	svc.Start(ctx)

	(&heartbeat.Service{Log: true}).Start(ctx, b.NewConnection("heartbeat"))

	select {}
}
