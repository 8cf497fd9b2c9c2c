// Package heartbeat periodically publishes uptime and runtime memory stats
// on sys/heartbeat. config/heartbeat may change the interval.
package heartbeat

import (
	"context"
	"runtime"
	"time"

	"apollo3-go/bus"
	"apollo3-go/services/internal/util"
	"apollo3-go/types"
	"apollo3-go/x/mathx"
	"apollo3-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	TopicHeartbeat       = bus.T("sys", "heartbeat")
)

const (
	DefaultInterval = 10 * time.Second
	MinInterval     = 100 * time.Millisecond
)

type Service struct {
	// Log prints each beat with println when set.
	Log bool

	interval time.Duration
	started  time.Time
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	if s.interval == 0 {
		s.interval = DefaultInterval
	}
	s.started = time.Now()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.beat(conn)
		case msg := <-cfgSub.Channel():
			var cfg types.HeartbeatConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil || cfg.IntervalMs == 0 {
				continue
			}
			s.interval = mathx.Max(timex.Ms(cfg.IntervalMs), MinInterval)
			tick.Reset(s.interval)
		}
	}
}

func (s *Service) beat(conn *bus.Connection) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	hb := types.Heartbeat{
		UptimeMs:  uint32(time.Since(s.started).Milliseconds()),
		HeapAlloc: uint32(ms.HeapAlloc),
		Mallocs:   uint32(ms.Mallocs),
		Frees:     uint32(ms.Frees),
	}
	if s.Log {
		println("[heartbeat] up:", hb.UptimeMs, "alloc:", hb.HeapAlloc, "mallocs:", hb.Mallocs, "frees:", hb.Frees)
	}
	conn.Publish(conn.NewMessage(TopicHeartbeat, hb, false))
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
