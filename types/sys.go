package types

// HeartbeatConfig is the payload of config/heartbeat.
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}

// Heartbeat is published on sys/heartbeat.
type Heartbeat struct {
	UptimeMs  uint32 `json:"uptime_ms"`
	HeapAlloc uint32 `json:"heap_alloc"`
	Mallocs   uint32 `json:"mallocs"`
	Frees     uint32 `json:"frees"`
}
