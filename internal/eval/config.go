package eval

import (
	"math"
	"time"
)

const (
	DefaultDepth     = 15
	MinDepth         = 5
	MaxDepth         = 25
	DefaultTimeLimit = 0.08 // seconds
	DefaultThreads   = 1
	DefaultHashMB    = 16
)

// EngineConfig is fixed for one analysis run and echoed in the report.
type EngineConfig struct {
	EnginePath string  `json:"engine_path"`
	Depth      int     `json:"depth"`
	MultiPV    int     `json:"multipv"`
	UseTime    bool    `json:"use_time"`
	TimeLimit  float64 `json:"time_limit"` // seconds, used when UseTime is set
	Threads    int     `json:"threads"`
	HashMB     int     `json:"hash_mb"`
	SyzygyPath *string `json:"syzygy_path"`
}

// DefaultEngineConfig returns the defaults of a request with no options.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Depth:     DefaultDepth,
		MultiPV:   1,
		TimeLimit: DefaultTimeLimit,
		Threads:   DefaultThreads,
		HashMB:    DefaultHashMB,
	}
}

// Normalized fills zero values with defaults and clamps out-of-range
// values. The second result lists the fields that were changed.
func (c EngineConfig) Normalized() (EngineConfig, []string) {
	var changed []string

	if c.Depth == 0 {
		c.Depth = DefaultDepth
	}
	if c.Depth < MinDepth {
		c.Depth = MinDepth
		changed = append(changed, "depth")
	}
	if c.Depth > MaxDepth {
		c.Depth = MaxDepth
		changed = append(changed, "depth")
	}
	if c.MultiPV < 1 {
		c.MultiPV = 1
	}
	if c.TimeLimit <= 0 || math.IsNaN(c.TimeLimit) {
		if c.UseTime {
			changed = append(changed, "time_limit")
		}
		c.TimeLimit = DefaultTimeLimit
	}
	if c.Threads < 1 {
		c.Threads = DefaultThreads
	}
	if c.HashMB < 1 {
		c.HashMB = DefaultHashMB
	}
	if c.SyzygyPath != nil && *c.SyzygyPath == "" {
		c.SyzygyPath = nil
	}
	return c, changed
}

// Limit returns the per-query search bound.
func (c EngineConfig) Limit() Limit {
	if c.UseTime {
		return Limit{MoveTime: time.Duration(c.TimeLimit * float64(time.Second))}
	}
	return Limit{Depth: c.Depth}
}
