package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Config tunes allocator policy. None of it is persisted; a heap may be
// reopened with a different Config.
type Config struct {
	// MinimumSpanSplitSize is the smallest leftover (span header included)
	// worth carving into a separate free span. Smaller leftovers are granted
	// to the allocation. Values below SpanHeaderSize+MinSpanPayload are raised.
	MinimumSpanSplitSize int

	// GrowthFactor is the minimum ratio by which storage grows when the
	// trailing span needs more room. Values below 1 are treated as 1.
	GrowthFactor float64
}

// DefaultConfig is used when a nil *Config is passed.
var DefaultConfig = Config{
	MinimumSpanSplitSize: 64,
	GrowthFactor:         1.5,
}

func (c Config) normalized() Config {
	if floor := format.SpanHeaderSize + format.MinSpanPayload; c.MinimumSpanSplitSize < floor {
		c.MinimumSpanSplitSize = floor
	}
	if c.GrowthFactor < 1 {
		c.GrowthFactor = 1
	}
	return c
}
