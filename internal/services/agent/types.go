package agent

import (
	"time"

	"tokenherald/internal/criteria"
	"tokenherald/internal/generate"
	"tokenherald/internal/services/status"
	"tokenherald/internal/storage"
	"tokenherald/internal/transport"
	"tokenherald/pkg/logx"
)

type Config struct {
	// Interval between scan ticks.
	Interval time.Duration

	// TickTimeout bounds a single tick end to end.
	TickTimeout time.Duration

	// BatchLimit caps how many candidates one tick examines.
	BatchLimit int

	// DedupSize bounds the recently-announced id set.
	DedupSize int

	Thresholds criteria.Thresholds
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 20 * time.Second
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = 30 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 8
	}
	if c.DedupSize <= 0 {
		c.DedupSize = 4 * c.BatchLimit
		if c.DedupSize < 64 {
			c.DedupSize = 64
		}
	}
	if len(c.Thresholds.Statuses) == 0 && c.Thresholds.MinMarketCap == 0 && c.Thresholds.MinLiquidity == 0 {
		c.Thresholds = criteria.Defaults()
	}
	return c
}

// Deps are the collaborators a Service drives. Store and Status are
// required; a nil Publisher or Generator degrades the pipeline rather
// than failing it.
type Deps struct {
	Store     storage.Store
	Generator generate.Generator
	Publisher transport.Publisher
	Status    *status.Service
	Log       logx.Logger
}
