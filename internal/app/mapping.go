package app

import (
	"tokenherald/internal/config"
	"tokenherald/internal/criteria"
	"tokenherald/internal/services/agent"
	"tokenherald/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	}
}

func mapAgentConfig(cfg *config.Config) agent.Config {
	th := criteria.Defaults()
	// Pointers distinguish "key absent" (keep the default) from an
	// explicit zero (threshold disabled on purpose).
	if cfg.Criteria.MinMarketCap != nil {
		th.MinMarketCap = *cfg.Criteria.MinMarketCap
	}
	if cfg.Criteria.MinLiquidity != nil {
		th.MinLiquidity = *cfg.Criteria.MinLiquidity
	}
	if len(cfg.Criteria.Statuses) > 0 {
		th.Statuses = cfg.Criteria.Statuses
	}
	return agent.Config{
		Interval:    cfg.Scanner.IntervalOrDefault(),
		TickTimeout: cfg.Scanner.TickTimeoutOrDefault(),
		BatchLimit:  cfg.Scanner.BatchLimitOrDefault(),
		DedupSize:   cfg.Scanner.DedupSizeOrDefault(),
		Thresholds:  th,
	}
}
