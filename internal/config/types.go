// Package config loads and watches the herald configuration file.
//
// YAML is the primary format; the file is decoded strictly so typos in
// keys fail loudly instead of silently using defaults. Secrets (bot
// token, generator API key) can come from the environment instead of
// the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Log       LogConfig       `json:"log"`
	Store     StoreConfig     `json:"store"`
	Scanner   ScannerConfig   `json:"scanner"`
	Criteria  CriteriaConfig  `json:"criteria"`
	Generator GeneratorConfig `json:"generator"`
	Publisher PublisherConfig `json:"publisher"`
	Server    ServerConfig    `json:"server"`
}

type LogConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StoreConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`
}

func (c StoreConfig) BusyTimeoutOrDefault() time.Duration {
	return durationOr(c.BusyTimeout, 5*time.Second)
}

type ScannerConfig struct {
	Interval    string `json:"interval"`
	TickTimeout string `json:"tick_timeout"`
	BatchLimit  int    `json:"batch_limit"`
	DedupSize   int    `json:"dedup_size"`
	HistorySize int    `json:"history_size"`
}

func (c ScannerConfig) IntervalOrDefault() time.Duration {
	return durationOr(c.Interval, 20*time.Second)
}

func (c ScannerConfig) TickTimeoutOrDefault() time.Duration {
	return durationOr(c.TickTimeout, 30*time.Second)
}

func (c ScannerConfig) BatchLimitOrDefault() int {
	if c.BatchLimit <= 0 {
		return 8
	}
	return c.BatchLimit
}

func (c ScannerConfig) DedupSizeOrDefault() int {
	if c.DedupSize > 0 {
		return c.DedupSize
	}
	if n := 4 * c.BatchLimitOrDefault(); n > 64 {
		return n
	}
	return 64
}

// CriteriaConfig tunes the announcement thresholds. The minimums are
// pointers so an explicit zero ("announce regardless of liquidity") is
// distinguishable from an absent key, which keeps the production
// defaults.
type CriteriaConfig struct {
	MinMarketCap *float64 `json:"min_market_cap"`
	MinLiquidity *float64 `json:"min_liquidity"`
	Statuses     []string `json:"statuses"`
}

type GeneratorConfig struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
	Timeout  string `json:"timeout"`
}

func (c GeneratorConfig) TimeoutOrDefault() time.Duration {
	return durationOr(c.Timeout, 20*time.Second)
}

type PublisherConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
	Quota  int    `json:"quota"`
	Window string `json:"window"`
}

func (c PublisherConfig) WindowOrDefault() time.Duration {
	return durationOr(c.Window, time.Hour)
}

func (c PublisherConfig) QuotaOrDefault() int {
	if c.Quota <= 0 {
		return 10
	}
	return c.Quota
}

type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func (c ServerConfig) AddrOrDefault() string {
	if strings.TrimSpace(c.Addr) == "" {
		return "127.0.0.1:8080"
	}
	return c.Addr
}

// ApplyEnv overlays secret values from the environment. Env wins over
// the file so deployments can keep credentials out of it.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HERALD_TELEGRAM_TOKEN"); v != "" {
		c.Publisher.Token = v
	}
	if v := os.Getenv("HERALD_GENERATOR_API_KEY"); v != "" {
		c.Generator.APIKey = v
	}
	if v := os.Getenv("HERALD_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
}

// Validate checks cross-field constraints that strict decoding cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	for _, d := range []struct {
		key string
		raw string
	}{
		{"scanner.interval", c.Scanner.Interval},
		{"scanner.tick_timeout", c.Scanner.TickTimeout},
		{"publisher.window", c.Publisher.Window},
		{"generator.timeout", c.Generator.Timeout},
		{"store.busy_timeout", c.Store.BusyTimeout},
	} {
		if _, err := durationSetting(d.key, d.raw); err != nil {
			return err
		}
	}
	if c.Scanner.BatchLimit < 0 {
		return fmt.Errorf("scanner.batch_limit must be >= 0")
	}
	if c.Criteria.MinMarketCap != nil && *c.Criteria.MinMarketCap < 0 {
		return fmt.Errorf("criteria.min_market_cap must be >= 0")
	}
	if c.Criteria.MinLiquidity != nil && *c.Criteria.MinLiquidity < 0 {
		return fmt.Errorf("criteria.min_liquidity must be >= 0")
	}
	if c.Publisher.Token != "" && c.Publisher.ChatID == 0 {
		return fmt.Errorf("publisher.chat_id is required when publisher.token is set")
	}
	return nil
}

// durationSetting parses one duration-valued key. Empty means "not
// set"; negative values are configuration errors.
func durationSetting(key, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", key)
	}
	return d, nil
}

// durationOr resolves an optional duration key against its default.
// Validate has already rejected malformed values by the time the
// OrDefault accessors run, so errors collapse to the default here.
func durationOr(raw string, def time.Duration) time.Duration {
	d, err := durationSetting("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
