package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
log:
  level: debug
  console: true
store:
  path: ./data/herald.db
  busy_timeout: 2s
scanner:
  interval: 15s
  batch_limit: 5
criteria:
  min_market_cap: 50000
  min_liquidity: 20000
  statuses: [active, survival]
publisher:
  token: "123:abc"
  chat_id: -100200300
  quota: 6
  window: 1h
server:
  enabled: true
  addr: "127.0.0.1:9000"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "herald.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	m := NewManager(writeConfig(t, sampleYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Fatalf("log.level = %q", cfg.Log.Level)
	}
	if cfg.Scanner.IntervalOrDefault() != 15*time.Second {
		t.Fatalf("interval = %v", cfg.Scanner.IntervalOrDefault())
	}
	if cfg.Scanner.BatchLimitOrDefault() != 5 {
		t.Fatalf("batch = %d", cfg.Scanner.BatchLimitOrDefault())
	}
	if cfg.Criteria.MinMarketCap == nil || *cfg.Criteria.MinMarketCap != 50000 {
		t.Fatalf("min_market_cap = %v", cfg.Criteria.MinMarketCap)
	}
	if len(cfg.Criteria.Statuses) != 2 {
		t.Fatalf("statuses = %v", cfg.Criteria.Statuses)
	}
	if cfg.Publisher.ChatID != -100200300 {
		t.Fatalf("chat_id = %d", cfg.Publisher.ChatID)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestCriteriaZeroKeptDistinctFromAbsent(t *testing.T) {
	body := strings.Replace(sampleYAML, "min_liquidity: 20000", "min_liquidity: 0", 1)
	m := NewManager(writeConfig(t, body))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Criteria.MinLiquidity == nil || *cfg.Criteria.MinLiquidity != 0 {
		t.Fatalf("min_liquidity = %v, want explicit zero", cfg.Criteria.MinLiquidity)
	}

	body = strings.Replace(sampleYAML, "  min_liquidity: 20000\n", "", 1)
	m = NewManager(writeConfig(t, body))
	cfg, err = m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Criteria.MinLiquidity != nil {
		t.Fatalf("min_liquidity = %v, want nil for absent key", *cfg.Criteria.MinLiquidity)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	m := NewManager(writeConfig(t, sampleYAML+"\nbogus_section:\n  x: 1\n"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateChatIDRequiredWithToken(t *testing.T) {
	body := strings.Replace(sampleYAML, "chat_id: -100200300", "chat_id: 0", 1)
	m := NewManager(writeConfig(t, body))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected validation error when token set without chat_id")
	}
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv("HERALD_TELEGRAM_TOKEN", "999:env")
	m := NewManager(writeConfig(t, sampleYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Publisher.Token != "999:env" {
		t.Fatalf("token = %q, want env override", cfg.Publisher.Token)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	var sc ScannerConfig
	if sc.IntervalOrDefault() != 20*time.Second {
		t.Fatalf("default interval = %v", sc.IntervalOrDefault())
	}
	if sc.BatchLimitOrDefault() != 8 {
		t.Fatalf("default batch = %d", sc.BatchLimitOrDefault())
	}
	if sc.DedupSizeOrDefault() != 64 {
		t.Fatalf("default dedup = %d", sc.DedupSizeOrDefault())
	}

	var pc PublisherConfig
	if pc.QuotaOrDefault() != 10 || pc.WindowOrDefault() != time.Hour {
		t.Fatalf("publisher defaults = %d / %v", pc.QuotaOrDefault(), pc.WindowOrDefault())
	}

	var sv ServerConfig
	if sv.AddrOrDefault() != "127.0.0.1:8080" {
		t.Fatalf("default addr = %q", sv.AddrOrDefault())
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	m := NewManager("unused.yaml")
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	cfg := &Config{}
	m.publish(cfg)

	select {
	case got := <-ch:
		if got != cfg {
			t.Fatal("wrong config delivered")
		}
	default:
		t.Fatal("no config delivered")
	}
}
