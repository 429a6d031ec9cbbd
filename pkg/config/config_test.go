package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Server.Port != 8080 || c.Server.WriteTimeout != 120*time.Second {
		t.Fatalf("server defaults not applied: %+v", c.Server)
	}
	s := c.Simulation
	if s.LookbackDays != 365 || s.Episodes != 50 || s.StartIndex != 30 || s.MinFeatureBars != 50 || s.InitialCash != 10000 {
		t.Fatalf("simulation defaults not applied: %+v", s)
	}
	if s.Agent.Alpha != 0.3 || s.Agent.Gamma != 0.9 || s.Agent.EpsilonDecay != 0.98 {
		t.Fatalf("agent defaults not applied: %+v", s.Agent)
	}
	if s.Reward.Friction != 0.002 || s.Reward.TradeMultiplier != 2 {
		t.Fatalf("reward defaults not applied: %+v", s.Reward)
	}
	if c.MarketData.Provider != "finnhub" || c.PolicyStore.Backend != "file" {
		t.Fatalf("unexpected backends %q %q", c.MarketData.Provider, c.PolicyStore.Backend)
	}
}

func TestParseKeepsExplicitValues(t *testing.T) {
	c, err := Parse([]byte(`
simulation:
  episodes: 5
  seed: 42
  agent:
    alpha: 0.5
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Simulation.Episodes != 5 || c.Simulation.Seed != 42 || c.Simulation.Agent.Alpha != 0.5 {
		t.Fatalf("explicit values overwritten: %+v", c.Simulation)
	}
	if c.Simulation.Agent.Gamma != 0.9 {
		t.Fatalf("sibling default missing: %v", c.Simulation.Agent.Gamma)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"provider", "market_data:\n  provider: yahoo\n", "market_data.provider"},
		{"clickhouse host", "market_data:\n  provider: clickhouse\n", "clickhouse.host"},
		{"backend", "policy_store:\n  backend: s3\n", "policy_store.backend"},
		{"redis backend", "policy_store:\n  backend: redis\n", "requires redis.enabled"},
		{"kafka", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"start index", "simulation:\n  start_index: 49\n", "start_index"},
		{"alpha", "simulation:\n  agent:\n    alpha: 1.5\n", "alpha"},
		{"epsilon", "simulation:\n  agent:\n    epsilon_min: 0.9\n", "epsilon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("FINNHUB_API_KEY", "secret")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("POLICY_STORE_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.MarketData.Finnhub.APIKey != "secret" {
		t.Fatalf("api key override missing")
	}
	if !c.Redis.Enabled || c.Redis.Host != "cache" || c.Redis.Port != 6380 {
		t.Fatalf("redis override wrong: %+v", c.Redis)
	}
	if c.PolicyStore.Backend != "redis" || c.Log.Level != "debug" {
		t.Fatalf("overrides missing: %q %q", c.PolicyStore.Backend, c.Log.Level)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka override wrong: %+v", c.Kafka)
	}
}

func TestRepositoryConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Simulation.Episodes != 50 || c.Kafka.Topic != "simulation-reports" {
		t.Fatalf("unexpected config %+v", c.Simulation)
	}
}
