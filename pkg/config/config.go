package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string      `yaml:"environment" default:"development"`
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Metrics     Metrics     `yaml:"metrics"`
	Simulation  Simulation  `yaml:"simulation"`
	MarketData  MarketData  `yaml:"market_data"`
	ClickHouse  ClickHouse  `yaml:"clickhouse"`
	PolicyStore PolicyStore `yaml:"policy_store"`
	Redis       Redis       `yaml:"redis"`
	Kafka       Kafka       `yaml:"kafka"`
}

type Server struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	// Per-client budget for /api/simulate, training is expensive.
	RequestsPerMinute int `yaml:"requests_per_minute" default:"30"`
	Burst             int `yaml:"burst" default:"5"`
}

type Log struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

// Metrics are exposed unless Disabled is set.
type Metrics struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path" default:"/metrics"`
}

type Simulation struct {
	LookbackDays   int           `yaml:"lookback_days" default:"365"`
	Episodes       int           `yaml:"episodes" default:"50"`
	StartIndex     int           `yaml:"start_index" default:"30"`
	MinFeatureBars int           `yaml:"min_feature_bars" default:"50"`
	InitialCash    float64       `yaml:"initial_cash" default:"10000"`
	Seed           uint64        `yaml:"seed"` // 0 seeds from the clock per request
	LockTTL        time.Duration `yaml:"lock_ttl" default:"5m"`
	LockWait       time.Duration `yaml:"lock_wait" default:"2m"`
	Agent          Agent         `yaml:"agent"`
	Reward         Reward        `yaml:"reward"`
}

type Agent struct {
	Alpha        float64 `yaml:"alpha" default:"0.3"`
	Gamma        float64 `yaml:"gamma" default:"0.9"`
	Epsilon      float64 `yaml:"epsilon" default:"0.5"`
	EpsilonMin   float64 `yaml:"epsilon_min" default:"0.1"`
	EpsilonDecay float64 `yaml:"epsilon_decay" default:"0.98"`
}

type Reward struct {
	HoldPenalty     float64 `yaml:"hold_penalty" default:"0.001"`
	Friction        float64 `yaml:"friction" default:"0.002"`
	TradeMultiplier float64 `yaml:"trade_multiplier" default:"2"`
}

type MarketData struct {
	Provider string        `yaml:"provider" default:"finnhub"` // finnhub | clickhouse
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
	Finnhub  Finnhub       `yaml:"finnhub"`
}

type Finnhub struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"1"`
	Burst             int           `yaml:"burst" default:"1"`
}

type ClickHouse struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"tradesim"`
	Table            string        `yaml:"table" default:"daily_bars"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type PolicyStore struct {
	Backend    string `yaml:"backend" default:"file"` // file | sqlite | redis
	Dir        string `yaml:"dir" default:"models"`
	SQLitePath string `yaml:"sqlite_path" default:"data/policies.db"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"tradesim"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"simulation-reports"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

// Load reads and parses a YAML configuration file. Missing keys fall back to
// the struct defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the working directory is honoured when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.MarketData.Finnhub.APIKey = v
	}
	if v := os.Getenv("MARKET_DATA_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := os.Getenv("POLICY_STORE_BACKEND"); v != "" {
		c.PolicyStore.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case "finnhub", "clickhouse":
	default:
		return fmt.Errorf("market_data.provider must be 'finnhub' or 'clickhouse', got '%s'", c.MarketData.Provider)
	}
	if c.MarketData.Provider == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when market_data.provider is clickhouse")
	}

	switch c.PolicyStore.Backend {
	case "file", "sqlite":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("policy_store.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("policy_store.backend must be 'file', 'sqlite' or 'redis', got '%s'", c.PolicyStore.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}

	s := c.Simulation
	if s.Episodes < 0 {
		return fmt.Errorf("simulation.episodes must be >= 0")
	}
	if s.LookbackDays <= 0 {
		return fmt.Errorf("simulation.lookback_days must be > 0")
	}
	if s.StartIndex < 0 || s.StartIndex+2 > s.MinFeatureBars {
		return fmt.Errorf("simulation.start_index must leave at least two bars before min_feature_bars")
	}
	if s.InitialCash <= 0 {
		return fmt.Errorf("simulation.initial_cash must be > 0")
	}
	a := s.Agent
	if a.Alpha <= 0 || a.Alpha > 1 {
		return fmt.Errorf("simulation.agent.alpha must be in (0, 1]")
	}
	if a.Gamma < 0 || a.Gamma > 1 {
		return fmt.Errorf("simulation.agent.gamma must be in [0, 1]")
	}
	if a.EpsilonMin < 0 || a.EpsilonMin > a.Epsilon || a.Epsilon > 1 {
		return fmt.Errorf("simulation.agent epsilon bounds must satisfy 0 <= epsilon_min <= epsilon <= 1")
	}
	if a.EpsilonDecay <= 0 || a.EpsilonDecay > 1 {
		return fmt.Errorf("simulation.agent.epsilon_decay must be in (0, 1]")
	}
	return nil
}
