package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"rangepulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		AsyncInsert      bool          `yaml:"async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"rangepulse.signals"`
		Compression  string        `yaml:"compression" default:"gzip"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		Linger       time.Duration `yaml:"linger" default:"500ms"`
	} `yaml:"kafka"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"30s"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Scanner struct {
		Enabled   bool          `yaml:"enabled" default:"true"`
		Symbols   []string      `yaml:"symbols"`
		Timeframe string        `yaml:"timeframe" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
		Interval  time.Duration `yaml:"interval" default:"1m"`
		Candles   int           `yaml:"candles" default:"500" validate:"gte=50,lte=10000"`
	} `yaml:"scanner"`
	Backtest struct {
		InitialBalance float64 `yaml:"initial_balance" default:"10000"`
		RiskPercent    float64 `yaml:"risk_percent" default:"0.02" validate:"gt=0,lte=1"`
		FeePercent     float64 `yaml:"fee_percent" default:"0.1" validate:"gte=0,lt=5"`
	} `yaml:"backtest"`
	Strategy Strategy `yaml:"strategy"`
}

// Strategy holds every tunable of the sideways detector, the confirmation
// engine and the level calculator. The point weights of the confirmation
// rules are fixed (see internal/services/sideways); only thresholds and
// periods are configurable. Every default is usable as-is, so an absent
// config file is never an error.
type Strategy struct {
	ATRPeriod              int     `yaml:"atr_period" default:"14" validate:"gte=2"`
	LookbackPeriod         int     `yaml:"lookback_period" default:"24" validate:"gte=5"`
	MaxRangePercent        float64 `yaml:"max_range_percent" default:"5.0" validate:"gt=0"`
	TrendSlopeThreshold    float64 `yaml:"trend_slope_threshold" default:"0.05" validate:"gt=0"`
	ATRVolatilityThreshold float64 `yaml:"atr_volatility_threshold" default:"3.0" validate:"gt=0"`
	MinSidewaysDuration    int     `yaml:"min_sideways_duration" default:"3" validate:"gte=1"`

	RSIPeriod     int     `yaml:"rsi_period" default:"14" validate:"gte=2"`
	RSIOverbought float64 `yaml:"rsi_overbought" default:"70" validate:"gt=50,lte=100"`
	RSIOversold   float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0,lt=50"`

	StochKPeriod    int     `yaml:"stoch_k_period" default:"14" validate:"gte=2"`
	StochDPeriod    int     `yaml:"stoch_d_period" default:"3" validate:"gte=1"`
	StochOverbought float64 `yaml:"stoch_overbought" default:"80"`
	StochOversold   float64 `yaml:"stoch_oversold" default:"20"`

	CCIPeriod    int     `yaml:"cci_period" default:"20" validate:"gte=2"`
	CCIThreshold float64 `yaml:"cci_threshold" default:"100" validate:"gt=0"`

	BBPeriod           int     `yaml:"bb_period" default:"20" validate:"gte=2"`
	BBStd              float64 `yaml:"bb_std" default:"2.0" validate:"gt=0"`
	BBSqueezeThreshold float64 `yaml:"bb_squeeze_threshold" default:"0.8" validate:"gt=0"`
	BBProximityPercent float64 `yaml:"bb_proximity_percent" default:"5.0" validate:"gt=0"`

	KeltnerATRPeriod  int     `yaml:"keltner_atr_period" default:"10" validate:"gte=2"`
	KeltnerMultiplier float64 `yaml:"keltner_multiplier" default:"1.5" validate:"gt=0"`
	KeltnerEMAPeriod  int     `yaml:"keltner_ema_period" default:"20" validate:"gte=2"`

	VolumeMAPeriod         int     `yaml:"volume_ma_period" default:"20" validate:"gte=2"`
	VolumeSpikeThreshold   float64 `yaml:"volume_spike_threshold" default:"2.0" validate:"gt=1"`
	MomentumPeriod         int     `yaml:"momentum_period" default:"10" validate:"gte=1"`
	FisherThreshold        float64 `yaml:"fisher_threshold" default:"2.0" validate:"gt=0"`
	RangeFloorPercent      float64 `yaml:"range_floor_percent" default:"20" validate:"gt=0,lt=50"`
	RangeCeilingPercent    float64 `yaml:"range_ceiling_percent" default:"80" validate:"gt=50,lt=100"`
	MinConfirmationSignals int     `yaml:"min_confirmation_signals" default:"3" validate:"gte=1"`

	SLATRMultiplier  float64    `yaml:"sl_atr_multiplier" default:"1.2" validate:"gt=0"`
	TPSLRatio        float64    `yaml:"tp_sl_ratio" default:"1.5" validate:"gt=0"`
	PartialTPFracs   []float64  `yaml:"partial_tp_fractions" default:"[0.4,0.7,1.0]"`
	PartialTPSizes   []float64  `yaml:"partial_tp_sizes" default:"[30,30,40]"`
	TrailAfterProfit float64    `yaml:"trail_after_profit" default:"1.0" validate:"gt=0"`
	TrailDistance    float64    `yaml:"trail_distance" default:"0.5" validate:"gt=0"`
	ExitAfterBars    int        `yaml:"exit_after_bars" default:"16" validate:"gte=1"`
}

// ErrConfigMissing signals that no config file was found and defaults were
// used. Callers log a warning and continue; it is never fatal.
var ErrConfigMissing = fmt.Errorf("config file not found, using defaults")

var validate = validator.New()

// Default returns a configuration populated entirely from default tags.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file, filling unset fields with
// defaults. A missing file is not fatal: the full default configuration is
// returned along with ErrConfigMissing for the caller to log.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c, derr := Default()
		if derr != nil {
			return nil, derr
		}
		return c, ErrConfigMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil && err != ErrConfigMissing {
		return nil, err
	}
	missing := err

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scanner.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, missing
}

// Validate checks configured values against their allowed ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		return fmt.Errorf("strategy: rsi_oversold must be below rsi_overbought")
	}
	f := c.Strategy.PartialTPFracs
	if len(f) != 3 {
		return fmt.Errorf("strategy: partial_tp_fractions must have exactly 3 entries")
	}
	if f[0] <= 0 || f[0] >= f[1] || f[1] >= f[2] {
		return fmt.Errorf("strategy: partial_tp_fractions must be positive and strictly increasing")
	}
	if len(c.Strategy.PartialTPSizes) != 3 {
		return fmt.Errorf("strategy: partial_tp_sizes must have exactly 3 entries")
	}
	var total float64
	for _, s := range c.Strategy.PartialTPSizes {
		total += s
	}
	if total != 100 {
		return fmt.Errorf("strategy: partial_tp_sizes must sum to 100, got %v", total)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}
