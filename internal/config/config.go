// Package config loads bot configuration from a JSON file with environment
// overrides for credentials. Credentials never live in the config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tradeforge/daytrader/internal/risk"
	"github.com/tradeforge/daytrader/pkg/types"
)

// Config is the complete bot configuration.
type Config struct {
	// Trading universe
	Symbols []string `json:"symbols"`

	// Market data settings
	Timeframe    types.Timeframe `json:"timeframe"`
	LookbackDays int             `json:"lookback_days"`

	// Risk limits
	Risk RiskConfig `json:"risk"`

	// Strategy parameters
	Strategy StrategyConfig `json:"strategy"`

	// Session timing
	Session SessionConfig `json:"session"`

	// Broker environment
	Paper bool `json:"paper"`

	// Monitoring (optional)
	Monitoring MonitoringConfig `json:"monitoring"`

	// Notifications (optional)
	Notifications NotificationConfig `json:"notifications"`

	// Credentials, from environment only
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
}

// RiskConfig mirrors the risk calculator limits.
type RiskConfig struct {
	RiskPerTrade        float64 `json:"risk_per_trade"`
	ATRPeriod           int     `json:"atr_period"`
	ATRMultiplier       float64 `json:"atr_multiplier"`
	RiskRewardRatio     float64 `json:"risk_reward_ratio"`
	MaxPositionFraction float64 `json:"max_position_fraction"`
	MaxOpenPositions    int     `json:"max_open_positions"`
	MaxNotionalRatio    float64 `json:"max_notional_ratio"`
}

// StrategyConfig holds signal generation parameters.
type StrategyConfig struct {
	FastPeriod int `json:"fast_period"`
	SlowPeriod int `json:"slow_period"`
	RSIPeriod  int `json:"rsi_period"`
}

// SessionConfig holds the session loop timings.
type SessionConfig struct {
	TradingStartBuffer Duration `json:"trading_start_buffer"` // after open, default 1h
	FlattenThreshold   Duration `json:"flatten_threshold"`    // before close, default 1h
	FillWaitTimeout    Duration `json:"fill_wait_timeout"`    // default 10s
	CycleSleepCap      Duration `json:"cycle_sleep_cap"`      // default 15m
	EntryStopLoss      bool     `json:"entry_stop_loss"`      // bracket stop at entry
}

// MonitoringConfig holds the metrics/health HTTP settings.
type MonitoringConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// NotificationConfig holds alert channel settings.
type NotificationConfig struct {
	Enabled        bool   `json:"enabled"`
	TelegramToken  string `json:"telegram_token,omitempty"`
	TelegramChatID string `json:"telegram_chat_id,omitempty"`
}

// Duration unmarshals Go duration strings ("15m", "10s") from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads the config file, applies defaults, merges credentials from the
// environment, and validates.
func Load(configFile string) (*Config, error) {
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}
	if !strings.HasSuffix(configFile, ".json") {
		configFile += ".json"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()
	cfg.APIKey = os.Getenv("ALPACA_API_KEY")
	cfg.APISecret = os.Getenv("ALPACA_SECRET_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Timeframe == "" {
		c.Timeframe = types.Timeframe15Min
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = 7
	}
	if c.Risk == (RiskConfig{}) {
		def := risk.DefaultConfig()
		c.Risk = RiskConfig{
			RiskPerTrade:        def.RiskPerTrade,
			ATRPeriod:           def.ATRPeriod,
			ATRMultiplier:       def.ATRMultiplier,
			RiskRewardRatio:     def.RiskRewardRatio,
			MaxPositionFraction: def.MaxPositionFraction,
			MaxOpenPositions:    def.MaxOpenPositions,
			MaxNotionalRatio:    def.MaxNotionalRatio,
		}
	}
	if c.Strategy.FastPeriod == 0 {
		c.Strategy.FastPeriod = 9
	}
	if c.Strategy.SlowPeriod == 0 {
		c.Strategy.SlowPeriod = 21
	}
	if c.Strategy.RSIPeriod == 0 {
		c.Strategy.RSIPeriod = 14
	}
	if c.Session.TradingStartBuffer == 0 {
		c.Session.TradingStartBuffer = Duration(time.Hour)
	}
	if c.Session.FlattenThreshold == 0 {
		c.Session.FlattenThreshold = Duration(time.Hour)
	}
	if c.Session.FillWaitTimeout == 0 {
		c.Session.FillWaitTimeout = Duration(10 * time.Second)
	}
	if c.Session.CycleSleepCap == 0 {
		c.Session.CycleSleepCap = Duration(15 * time.Minute)
	}
	if c.Monitoring.Enabled && c.Monitoring.Port == 0 {
		c.Monitoring.Port = 9090
	}
}

// Validate rejects configurations the bot cannot run with.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("missing API credentials: set ALPACA_API_KEY and ALPACA_SECRET_KEY")
	}
	if c.Strategy.FastPeriod >= c.Strategy.SlowPeriod {
		return fmt.Errorf("fast_period (%d) must be below slow_period (%d)",
			c.Strategy.FastPeriod, c.Strategy.SlowPeriod)
	}
	return c.RiskConfig().Validate()
}

// RiskConfig converts to the risk calculator's config type.
func (c *Config) RiskConfig() risk.Config {
	return risk.Config{
		RiskPerTrade:        c.Risk.RiskPerTrade,
		ATRPeriod:           c.Risk.ATRPeriod,
		ATRMultiplier:       c.Risk.ATRMultiplier,
		RiskRewardRatio:     c.Risk.RiskRewardRatio,
		MaxPositionFraction: c.Risk.MaxPositionFraction,
		MaxOpenPositions:    c.Risk.MaxOpenPositions,
		MaxNotionalRatio:    c.Risk.MaxNotionalRatio,
	}
}
