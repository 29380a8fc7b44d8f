package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/daytrader/pkg/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daytrader.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("ALPACA_API_KEY", "test-key")
	t.Setenv("ALPACA_SECRET_KEY", "test-secret")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{"symbols": ["SPY", "QQQ"]}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Symbols)
	assert.Equal(t, types.Timeframe15Min, cfg.Timeframe)
	assert.Equal(t, 7, cfg.LookbackDays)
	assert.Equal(t, 0.01, cfg.Risk.RiskPerTrade)
	assert.Equal(t, 14, cfg.Risk.ATRPeriod)
	assert.Equal(t, 8, cfg.Risk.MaxOpenPositions)
	assert.Equal(t, 0.50, cfg.Risk.MaxNotionalRatio)
	assert.Equal(t, 9, cfg.Strategy.FastPeriod)
	assert.Equal(t, 21, cfg.Strategy.SlowPeriod)
	assert.Equal(t, time.Hour, cfg.Session.TradingStartBuffer.Std())
	assert.Equal(t, time.Hour, cfg.Session.FlattenThreshold.Std())
	assert.Equal(t, 10*time.Second, cfg.Session.FillWaitTimeout.Std())
	assert.Equal(t, 15*time.Minute, cfg.Session.CycleSleepCap.Std())
	assert.False(t, cfg.Session.EntryStopLoss)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "test-secret", cfg.APISecret)
}

func TestLoad_ParsesDurations(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{
		"symbols": ["SPY"],
		"session": {
			"trading_start_buffer": "30m",
			"flatten_threshold": "45m",
			"fill_wait_timeout": "5s",
			"cycle_sleep_cap": "10m",
			"entry_stop_loss": true
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.TradingStartBuffer.Std())
	assert.Equal(t, 45*time.Minute, cfg.Session.FlattenThreshold.Std())
	assert.Equal(t, 5*time.Second, cfg.Session.FillWaitTimeout.Std())
	assert.Equal(t, 10*time.Minute, cfg.Session.CycleSleepCap.Std())
	assert.True(t, cfg.Session.EntryStopLoss)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{"symbols": ["SPY"], "session": {"fill_wait_timeout": "ten seconds"}}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RequiresSymbols(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{"symbols": []}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol")
}

func TestLoad_RequiresCredentials(t *testing.T) {
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_SECRET_KEY", "")
	path := writeConfigFile(t, `{"symbols": ["SPY"]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALPACA_API_KEY")
}

func TestLoad_RejectsInvertedStrategyPeriods(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{"symbols": ["SPY"], "strategy": {"fast_period": 21, "slow_period": 9}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast_period")
}

func TestLoad_RejectsInvalidRisk(t *testing.T) {
	setCredentials(t)
	path := writeConfigFile(t, `{"symbols": ["SPY"], "risk": {
		"risk_per_trade": 2.0,
		"atr_period": 14,
		"atr_multiplier": 1,
		"risk_reward_ratio": 2,
		"max_position_fraction": 0.01,
		"max_open_positions": 8,
		"max_notional_ratio": 0.5
	}}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))

	var parsed Duration
	require.NoError(t, parsed.UnmarshalJSON(data))
	assert.Equal(t, d, parsed)
}
