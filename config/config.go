package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/risk"
	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration. Fixed at attach time: the
// bridge never reloads it.
type Config struct {
	Bridge  BridgeConfig  `json:"bridge" yaml:"bridge"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Venue   VenueConfig   `json:"venue" yaml:"venue"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// BridgeConfig covers the file channels and the control loop.
type BridgeConfig struct {
	// Directory holding the shared channel files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Ownership tag attached to every position this bridge opens. The
	// bridge never touches positions carrying a different tag.
	Tag string `json:"tag" yaml:"tag"`

	// Symbols covered by the status publisher's quotes map.
	Watch []string `json:"watch" yaml:"watch"`

	PollInterval   string `json:"poll_interval" yaml:"poll_interval"`     // e.g. "250ms"
	StatusInterval string `json:"status_interval" yaml:"status_interval"` // e.g. "2s"

	DeviationPoints      int `json:"deviation_points" yaml:"deviation_points"`
	CloseDeviationPoints int `json:"close_deviation_points" yaml:"close_deviation_points"`
	PanicDeviationPoints int `json:"panic_deviation_points" yaml:"panic_deviation_points"`

	// Slippage beyond this many pips logs a warning; it never fails the
	// order.
	MaxSlippagePips float64 `json:"max_slippage_pips" yaml:"max_slippage_pips"`

	// Upper bound on fill-convention attempts per order.
	MaxFillAttempts int `json:"max_fill_attempts" yaml:"max_fill_attempts"`
}

func (b BridgeConfig) PollEvery() time.Duration {
	d, _ := time.ParseDuration(b.PollInterval)
	return d
}

func (b BridgeConfig) StatusEvery() time.Duration {
	d, _ := time.ParseDuration(b.StatusInterval)
	return d
}

// RiskConfig mirrors risk.Policy in config-file form.
type RiskConfig struct {
	TradingEnabled       bool    `json:"trading_enabled" yaml:"trading_enabled"`
	PanicCloseAll        bool    `json:"panic_close_all" yaml:"panic_close_all"`
	MaxOpenPositions     int     `json:"max_open_positions" yaml:"max_open_positions"`
	MaxPositionSizePct   float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxTotalExposureLots float64 `json:"max_total_exposure_lots" yaml:"max_total_exposure_lots"`
	MaxDailyLossPct      float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxDailyProfitPct    float64 `json:"max_daily_profit_pct" yaml:"max_daily_profit_pct"`
	MaxTradesPerDay      int     `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	RestrictHours        bool    `json:"restrict_hours" yaml:"restrict_hours"`
	TradingStartHour     int     `json:"trading_start_hour" yaml:"trading_start_hour"`
	TradingEndHour       int     `json:"trading_end_hour" yaml:"trading_end_hour"`
	BlockWeekendClose    bool    `json:"block_weekend_close" yaml:"block_weekend_close"`
	WeekendCloseHour     int     `json:"weekend_close_hour" yaml:"weekend_close_hour"`
}

func (r RiskConfig) Policy() risk.Policy {
	return risk.Policy{
		TradingEnabled:       r.TradingEnabled,
		PanicCloseAll:        r.PanicCloseAll,
		MaxOpenPositions:     r.MaxOpenPositions,
		MaxPositionSizePct:   r.MaxPositionSizePct,
		MaxTotalExposureLots: r.MaxTotalExposureLots,
		MaxDailyLossPct:      r.MaxDailyLossPct,
		MaxDailyProfitPct:    r.MaxDailyProfitPct,
		MaxTradesPerDay:      r.MaxTradesPerDay,
		RestrictHours:        r.RestrictHours,
		TradingStartHour:     r.TradingStartHour,
		TradingEndHour:       r.TradingEndHour,
		BlockWeekendClose:    r.BlockWeekendClose,
		WeekendCloseHour:     r.WeekendCloseHour,
	}
}

// VenueConfig describes the paper venue the run command attaches to. Real
// venue adapters implement venue.Venue and ignore this section.
type VenueConfig struct {
	Type     string      `json:"type" yaml:"type"` // "sim"
	Currency string      `json:"currency" yaml:"currency"`
	Balance  float64     `json:"balance" yaml:"balance"`
	Leverage int         `json:"leverage" yaml:"leverage"`
	Quotes   []QuoteSeed `json:"quotes" yaml:"quotes"`
}

// QuoteSeed is an initial bid/ask for one watched symbol.
type QuoteSeed struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Bid    float64 `json:"bid" yaml:"bid"`
	Ask    float64 `json:"ask" yaml:"ask"`
}

// JournalConfig selects the observability sink for executed orders and
// daily rollover snapshots.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	DailyFile  string `json:"daily_file,omitempty" yaml:"daily_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"` // e.g. ":9203"
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on
// extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Bridge.DataDir == "" {
		return fmt.Errorf("bridge.data_dir is required")
	}
	if c.Bridge.Tag == "" {
		return fmt.Errorf("bridge.tag is required")
	}
	if len(c.Bridge.Watch) == 0 {
		return fmt.Errorf("bridge.watch must list at least one symbol")
	}
	if d, err := time.ParseDuration(c.Bridge.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("bridge.poll_interval must be a positive duration")
	}
	if d, err := time.ParseDuration(c.Bridge.StatusInterval); err != nil || d <= 0 {
		return fmt.Errorf("bridge.status_interval must be a positive duration")
	}
	if c.Bridge.MaxFillAttempts < 1 || c.Bridge.MaxFillAttempts > len(market.AllFillModes) {
		return fmt.Errorf("bridge.max_fill_attempts must be between 1 and %d", len(market.AllFillModes))
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk.max_open_positions must be positive")
	}
	if c.Risk.MaxPositionSizePct <= 0 || c.Risk.MaxPositionSizePct > 100 {
		return fmt.Errorf("risk.max_position_size_pct must be in (0, 100]")
	}
	if c.Risk.MaxTotalExposureLots <= 0 {
		return fmt.Errorf("risk.max_total_exposure_lots must be positive")
	}
	if c.Risk.MaxDailyLossPct <= 0 || c.Risk.MaxDailyLossPct > 100 {
		return fmt.Errorf("risk.max_daily_loss_pct must be in (0, 100]")
	}
	if c.Risk.MaxDailyProfitPct <= 0 {
		return fmt.Errorf("risk.max_daily_profit_pct must be positive")
	}
	if c.Risk.MaxTradesPerDay <= 0 {
		return fmt.Errorf("risk.max_trades_per_day must be positive")
	}
	if c.Risk.RestrictHours {
		if c.Risk.TradingStartHour < 0 || c.Risk.TradingStartHour > 23 {
			return fmt.Errorf("risk.trading_start_hour must be in [0, 23]")
		}
		if c.Risk.TradingEndHour < 1 || c.Risk.TradingEndHour > 24 {
			return fmt.Errorf("risk.trading_end_hour must be in [1, 24]")
		}
		if c.Risk.TradingStartHour >= c.Risk.TradingEndHour {
			return fmt.Errorf("risk.trading_start_hour must be before trading_end_hour")
		}
	}
	if c.Venue.Type != "sim" {
		return fmt.Errorf("venue.type must be 'sim'")
	}
	if c.Venue.Balance <= 0 {
		return fmt.Errorf("venue.balance must be positive")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.DailyFile == "" {
			return fmt.Errorf("journal orders_file and daily_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr required when metrics enabled")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			DataDir:              "./bridge-data",
			Tag:                  "fxbridge",
			Watch:                []string{"EURUSD"},
			PollInterval:         "250ms",
			StatusInterval:       "2s",
			DeviationPoints:      10,
			CloseDeviationPoints: 20,
			PanicDeviationPoints: 50,
			MaxSlippagePips:      2.0,
			MaxFillAttempts:      3,
		},
		Risk: RiskConfig{
			TradingEnabled:       true,
			MaxOpenPositions:     3,
			MaxPositionSizePct:   5.0,
			MaxTotalExposureLots: 1.0,
			MaxDailyLossPct:      3.0,
			MaxDailyProfitPct:    6.0,
			MaxTradesPerDay:      20,
			RestrictHours:        false,
			TradingStartHour:     7,
			TradingEndHour:       21,
			BlockWeekendClose:    true,
			WeekendCloseHour:     20,
		},
		Venue: VenueConfig{
			Type:     "sim",
			Currency: "USD",
			Balance:  10000,
			Leverage: 50,
			Quotes: []QuoteSeed{
				{Symbol: "EURUSD", Bid: 1.0849, Ask: 1.0851},
			},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./bridge.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9203",
		},
		Log: LogConfig{Level: "info"},
	}
}
