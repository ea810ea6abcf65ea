package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Network     NetworkConfig     `toml:"network"`
	Telnet      TelnetConfig      `toml:"telnet"`
	Persistence PersistenceConfig `toml:"persistence"`
	Pulse       PulseConfig       `toml:"pulse"`
	Logging     LoggingConfig     `toml:"logging"`
	Metrics     MetricsConfig     `toml:"metrics"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	BaseDir   string `toml:"base_dir"`
	StartTime int64  // set at boot, not read from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxLinesPerPulse  int           `toml:"max_lines_per_pulse"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	RepeatFloodLimit  int           `toml:"repeat_flood_limit"`
}

// TelnetConfig holds settings for the optional telnet extensions. Nothing in
// the core reads it: conn.Descriptor.Start always sends the same offers.
type TelnetConfig struct {
	OfferMCCP    bool `toml:"offer_mccp"`
	OfferGMCP    bool `toml:"offer_gmcp"`
	OfferMXP     bool `toml:"offer_mxp"`
	TTYPERounds  int  `toml:"ttype_rounds"`
}

type PersistenceConfig struct {
	AccountsDSN     string        `toml:"accounts_dsn"`
	AutoSaveEvery   int           `toml:"auto_save_every_pulses"`
	SaveTimeout     time.Duration `toml:"save_timeout"`
}

// PulseConfig governs the fixed-tick scheduler.
type PulseConfig struct {
	PulsesPerSecond   int           `toml:"pulses_per_second"`
	SpeedMultiplier   int           `toml:"speed_multiplier"` // 1..512
	BudgetWarn        time.Duration `toml:"budget_warn"`
	WarningInterval   time.Duration `toml:"warning_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "dystopiamud",
			BaseDir: "./gamedata",
		},
		Network: NetworkConfig{
			BindAddress:      "0.0.0.0:4000",
			InQueueSize:      64,
			OutQueueSize:     256,
			MaxLinesPerPulse: 16,
			WriteTimeout:     10 * time.Second,
			RepeatFloodLimit: 20,
		},
		Telnet: TelnetConfig{
			OfferMCCP:   true,
			OfferGMCP:   true,
			OfferMXP:    true,
			TTYPERounds: 3,
		},
		Persistence: PersistenceConfig{
			AccountsDSN:   "file:accounts.db",
			AutoSaveEvery: 300, // every ~75s at 4 pulses/sec
			SaveTimeout:   5 * time.Second,
		},
		Pulse: PulseConfig{
			PulsesPerSecond: 4,
			SpeedMultiplier: 1,
			BudgetWarn:      300 * time.Millisecond,
			WarningInterval: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1:9090",
		},
	}
}
