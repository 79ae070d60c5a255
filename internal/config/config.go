package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// PathEnv names the variable holding the config file path.
const PathEnv = "BUFFSTACK_CONFIG"

// DefaultPath is used when PathEnv is unset.
const DefaultPath = "config/buffstack.toml"

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Network     NetworkConfig     `toml:"network"`
	Negotiation NegotiationConfig `toml:"negotiation"`
	Buffs       BuffsConfig       `toml:"buffs"`
	Data        DataConfig        `toml:"data"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name" env:"BUFFSTACK_SERVER_NAME"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address" env:"BUFFSTACK_BIND_ADDRESS"`
	TickRate          time.Duration `toml:"tick_rate" env:"BUFFSTACK_TICK_RATE"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
	PacketsPerSecond  int           `toml:"packets_per_second" env:"BUFFSTACK_PACKETS_PER_SECOND"` // 0 = unlimited
}

type NegotiationConfig struct {
	SongWindow  bool   `toml:"song_window" env:"BUFFSTACK_SONG_WINDOW"` // request the 6 extended song slots
	CodeVersion uint16 `toml:"code_version"`
}

type BuffsConfig struct {
	TickInterval time.Duration `toml:"tick_interval" env:"BUFFSTACK_BUFF_TICK"` // one buff tick (6s on live servers)
}

type DataConfig struct {
	Spells     string `toml:"spells" env:"BUFFSTACK_SPELLS"`
	ScriptsDir string `toml:"scripts_dir" env:"BUFFSTACK_SCRIPTS_DIR"`
}

type StorageConfig struct {
	Driver          string        `toml:"driver" env:"BUFFSTACK_STORAGE_DRIVER"` // "postgres", "sqlite" or "none"
	DSN             string        `toml:"dsn" env:"BUFFSTACK_STORAGE_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	SaveInterval    time.Duration `toml:"save_interval"`
}

type LoggingConfig struct {
	Level      string `toml:"level" env:"BUFFSTACK_LOG_LEVEL"`
	Format     string `toml:"format" env:"BUFFSTACK_LOG_FORMAT"` // "json" or "console"
	File       string `toml:"file" env:"BUFFSTACK_LOG_FILE"`     // empty = stdout only
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Path returns the config path from the environment or DefaultPath.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the TOML file at path over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate checks values the rest of the server relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Network.BindAddress == "" {
		errs = append(errs, errors.New("network.bind_address is empty"))
	}
	if c.Network.TickRate <= 0 {
		errs = append(errs, errors.New("network.tick_rate must be positive"))
	}
	if c.Network.InQueueSize <= 0 || c.Network.OutQueueSize <= 0 {
		errs = append(errs, errors.New("network queue sizes must be positive"))
	}
	if c.Network.PacketsPerSecond < 0 {
		errs = append(errs, errors.New("network.packets_per_second must not be negative"))
	}
	if c.Buffs.TickInterval < c.Network.TickRate {
		errs = append(errs, fmt.Errorf("buffs.tick_interval %s is shorter than network.tick_rate %s",
			c.Buffs.TickInterval, c.Network.TickRate))
	}
	if c.Data.Spells == "" {
		errs = append(errs, errors.New("data.spells is empty"))
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "none":
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
		if c.Storage.SaveInterval <= 0 {
			errs = append(errs, errors.New("storage.save_interval must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not postgres, sqlite or none", c.Storage.Driver))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "buffstack",
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7100",
			TickRate:          200 * time.Millisecond,
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       60 * time.Second,
			PacketsPerSecond:  60,
		},
		Negotiation: NegotiationConfig{
			SongWindow:  true,
			CodeVersion: 1,
		},
		Buffs: BuffsConfig{
			TickInterval: 6 * time.Second,
		},
		Data: DataConfig{
			Spells:     "data/yaml/spells.yaml",
			ScriptsDir: "scripts",
		},
		Storage: StorageConfig{
			Driver:          "sqlite",
			DSN:             "buffstack.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			SaveInterval:    time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}
