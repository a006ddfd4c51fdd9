package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	World    WorldConfig    `toml:"world"`
	Data     DataConfig     `toml:"data"`
	Database DatabaseConfig `toml:"database"`
	Network  NetworkConfig  `toml:"network"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Logging  LoggingConfig  `toml:"logging"`
	Profile  ProfileConfig  `toml:"profile"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type WorldConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`
	Workers         int           `toml:"workers"`          // maps ticked in parallel (0 = one per CPU)
	ActivationRange float32       `toml:"activation_range"` // cells around each active object that tick
	VisibilityRange float32       `toml:"visibility_range"`
	GridUnloadDelay time.Duration `toml:"grid_unload_delay"` // 0 keeps grids loaded
	TreeRebalance   time.Duration `toml:"tree_rebalance"`
	MaxMoveStep     float32       `toml:"max_move_step"` // largest accepted client step
	WanderSeed      uint64        `toml:"wander_seed"`   // 0 = time based
}

type DataConfig struct {
	MapList    string `toml:"map_list"`
	SpawnList  string `toml:"spawn_list"`
	ScriptsDir string `toml:"scripts_dir"` // empty disables Lua movement rules
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the removal log
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	FlushInterval   time.Duration `toml:"flush_interval"`
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	Charset           string        `toml:"charset"` // WHATWG name of the wire string encoding
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	AcceptBacklog     int           `toml:"accept_backlog"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	IdleTimeout       time.Duration `toml:"idle_timeout"`
}

type MonitorConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Every       int    `toml:"every"` // broadcast every N ticks
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem", "mutex", "block"
	Path string `toml:"path"`
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
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.World.TickRate <= 0 {
		return fmt.Errorf("world.tick_rate must be positive")
	}
	if c.World.ActivationRange < 0 || c.World.VisibilityRange < 0 {
		return fmt.Errorf("world ranges must not be negative")
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "mutex", "block":
	default:
		return fmt.Errorf("unknown profile.mode %q", c.Profile.Mode)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "phasesim",
			ID:   1,
		},
		World: WorldConfig{
			TickRate:        100 * time.Millisecond,
			ActivationRange: 32,
			VisibilityRange: 64,
			GridUnloadDelay: 5 * time.Minute,
			TreeRebalance:   time.Second,
			MaxMoveStep:     20,
		},
		Data: DataConfig{
			MapList:    "data/yaml/map_list.yaml",
			SpawnList:  "data/yaml/spawn_list.yaml",
			ScriptsDir: "data/scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			FlushInterval:   5 * time.Second,
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7001",
			Charset:           "utf-8",
			InQueueSize:       128,
			OutQueueSize:      256,
			AcceptBacklog:     64,
			MaxPacketsPerTick: 32,
			IdleTimeout:       2 * time.Minute,
		},
		Monitor: MonitorConfig{
			BindAddress: "127.0.0.1:7080",
			Every:       10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
