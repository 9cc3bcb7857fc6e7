package config

import (
	"fmt"
	"os"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Engine   EngineConfig   `toml:"engine"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port    string `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type DatabaseConfig struct {
	URL  string `toml:"url"`  // Postgres DSN, takes precedence over Path
	Path string `toml:"path"` // SQLite file
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	APIMasterSecret string `toml:"api_master_secret"`
	AdminUsername   string `toml:"admin_username"`
	AdminPassword   string `toml:"admin_password"`
	DefaultLimit    int    `toml:"default_rate_limit"`
}

type EngineConfig struct {
	TimeBudget      string  `toml:"time_budget"`
	SkillMatch      string  `toml:"skill_match"` // "all" or "any"
	DefaultPriority float64 `toml:"default_priority"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8000",
		},
		Database: DatabaseConfig{
			Path: "assign.db",
		},
		Auth: AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "admin123",
			DefaultLimit:  10000,
		},
		Engine: EngineConfig{
			TimeBudget:      "10s",
			SkillMatch:      string(scheduler.MatchAll),
			DefaultPriority: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Path returns the config file location, $ASSIGN_CONFIG or ./config.toml
func Path() string {
	if p := os.Getenv("ASSIGN_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

// Load reads the config file at path. A missing file yields the defaults.
// Environment variables override file values in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if _, err := cfg.Scheduler(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.GinMode = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("API_MASTER_SECRET"); v != "" {
		cfg.Auth.APIMasterSecret = v
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		cfg.Auth.AdminUsername = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("ENGINE_TIME_BUDGET"); v != "" {
		cfg.Engine.TimeBudget = v
	}
	if v := os.Getenv("ENGINE_SKILL_MATCH"); v != "" {
		cfg.Engine.SkillMatch = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Scheduler converts the engine section into scheduler settings
func (c Config) Scheduler() (scheduler.Config, error) {
	budget, err := time.ParseDuration(c.Engine.TimeBudget)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("engine.time_budget: %w", err)
	}
	if budget <= 0 {
		return scheduler.Config{}, fmt.Errorf("engine.time_budget: must be positive, got %s", budget)
	}
	match, err := scheduler.ParseSkillMatch(c.Engine.SkillMatch)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("engine.skill_match: %w", err)
	}
	if c.Engine.DefaultPriority <= 0 {
		return scheduler.Config{}, fmt.Errorf("engine.default_priority: must be positive, got %g", c.Engine.DefaultPriority)
	}
	return scheduler.Config{
		TimeBudget:      budget,
		SkillMatch:      match,
		DefaultPriority: c.Engine.DefaultPriority,
	}, nil
}
