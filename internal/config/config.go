package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	pkglogger "github.com/damoang/angple-pages/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration read from configs/config.<env>.yaml
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	JWT         JWTConfig      `yaml:"jwt"`
	CORS        CORSConfig     `yaml:"cors"`
	Editor      EditorConfig   `yaml:"editor"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
	RefreshIn int    `yaml:"refresh_in"` // seconds
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// EditorConfig tunes the page editor sessions
type EditorConfig struct {
	// HistoryLimit caps undo entries per session; 0 keeps everything
	HistoryLimit           int           `yaml:"history_limit"`
	DragActivationDistance float64       `yaml:"drag_activation_distance"`
	DraftTTL               time.Duration `yaml:"draft_ttl"`
	AutosaveOnClose        bool          `yaml:"autosave_on_close"`
	// IdleTimeout closes sessions nobody touched for this long; 0 disables
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// Default returns the configuration used when no file overrides a value
func Default() *Config {
	return &Config{
		Environment: "local",
		Server:      ServerConfig{Port: 8082, Mode: "debug"},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "root",
			DBName:          "angple_pages",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: 3600,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		JWT:   JWTConfig{ExpiresIn: 900, RefreshIn: 604800},
		CORS:  CORSConfig{AllowOrigins: "http://localhost:3000"},
		Editor: EditorConfig{
			HistoryLimit:           0,
			DragActivationDistance: 8,
			DraftTTL:               24 * time.Hour,
			AutosaveOnClose:        false,
			IdleTimeout:            30 * time.Minute,
		},
	}
}

// Load reads the yaml file at path over the defaults and applies
// environment overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Editor.DragActivationDistance <= 0 {
		cfg.Editor.DragActivationDistance = 8
	}
	if cfg.Editor.HistoryLimit < 0 {
		return nil, fmt.Errorf("editor.history_limit must not be negative: %d", cfg.Editor.HistoryLimit)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// IsDevelopment reports whether the app runs in a local/dev environment
func (c *Config) IsDevelopment() bool {
	switch c.Environment {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// LogResolved prints the effective configuration without secrets
func LogResolved(cfg *Config) {
	pkglogger.Info("config: env=%s port=%d db=%s@%s:%d/%s redis=%s:%d",
		cfg.Environment, cfg.Server.Port,
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName,
		cfg.Redis.Host, cfg.Redis.Port)
	pkglogger.Info("config: editor history_limit=%d drag_activation_distance=%.0f draft_ttl=%s autosave_on_close=%v",
		cfg.Editor.HistoryLimit, cfg.Editor.DragActivationDistance, cfg.Editor.DraftTTL, cfg.Editor.AutosaveOnClose)
}
