package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Поддерживаемые драйверы базы данных.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const devSecretKey = "insecure-development-key"

// Config содержит все конфигурационные параметры приложения.
type Config struct {
	Server struct {
		Port         string        `mapstructure:"port"`
		CookieSecure bool          `mapstructure:"cookie_secure"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"` // Data Source Name, например: "blog.db?_foreign_keys=on"
	} `mapstructure:"database"`
	Session struct {
		Expiration time.Duration `mapstructure:"expiration"`
	} `mapstructure:"session"`
	Blog struct {
		Title           string `mapstructure:"title"`
		FeedTitle       string `mapstructure:"feed_title"`
		FeedDescription string `mapstructure:"feed_description"`
		FeedSize        int    `mapstructure:"feed_size"`
		PageSize        int    `mapstructure:"page_size"`
		SiteURL         string `mapstructure:"site_url"`
		Language        string `mapstructure:"language"`
		Timezone        string `mapstructure:"timezone"`
		SecretKey       string `mapstructure:"secret_key"`
	} `mapstructure:"blog"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// defaults - значения по умолчанию (fallback), если ни файл, ни окружение их не задают.
var defaults = map[string]any{
	"server.port":           "8080",
	"server.cookie_secure":  false,
	"server.read_timeout":   5 * time.Second,
	"server.write_timeout":  10 * time.Second,
	"server.idle_timeout":   120 * time.Second,
	"database.driver":       DriverSQLite,
	"database.dsn":          "blog.db?_foreign_keys=on",
	"session.expiration":    24 * time.Hour,
	"blog.title":            "Blog",
	"blog.feed_title":       "Generic title",
	"blog.feed_description": "Generic description",
	"blog.feed_size":        100,
	"blog.page_size":        4,
	"blog.site_url":         "http://localhost:8080",
	"blog.language":         "en",
	"blog.timezone":         "UTC",
	"blog.secret_key":       devSecretKey,
	"log.level":             "info",
	"log.format":            "text",
}

// Default returns the configuration made of defaults only; the environment
// is not consulted.
func Default() *Config {
	cfg, err := load(newViper())
	if err != nil {
		// defaults are always valid
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the optional file at path and from
// BLOG_* environment variables (BLOG_SERVER_PORT, BLOG_DATABASE_DSN, ...).
// Environment wins over the file, the file wins over defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return load(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Blog.SecretKey == devSecretKey {
		slog.Warn("blog.secret_key is not set, using the development key")
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is empty"))
	}
	if c.Blog.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("blog.page_size must be positive, got %d", c.Blog.PageSize))
	}
	if c.Blog.FeedSize <= 0 {
		errs = append(errs, fmt.Errorf("blog.feed_size must be positive, got %d", c.Blog.FeedSize))
	}
	if c.Session.Expiration <= 0 {
		errs = append(errs, fmt.Errorf("session.expiration must be positive, got %s", c.Session.Expiration))
	}
	if _, err := time.LoadLocation(c.Blog.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("blog.timezone: %w", err))
	}
	if c.Blog.SecretKey == "" {
		errs = append(errs, errors.New("blog.secret_key is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Location returns the time zone used to read dates typed by users.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Blog.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogLevel maps log.level onto slog levels, unknown values fall back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
