package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/dashboard/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	LogFile   string `mapstructure:"log_file"   json:"log_file"`
	Port      int    `mapstructure:"port"       json:"port"`
}

// Upstream points at the remote product service the proxy forwards to.
// A zero Timeout leaves the transport default in place.
type Upstream struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  json:"timeout"`
}

type Dashboard struct {
	ProxyURL     string `mapstructure:"proxy_url"     json:"proxy_url"`
	PageLimit    int    `mapstructure:"page_limit"    json:"page_limit"`
	CookieName   string `mapstructure:"cookie_name"   json:"cookie_name"`
	SecureCookie bool   `mapstructure:"secure_cookie" json:"secure_cookie"`
}

type Auth struct {
	Driver     string        `mapstructure:"driver"      json:"driver"`
	Revocation string        `mapstructure:"revocation"  json:"revocation"`
	SessionTTL time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Catalog struct {
	Host string `mapstructure:"host" json:"host"`
	Seed int    `mapstructure:"seed" json:"seed"`
	Port int    `mapstructure:"port" json:"port"`
}

type Otel struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Upstream    `mapstructure:"upstream"    json:"upstream"`
	Dashboard   `mapstructure:"dashboard"   json:"dashboard"`
	Auth        `mapstructure:"auth"        json:"auth"`
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Catalog     `mapstructure:"catalog"     json:"catalog"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var (
	once   sync.Once
	config *Config
	cfgErr error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "development")
	v.SetDefault("application.host", "localhost")
	v.SetDefault("application.port", 8080)
	v.SetDefault("upstream.base_url", "http://localhost:8001")
	v.SetDefault("upstream.timeout", time.Duration(0))
	v.SetDefault("dashboard.proxy_url", "http://localhost:8080")
	v.SetDefault("dashboard.page_limit", 10)
	v.SetDefault("dashboard.cookie_name", "session")
	v.SetDefault("auth.driver", DriverMemory)
	v.SetDefault("auth.revocation", DriverMemory)
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 1)
	v.SetDefault("catalog.host", "localhost")
	v.SetDefault("catalog.port", 8001)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
}

// Load reads ./env/<filename>.yaml, then environment variables such as
// UPSTREAM_BASE_URL. A missing file falls back to defaults.
func Load(c context.Context, filename string) (*Config, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "config Load").
		Str("filename", filename).
		Logger()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(filename)
	v.AddConfigPath("./env")
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
	logger.Info().Msg("reading config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			err = fmt.Errorf("failed reading config with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		logger.Warn().Msg("config file not found, using defaults and environment")
	}
	logger.Info().Msg("read config")

	logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
	logger.Info().Msg("unmarshaling config")
	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		err = fmt.Errorf("failed unmarshaling config with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")

	return &cfg, nil
}

// InitConfig loads the configuration once per process and fatals on error.
func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		config, cfgErr = Load(c, filename)
		if cfgErr != nil {
			zerolog.Ctx(c).Fatal().Err(cfgErr).Msg(cfgErr.Error())
		}
	})
	return config
}
