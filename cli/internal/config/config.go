package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

const (
	// EnvPrefix prefixes every environment override, e.g. SQLSTUDIO_API_URL.
	EnvPrefix = "SQLSTUDIO"
	// FileName is the config file name searched without extension.
	FileName = "sqlstudio"
)

// Config holds the application configuration
type Config struct {
	APIURL    string          `mapstructure:"api_url"`
	PageSize  int             `mapstructure:"page_size"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	Debug     bool            `mapstructure:"debug"`
	Cache     CacheConfig     `mapstructure:"cache"`
	History   HistoryConfig   `mapstructure:"history"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type HistoryConfig struct {
	Path  string `mapstructure:"path"`
	Limit int    `mapstructure:"limit"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// GatewayConfig configures the serve command.
type GatewayConfig struct {
	Addr     string `mapstructure:"addr"`
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:4000")
	v.SetDefault("page_size", 20)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("debug", false)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("history.path", "~/.config/sqlstudio/history.db")
	v.SetDefault("history.limit", 10)
	v.SetDefault("catalog.path", "")
	v.SetDefault("gateway.addr", ":4000")
	v.SetDefault("gateway.provider", "sqlite")
	v.SetDefault("gateway.dsn", "sqlstudio.db")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
}

// LoadConfig loads configuration from the default locations.
func LoadConfig() (*Config, error) {
	return Load(AppFs, "")
}

// Load reads configuration from file (or the search path when file is
// empty), .env files and SQLSTUDIO_* environment variables.
func Load(fs afero.Fs, file string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	// Load .env files first so they feed the environment overrides;
	// .env.local takes priority.
	if _, err := fs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := fs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", "sqlstudio"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.History.Path, err = homedir.Expand(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Catalog.Path, err = homedir.Expand(cfg.Catalog.Path); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &cfg, nil
}

// Save writes cfg as YAML to path.
func Save(fs afero.Fs, path string, cfg *Config) error {
	v := viper.New()
	v.SetFs(fs)
	v.Set("api_url", cfg.APIURL)
	v.Set("page_size", cfg.PageSize)
	v.Set("timeout", cfg.Timeout.String())
	v.Set("debug", cfg.Debug)
	v.Set("cache.size", cfg.Cache.Size)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("history.path", cfg.History.Path)
	v.Set("history.limit", cfg.History.Limit)
	v.Set("catalog.path", cfg.Catalog.Path)
	v.Set("gateway.addr", cfg.Gateway.Addr)
	v.Set("gateway.provider", cfg.Gateway.Provider)
	v.Set("gateway.dsn", cfg.Gateway.DSN)
	v.Set("telemetry.enabled", cfg.Telemetry.Enabled)
	v.Set("telemetry.endpoint", cfg.Telemetry.Endpoint)

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
