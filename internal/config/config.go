package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. IMGDL_DOWNLOAD_DIR
const EnvPrefix = "IMGDL"

// Config represents the entire application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DownloadConfig contains image download settings
type DownloadConfig struct {
	Dir                 string `mapstructure:"dir"`
	UserAgent           string `mapstructure:"user_agent"`
	ConnectTimeout      string `mapstructure:"connect_timeout"`
	ReadTimeout         string `mapstructure:"read_timeout"`
	BufferSizeKB        int    `mapstructure:"buffer_size_kb"`
	ProgressLogInterval string `mapstructure:"progress_log_interval"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	BindAddr       string `mapstructure:"bind_addr"`
	ReadTimeout    string `mapstructure:"read_timeout"`
	WriteTimeout   string `mapstructure:"write_timeout"`
	IdleTimeout    string `mapstructure:"idle_timeout"`
	SubmitInterval string `mapstructure:"submit_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains download history settings
type DatabaseConfig struct {
	Path            string `mapstructure:"path"`
	Retention       string `mapstructure:"retention"`
	CleanupInterval string `mapstructure:"cleanup_interval"`
}

// Load loads configuration from the specified file path.
// A missing file is not an error: defaults and environment variables apply.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download.dir", "imagenes_descargadas")
	v.SetDefault("download.user_agent", "image-downloader")
	v.SetDefault("download.connect_timeout", "10s")
	v.SetDefault("download.read_timeout", "5s")
	v.SetDefault("download.buffer_size_kb", 8)
	v.SetDefault("download.progress_log_interval", "1s")
	v.SetDefault("http.bind_addr", "127.0.0.1:8080")
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "5m")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.submit_interval", "1s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("database.path", "")
	v.SetDefault("database.retention", "720h")
	v.SetDefault("database.cleanup_interval", "1h")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Download.Dir) == "" {
		return fmt.Errorf("download.dir is required")
	}
	if c.Download.BufferSizeKB < 0 {
		return fmt.Errorf("download.buffer_size_kb must not be negative")
	}

	durations := map[string]string{
		"download.connect_timeout":       c.Download.ConnectTimeout,
		"download.read_timeout":          c.Download.ReadTimeout,
		"download.progress_log_interval": c.Download.ProgressLogInterval,
		"http.submit_interval":           c.HTTP.SubmitInterval,
		"database.retention":             c.Database.Retention,
		"database.cleanup_interval":      c.Database.CleanupInterval,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetConnectTimeout returns the connect timeout as time.Duration
func (c *DownloadConfig) GetConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetReadTimeout returns the per-read timeout as time.Duration
func (c *DownloadConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 5 * time.Second
	}
	return d
}

// GetBufferSize returns the streaming buffer size in bytes
func (c *DownloadConfig) GetBufferSize() int {
	if c.BufferSizeKB <= 0 {
		return 8 * 1024 // 8KB default
	}
	return c.BufferSizeKB * 1024
}

// GetProgressLogInterval returns the minimum gap between progress log lines
func (c *DownloadConfig) GetProgressLogInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressLogInterval)
	return d
}

// GetDatabasePath returns the history database path, defaulting to a file inside the download dir
func (c *Config) GetDatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(strings.TrimSpace(c.Download.Dir), ".history.db")
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 5 * time.Minute
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}

// GetSubmitInterval returns the minimum gap between submissions from one client
func (c *HTTPConfig) GetSubmitInterval() time.Duration {
	d, _ := time.ParseDuration(c.SubmitInterval)
	return d
}

// GetRetention returns how long history records are kept; zero keeps them forever
func (c *DatabaseConfig) GetRetention() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// GetCleanupInterval returns how often old history records are removed
func (c *DatabaseConfig) GetCleanupInterval() time.Duration {
	d, _ := time.ParseDuration(c.CleanupInterval)
	if d == 0 {
		return time.Hour
	}
	return d
}
