package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Download.Dir != "imagenes_descargadas" {
		t.Errorf("Download.Dir = %q", cfg.Download.Dir)
	}
	if got := cfg.Download.GetConnectTimeout(); got != 10*time.Second {
		t.Errorf("GetConnectTimeout() = %v, want 10s", got)
	}
	if got := cfg.Download.GetReadTimeout(); got != 5*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 5s", got)
	}
	if got := cfg.Download.GetBufferSize(); got != 8*1024 {
		t.Errorf("GetBufferSize() = %d, want 8192", got)
	}
	if got := cfg.GetDatabasePath(); got != filepath.Join("imagenes_descargadas", ".history.db") {
		t.Errorf("GetDatabasePath() = %q", got)
	}
	if got := cfg.Database.GetRetention(); got != 30*24*time.Hour {
		t.Errorf("GetRetention() = %v, want 720h", got)
	}
	if got := cfg.Database.GetCleanupInterval(); got != time.Hour {
		t.Errorf("GetCleanupInterval() = %v, want 1h", got)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
download:
  dir: /tmp/pictures
  user_agent: test-agent
  read_timeout: 2s
  buffer_size_kb: 16
logging:
  level: debug
  format: json
database:
  path: /tmp/history.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Download.Dir != "/tmp/pictures" || cfg.Download.UserAgent != "test-agent" {
		t.Errorf("Download = %+v", cfg.Download)
	}
	if cfg.Download.GetReadTimeout() != 2*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 2s", cfg.Download.GetReadTimeout())
	}
	if cfg.Download.GetBufferSize() != 16*1024 {
		t.Errorf("GetBufferSize() = %d", cfg.Download.GetBufferSize())
	}
	if cfg.GetDatabasePath() != "/tmp/history.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("IMGDL_DOWNLOAD_DIR", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Download.Dir != "from-env" {
		t.Errorf("Download.Dir = %q, want from-env", cfg.Download.Dir)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Download: DownloadConfig{
				Dir:                 "images",
				ConnectTimeout:      "10s",
				ReadTimeout:         "5s",
				ProgressLogInterval: "1s",
			},
			HTTP:    HTTPConfig{SubmitInterval: "1s"},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "blank dir", mutate: func(c *Config) { c.Download.Dir = "  " }, wantErr: "download.dir"},
		{name: "bad timeout", mutate: func(c *Config) { c.Download.ReadTimeout = "soon" }, wantErr: "download.read_timeout"},
		{name: "bad retention", mutate: func(c *Config) { c.Database.Retention = "forever" }, wantErr: "database.retention"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "negative buffer", mutate: func(c *Config) { c.Download.BufferSizeKB = -1 }, wantErr: "buffer_size_kb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
