package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIAddr != ":8080" || cfg.APIURL != "http://localhost:8080" {
		t.Errorf("unexpected api defaults: %+v", cfg)
	}
	if cfg.FailFast {
		t.Error("fail_fast should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalflow.yaml")
	data := []byte("db_url: postgres://file/db\napi_addr: \":9000\"\nfail_fast: true\nlog_format: json\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EVALFLOW_DB_URL", "postgres://env/db")
	t.Setenv("EVALFLOW_WORKDIR", "/tmp/evalflow")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DBURL != "postgres://env/db" {
		t.Errorf("env must override file, got %s", cfg.DBURL)
	}
	if cfg.APIAddr != ":9000" || !cfg.FailFast || cfg.LogFormat != "json" {
		t.Errorf("file values not loaded: %+v", cfg)
	}
	if cfg.Workdir != "/tmp/evalflow" {
		t.Errorf("expected workdir from env, got %s", cfg.Workdir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("EVALFLOW_RABBITMQ_URL=amqp://guest:guest@mq:5672/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EVALFLOW_RABBITMQ_URL", "")
	os.Unsetenv("EVALFLOW_RABBITMQ_URL")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RabbitMQURL != "amqp://guest:guest@mq:5672/" {
		t.Errorf("expected url from .env, got %q", cfg.RabbitMQURL)
	}

	if err := LoadEnvFile(filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("missing env file must be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty api addr", cfg: Config{LogFormat: "text"}},
		{name: "relative db url", cfg: Config{APIAddr: ":8080", LogFormat: "text", DBURL: "localhost/db"}},
		{name: "bad log format", cfg: Config{APIAddr: ":8080", LogFormat: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
