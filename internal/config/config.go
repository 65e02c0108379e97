package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix — префикс переменных окружения (EVALFLOW_DB_URL и т.д.).
const EnvPrefix = "EVALFLOW"

// Ошибки конфигурации.
var (
	// ErrInvalidConfig — конфигурация не прошла проверку.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config — конфигурация CLI и API.
//
// Источники по возрастанию приоритета: значения по умолчанию,
// YAML-файл (--config), переменные окружения EVALFLOW_*.
type Config struct {
	// DBURL — DSN PostgreSQL. Пусто — история job не сохраняется.
	DBURL string `mapstructure:"db_url"`

	// RabbitMQURL — адрес брокера. Пусто — события не публикуются.
	RabbitMQURL string `mapstructure:"rabbitmq_url"`

	// APIAddr — адрес, который слушает evalflow-api.
	APIAddr string `mapstructure:"api_addr"`

	// APIURL — адрес API для команд evalflow job.
	APIURL string `mapstructure:"api_url"`

	// MetricsAddr — адрес /metrics для evalflow run (пусто — выключено).
	MetricsAddr string `mapstructure:"metrics_addr"`

	// FailFast — политика отказов по умолчанию.
	FailFast bool `mapstructure:"fail_fast"`

	// Workdir — рабочая директория, если JobSpec её не задаёт.
	Workdir string `mapstructure:"workdir"`

	// LogLevel — DEBUG, INFO, WARN, ERROR.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat — json или text.
	LogFormat string `mapstructure:"log_format"`
}

// defaults — значения по умолчанию. Каждый ключ должен быть здесь,
// чтобы viper.Unmarshal видел его переменную окружения.
var defaults = map[string]any{
	"db_url":       "",
	"rabbitmq_url": "",
	"api_addr":     ":8080",
	"api_url":      "http://localhost:8080",
	"metrics_addr": "",
	"fail_fast":    false,
	"workdir":      "",
	"log_level":    "INFO",
	"log_format":   "text",
}

// Load загружает конфигурацию. path — необязательный YAML-файл.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile загружает переменные из .env файла, если он существует.
// Уже заданные переменные окружения не перезаписываются.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("%w: api_addr is required", ErrInvalidConfig)
	}

	for name, raw := range map[string]string{
		"db_url":       c.DBURL,
		"rabbitmq_url": c.RabbitMQURL,
		"api_url":      c.APIURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidConfig, name)
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log_format must be json or text, got %q", ErrInvalidConfig, c.LogFormat)
	}

	return nil
}
