package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	JWTTTLHours    int              `json:"jwt_ttl_hours"`
	UploadMaxBytes int64            `json:"upload_max_bytes"`
	CORSOrigins    []string         `json:"cors_origins"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	FileStore      FileStoreConfig  `json:"file_store"`
	Backend        BackendConfig    `json:"backend"`
	AI             AIConfig         `json:"ai"`
	Mail           MailConfig       `json:"mail"`
	Redis          RedisConfig      `json:"redis"`
	Jobs           JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BackendConfig points at the external analysis/generation/witness service.
type BackendConfig struct {
	URL          string `json:"url"`
	Timeout      int    `json:"timeout"`
	Retries      int    `json:"retries"`
	RetryDelayMS int    `json:"retry_delay_ms"`
}

// AIConfig configures the optional LLM used when the backend chat is down.
type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	Timeout       int         `json:"timeout"`
	MaxInputChars int         `json:"max_input_chars"`
	Data          interface{} `json:"data"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type JobsConfig struct {
	WitnessRetrySpec        string `json:"witness_retry_spec"`
	NotificationCleanupSpec string `json:"notification_cleanup_spec"`
	NotificationKeepDays    int    `json:"notification_keep_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 5 * 1024 * 1024
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if !strings.HasPrefix(cfg.Backend.URL, "http://") && !strings.HasPrefix(cfg.Backend.URL, "https://") {
		cfg.Backend.URL = "http://" + cfg.Backend.URL
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30
	}
	if cfg.Backend.Retries <= 0 {
		cfg.Backend.Retries = 3
	}
	if cfg.Backend.RetryDelayMS <= 0 {
		cfg.Backend.RetryDelayMS = 1000
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.Jobs.WitnessRetrySpec == "" {
		cfg.Jobs.WitnessRetrySpec = "*/5 * * * *"
	}
	if cfg.Jobs.NotificationCleanupSpec == "" {
		cfg.Jobs.NotificationCleanupSpec = "30 3 * * *"
	}
	if cfg.Jobs.NotificationKeepDays <= 0 {
		cfg.Jobs.NotificationKeepDays = 30
	}
	return nil
}
