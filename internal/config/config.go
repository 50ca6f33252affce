package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"homestay-service/internal/model"
	"homestay-service/internal/workflow"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	EventQueue string
}

type WorkflowConfig struct {
	MaxRooms              int
	MaxBeds               int
	LockToSuggested       bool
	CorrectionsToScrutiny bool
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Workflow    WorkflowConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	v.SetDefault("WORKFLOW_LOCK_TO_SUGGESTED", true)
	v.SetDefault("WORKFLOW_CORRECTIONS_TO_SCRUTINY", true)
	v.SetDefault("REDIS_EVENT_QUEUE", "homestay:notifications")

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Redis: RedisConfig{
			Addr:       v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         v.GetInt("REDIS_DB"),
			EventQueue: v.GetString("REDIS_EVENT_QUEUE"),
		},
		Workflow: WorkflowConfig{
			MaxRooms:              v.GetInt("WORKFLOW_MAX_ROOMS"),
			MaxBeds:               v.GetInt("WORKFLOW_MAX_BEDS"),
			LockToSuggested:       v.GetBool("WORKFLOW_LOCK_TO_SUGGESTED"),
			CorrectionsToScrutiny: v.GetBool("WORKFLOW_CORRECTIONS_TO_SCRUTINY"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7092
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}

// WorkflowSettings merges deployment overrides onto the default pipeline
// settings. Rate bands and the fee schedule stay code-defined; only the
// per-deployment knobs are tunable.
func (cfg *Config) WorkflowSettings() workflow.Settings {
	settings := workflow.DefaultSettings()
	if cfg.Workflow.MaxRooms > 0 {
		settings.Capacity.MaxTotalRooms = cfg.Workflow.MaxRooms
	}
	if cfg.Workflow.MaxBeds > 0 {
		settings.Capacity.MaxTotalBeds = cfg.Workflow.MaxBeds
	}
	settings.LockToSuggestedCategory = cfg.Workflow.LockToSuggested
	if !cfg.Workflow.CorrectionsToScrutiny {
		settings.CorrectionReturnStatus = model.StatusDtdoReview
	}
	return settings
}
