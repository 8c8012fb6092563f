// Package config loads settings for the local emulator and the smoke check
// from GREETER_ prefixed environment variables, optionally seeded from a
// .env file. The Lambda handler itself reads no configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads .env into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GREETER_"

// Config is populated from a flat key space: GREETER_LOCAL_ADDR -> local_addr.
type Config struct {
	Env      string `koanf:"env" validate:"required"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	LocalAddr            string `koanf:"local_addr" validate:"required"`
	LocalShutdownTimeout int    `koanf:"local_shutdown_timeout" validate:"gt=0"`

	SmokeFunctionName  string `koanf:"smoke_function_name"`
	SmokeAlertTopicArn string `koanf:"smoke_alert_topic_arn"`
}

// SmokeConfig is the subset the remote smoke check needs.
type SmokeConfig struct {
	FunctionName  string `validate:"required"`
	AlertTopicArn string `validate:"omitempty,startswith=arn:"`
}

func defaults() *Config {
	return &Config{
		Env:                  "local",
		LogLevel:             "info",
		LocalAddr:            ":8080",
		LocalShutdownTimeout: 5,
	}
}

func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// Keys absent from the environment keep their defaults.
	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.LocalShutdownTimeout) * time.Second
}

// Smoke returns the smoke check settings, failing when the target function
// is not configured.
func (c *Config) Smoke() (SmokeConfig, error) {
	sc := SmokeConfig{
		FunctionName:  strings.TrimSpace(c.SmokeFunctionName),
		AlertTopicArn: strings.TrimSpace(c.SmokeAlertTopicArn),
	}
	if err := validator.New().Struct(sc); err != nil {
		return SmokeConfig{}, fmt.Errorf("validate smoke config: %w", err)
	}
	return sc, nil
}
