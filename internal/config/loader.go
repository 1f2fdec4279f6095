package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "STAKELEAGUE"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the whole configuration when STAKELEAGUE_CONFIG_PATH is set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := LoadWithDefaults(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stakeleague")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_connections", 5)

	v.SetDefault("queue.max_workers", 20)
	v.SetDefault("queue.job_timeout_seconds", 120)
	v.SetDefault("queue.max_attempts", 5)

	v.SetDefault("competition.top_score_required_steps", 2)

	v.SetDefault("settlement.win_points", 10)
	v.SetDefault("settlement.loss_points", 1)

	v.SetDefault("achievements.rule_timeout_seconds", 5)
	v.SetDefault("achievements.high_roller_threshold", 100)
	v.SetDefault("achievements.risk_taker_min_competitions", 5)
	v.SetDefault("achievements.odd_master_min_participants", 5)
	v.SetDefault("achievements.streak_target", 3)

	v.SetDefault("fx.base_currency", "NGN")
	v.SetDefault("fx.quote_currency", "USD")
	v.SetDefault("fx.rate", 1)
	v.SetDefault("fx.cache_ttl_seconds", 300)

	v.SetDefault("ranking.schedule", "@every 15m")
	v.SetDefault("ranking.page_size", 5000)
	v.SetDefault("ranking.timeout_minutes", 10)

	v.SetDefault("wallet.timeout_seconds", 10)
	v.SetDefault("wallet.retry_attempts", 3)
	v.SetDefault("wallet.requests_per_second", 20)

	v.SetDefault("notifications.timeout_seconds", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 8080)
	v.SetDefault("metrics.path", "/metrics")
}
