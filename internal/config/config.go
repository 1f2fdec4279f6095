// Package config provides configuration management for the stakeleague engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Queue         QueueConfig         `mapstructure:"queue" validate:"required"`
	Competition   CompetitionConfig   `mapstructure:"competition" validate:"required"`
	Settlement    SettlementConfig    `mapstructure:"settlement" validate:"required"`
	Achievements  AchievementsConfig  `mapstructure:"achievements" validate:"required"`
	FX            FXConfig            `mapstructure:"fx" validate:"required"`
	Ranking       RankingConfig       `mapstructure:"ranking" validate:"required"`
	Wallet        WalletConfig        `mapstructure:"wallet" validate:"required"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// QueueConfig configures the River job queue
type QueueConfig struct {
	MaxWorkers        int `mapstructure:"max_workers" validate:"required,gt=0"`
	JobTimeoutSeconds int `mapstructure:"job_timeout_seconds" validate:"required,gt=0"`
	MaxAttempts       int `mapstructure:"max_attempts" validate:"required,gt=0"`
}

// CompetitionConfig holds join-time rules
type CompetitionConfig struct {
	TopScoreRequiredSteps int `mapstructure:"top_score_required_steps" validate:"gte=0"`
}

// SettlementConfig holds the points applied to each settlement branch
type SettlementConfig struct {
	WinPoints  int `mapstructure:"win_points" validate:"required,gt=0"`
	LossPoints int `mapstructure:"loss_points" validate:"gte=0"`
}

// AchievementsConfig holds rule thresholds
type AchievementsConfig struct {
	RuleTimeoutSeconds       int     `mapstructure:"rule_timeout_seconds" validate:"required,gt=0"`
	HighRollerThreshold      float64 `mapstructure:"high_roller_threshold" validate:"required,gt=0"`
	RiskTakerMinCompetitions int     `mapstructure:"risk_taker_min_competitions" validate:"required,gt=0"`
	OddMasterMinParticipants int     `mapstructure:"odd_master_min_participants" validate:"required,gt=0"`
	StreakTarget             int     `mapstructure:"streak_target" validate:"required,gt=0"`
}

// FXConfig configures conversion of host contributions into the threshold currency.
// A blank URL uses the static Rate.
type FXConfig struct {
	URL             string  `mapstructure:"url" validate:"omitempty,url"`
	BaseCurrency    string  `mapstructure:"base_currency" validate:"required,len=3"`
	QuoteCurrency   string  `mapstructure:"quote_currency" validate:"required,len=3"`
	Rate            float64 `mapstructure:"rate" validate:"required,gt=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// RankingConfig configures the periodic recalculation
type RankingConfig struct {
	Schedule       string `mapstructure:"schedule" validate:"required,cronspec"`
	PageSize       int    `mapstructure:"page_size" validate:"required,gt=0"`
	TimeoutMinutes int    `mapstructure:"timeout_minutes" validate:"required,gt=0"`
}

// WalletConfig configures the wallet service client
type WalletConfig struct {
	URL               string  `mapstructure:"url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
}

// NotificationsConfig configures outbound user notifications.
// A blank WebhookURL logs notifications instead of sending them.
type NotificationsConfig struct {
	WebhookURL     string `mapstructure:"webhook_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and health configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RuleTimeout returns the hard limit for a single achievement rule evaluation
func (c *AchievementsConfig) RuleTimeout() time.Duration {
	return time.Duration(c.RuleTimeoutSeconds) * time.Second
}

// JobTimeout returns the per-job execution limit
func (c *QueueConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// Timeout returns the upper bound for one recalculation pass
func (r *RankingConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMinutes) * time.Minute
}
