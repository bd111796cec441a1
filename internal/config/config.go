package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Business    BusinessConfig    `mapstructure:"business"`
	Cooldowns   CooldownConfig    `mapstructure:"cooldowns"`
	Attribution AttributionConfig `mapstructure:"attribution"`
	Worker      WorkerConfig      `mapstructure:"worker"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type AuthConfig struct {
	ServiceTokenSecret string `mapstructure:"service_token_secret" envconfig:"SERVICE_TOKEN_SECRET"`
}

// BusinessConfig carries the facts about the business the engine must not
// hard-code: the local calendar and the wallet cashback policy.
type BusinessConfig struct {
	Timezone            string  `mapstructure:"timezone"`
	CashbackPercent     float64 `mapstructure:"cashback_percent"`
	CashbackStartDate   string  `mapstructure:"cashback_start_date"`
	SettingsCacheTTLSec int     `mapstructure:"settings_cache_ttl_seconds"`
}

// CooldownConfig holds the contact-frequency rules. A rule-configured
// cooldown always wins over TypeDefaults; TypeDefaults win over nothing.
type CooldownConfig struct {
	GlobalMinDays int            `mapstructure:"global_min_days"`
	OptOutDays    int            `mapstructure:"opt_out_days"`
	TypeDefaults  map[string]int `mapstructure:"type_defaults"`
}

type AttributionConfig struct {
	RevenueWindowDays  int `mapstructure:"revenue_window_days"`
	ExpiryBufferDays   int `mapstructure:"expiry_buffer_days"`
	ManualValidityDays int `mapstructure:"manual_validity_days"`
}

type WorkerConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	HealthPort      int           `mapstructure:"health_port"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets and endpoints can be overridden from the environment
	// (OUTREACH_DB_PASSWORD etc.) so the yaml file stays committable.
	if err := envconfig.Process("outreach", &config); err != nil {
		return nil, fmt.Errorf("failed to process env overrides: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Business.Timezone == "" {
		c.Business.Timezone = "America/Sao_Paulo"
	}
	if c.Business.CashbackPercent == 0 {
		c.Business.CashbackPercent = 7.5
	}
	if c.Business.CashbackStartDate == "" {
		c.Business.CashbackStartDate = "2024-06-01"
	}
	if c.Business.SettingsCacheTTLSec == 0 {
		c.Business.SettingsCacheTTLSec = 300
	}
	if c.Cooldowns.GlobalMinDays == 0 {
		c.Cooldowns.GlobalMinDays = 5
	}
	if c.Cooldowns.OptOutDays == 0 {
		c.Cooldowns.OptOutDays = 90
	}
	if c.Attribution.RevenueWindowDays == 0 {
		c.Attribution.RevenueWindowDays = 7
	}
	if c.Attribution.ExpiryBufferDays == 0 {
		c.Attribution.ExpiryBufferDays = 3
	}
	if c.Attribution.ManualValidityDays == 0 {
		c.Attribution.ManualValidityDays = 30
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = 5 * time.Minute
	}
	if c.Worker.RefreshInterval == 0 {
		c.Worker.RefreshInterval = time.Hour
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 500
	}
}

// Location resolves the configured business timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Business.Timezone)
}
