package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jwalitptl/frontdesk-api/pkg/messaging/redis"
	"github.com/jwalitptl/frontdesk-api/pkg/worker"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Outbox      OutboxConfig   `mapstructure:"outbox"`
	Log         LogConfig      `mapstructure:"log"`
	Hospital    HospitalConfig `mapstructure:"hospital"`
	Snapshot    SnapshotConfig `mapstructure:"snapshot"`
	Delivery    DeliveryConfig `mapstructure:"delivery"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	TripAfter    uint32        `mapstructure:"trip_after"`
	OpenTimeout  time.Duration `mapstructure:"open_timeout"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	Retention     time.Duration `mapstructure:"retention"`
	Lease         time.Duration `mapstructure:"lease"`
	HealthPort    int           `mapstructure:"health_port"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// HospitalConfig is printed in every receipt letterhead.
type HospitalConfig struct {
	Name           string `mapstructure:"name"`
	Address        string `mapstructure:"address"`
	Phone          string `mapstructure:"phone"`
	Email          string `mapstructure:"email"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	PrimaryColor   string `mapstructure:"primary_color"`
	AccentColor    string `mapstructure:"accent_color"`
}

type SnapshotConfig struct {
	FallbackColor string  `mapstructure:"fallback_color"`
	Scale         float64 `mapstructure:"scale"`
	WidthPx       int     `mapstructure:"width_px"`
	HeightPx      int     `mapstructure:"height_px"`
}

type DeliveryConfig struct {
	CountryCode     string        `mapstructure:"country_code"`
	NationalLength  int           `mapstructure:"national_length"`
	SilentSave      bool          `mapstructure:"silent_save"`
	SaveDir         string        `mapstructure:"save_dir"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	PreviewTTL      time.Duration `mapstructure:"preview_ttl"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	Previewer       string        `mapstructure:"previewer"`
	ShellPreviewURL string        `mapstructure:"shell_preview_url"`
	ShellTimeout    time.Duration `mapstructure:"shell_timeout"`
	WhatsAppBaseURL string        `mapstructure:"whatsapp_base_url"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeoutSeconds", 30)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "frontdesk")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("jwt.issuer", "frontdesk-api")
	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", "100ms")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.trip_after", 5)
	v.SetDefault("redis.open_timeout", "5s")

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", "5s")
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", "1s")
	v.SetDefault("outbox.retention", "168h")
	v.SetDefault("outbox.lease", "5m")
	v.SetDefault("outbox.health_port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetDefault("hospital.name", "Eye Hospital")
	v.SetDefault("hospital.currency_symbol", "Rs.")
	v.SetDefault("hospital.primary_color", "#1f3b73")
	v.SetDefault("hospital.accent_color", "#e8eef9")

	v.SetDefault("snapshot.fallback_color", "#000000")
	v.SetDefault("snapshot.scale", 2)
	v.SetDefault("snapshot.width_px", 794)
	v.SetDefault("snapshot.height_px", 1123)

	v.SetDefault("delivery.country_code", "91")
	v.SetDefault("delivery.national_length", 10)
	v.SetDefault("delivery.silent_save", false)
	v.SetDefault("delivery.save_dir", "HospitalReceipts")
	v.SetDefault("delivery.settle_delay", "500ms")
	v.SetDefault("delivery.preview_ttl", "15m")
	v.SetDefault("delivery.public_base_url", "http://localhost:8080")
	v.SetDefault("delivery.previewer", "store")
	v.SetDefault("delivery.shell_timeout", "10s")
	v.SetDefault("delivery.whatsapp_base_url", "https://api.whatsapp.com/send")

	v.SetDefault("smtp.port", 587)

	// Keys without a default are invisible to AutomaticEnv on Unmarshal;
	// secrets usually arrive only through the environment.
	for _, key := range []string{
		"jwt.secret",
		"database.password",
		"hospital.address",
		"hospital.phone",
		"hospital.email",
		"delivery.shell_preview_url",
		"smtp.enabled",
		"smtp.host",
		"smtp.username",
		"smtp.password",
		"smtp.from",
	} {
		_ = v.BindEnv(key)
	}
}

// LoadConfig reads config.yml from the working directory or ./config,
// overlaid by FRONTDESK_* environment variables. A .env file is loaded
// first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("FRONTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && !c.IsDev() {
		return fmt.Errorf("jwt.secret is required outside development")
	}
	if c.Delivery.CountryCode == "" || strings.Trim(c.Delivery.CountryCode, "0123456789") != "" {
		return fmt.Errorf("delivery.country_code must be digits, got %q", c.Delivery.CountryCode)
	}
	if c.Delivery.NationalLength <= 0 {
		return fmt.Errorf("delivery.national_length must be positive")
	}
	switch c.Delivery.Previewer {
	case "store", "shell":
	default:
		return fmt.Errorf("delivery.previewer must be store or shell, got %q", c.Delivery.Previewer)
	}
	if c.Delivery.Previewer == "shell" && c.Delivery.ShellPreviewURL == "" {
		return fmt.Errorf("delivery.shell_preview_url is required for the shell previewer")
	}
	if c.Snapshot.Scale <= 0 {
		return fmt.Errorf("snapshot.scale must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// ToBrokerConfig adapts the redis section for the broker constructor.
func (c *Config) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: c.Redis.RetryBackoff,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
		TripAfter:    c.Redis.TripAfter,
		OpenTimeout:  c.Redis.OpenTimeout,
	}
}

// ToWorkerConfig adapts the outbox section for the processor.
func (c OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		Retention:     c.Retention,
		Lease:         c.Lease,
	}
}
