package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Mail      MailSettings      `mapstructure:"mail"`
	Tokens    TokenSettings     `mapstructure:"tokens"`
	Codes     CodeSettings      `mapstructure:"codes"`
	Cooldown  CooldownSettings  `mapstructure:"cooldown"`
	Hash      HashSettings      `mapstructure:"hash"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// FrontendOrigin is the base URL recovery and deletion links point at.
	FrontendOrigin string `mapstructure:"frontend_origin"`
}

// Production reports whether the service runs with production hardening,
// which suppresses the one-time code echo in responses.
func (s AppSettings) Production() bool {
	return s.Env == "production"
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the account event producer. Empty brokers switch
// the service to a logging stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

type MailSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Enabled  bool   `mapstructure:"enabled"`
}

// PurposeSettings is one purpose-scoped signing key with its lifetime.
type PurposeSettings struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type TokenSettings struct {
	Auth     PurposeSettings `mapstructure:"auth"`
	Access   PurposeSettings `mapstructure:"access"`
	Recovery PurposeSettings `mapstructure:"recovery"`
	Deletion PurposeSettings `mapstructure:"deletion"`
	// BlacklistSweepInterval is how often expired revocation entries are
	// pruned. It must exceed every token TTL so no entry is dropped while
	// its token could still verify.
	BlacklistSweepInterval time.Duration `mapstructure:"blacklist_sweep_interval"`
}

type CodeSettings struct {
	Length      int    `mapstructure:"length"`
	Alphabet    string `mapstructure:"alphabet"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type CooldownSettings struct {
	Window time.Duration `mapstructure:"window"`
}

type HashSettings struct {
	Key string `mapstructure:"key"`
}

type RateLimitSettings struct {
	WindowDuration      time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts    int           `mapstructure:"login_max_attempts"`
	SignupMaxAttempts   int           `mapstructure:"signup_max_attempts"`
	RecoveryMaxAttempts int           `mapstructure:"recovery_max_attempts"`
	DeletionMaxAttempts int           `mapstructure:"deletion_max_attempts"`
}

type TelemetrySettings struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GJU")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.frontend_origin",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"mail.host",
		"mail.port",
		"mail.username",
		"mail.password",
		"mail.from",
		"mail.enabled",
		"tokens.auth.secret",
		"tokens.auth.ttl",
		"tokens.access.secret",
		"tokens.access.ttl",
		"tokens.recovery.secret",
		"tokens.recovery.ttl",
		"tokens.deletion.secret",
		"tokens.deletion.ttl",
		"tokens.blacklist_sweep_interval",
		"codes.length",
		"codes.alphabet",
		"codes.max_attempts",
		"cooldown.window",
		"hash.key",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.signup_max_attempts",
		"rate_limit.recovery_max_attempts",
		"rate_limit.deletion_max_attempts",
		"telemetry.metrics_enabled",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the startup invariants. A misconfigured secret or a sweep
// interval shorter than a token lifetime would silently weaken revocation, so
// the process refuses to start instead.
func (c *AppConfig) Validate() error {
	secrets := map[string]string{
		"tokens.auth.secret":     c.Tokens.Auth.Secret,
		"tokens.access.secret":   c.Tokens.Access.Secret,
		"tokens.recovery.secret": c.Tokens.Recovery.Secret,
		"tokens.deletion.secret": c.Tokens.Deletion.Secret,
		"hash.key":               c.Hash.Key,
	}
	for name, secret := range secrets {
		if err := validateSecret(secret); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Tokens.Auth.Secret == c.Tokens.Access.Secret ||
		c.Tokens.Auth.Secret == c.Tokens.Recovery.Secret ||
		c.Tokens.Auth.Secret == c.Tokens.Deletion.Secret ||
		c.Tokens.Access.Secret == c.Tokens.Recovery.Secret ||
		c.Tokens.Access.Secret == c.Tokens.Deletion.Secret ||
		c.Tokens.Recovery.Secret == c.Tokens.Deletion.Secret {
		return fmt.Errorf("token secrets must be pairwise distinct")
	}

	ttls := map[string]time.Duration{
		"tokens.auth.ttl":     c.Tokens.Auth.TTL,
		"tokens.access.ttl":   c.Tokens.Access.TTL,
		"tokens.recovery.ttl": c.Tokens.Recovery.TTL,
		"tokens.deletion.ttl": c.Tokens.Deletion.TTL,
	}
	var maxTTL time.Duration
	for name, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
		if ttl > maxTTL {
			maxTTL = ttl
		}
	}

	if c.Tokens.BlacklistSweepInterval <= maxTTL {
		return fmt.Errorf("tokens.blacklist_sweep_interval (%s) must exceed the longest token ttl (%s)",
			c.Tokens.BlacklistSweepInterval, maxTTL)
	}

	if c.Codes.Length <= 0 {
		return fmt.Errorf("codes.length must be positive")
	}
	if c.Codes.Alphabet == "" {
		return fmt.Errorf("codes.alphabet must not be empty")
	}
	if c.Codes.MaxAttempts <= 0 {
		return fmt.Errorf("codes.max_attempts must be positive")
	}
	if c.Cooldown.Window <= 0 {
		return fmt.Errorf("cooldown.window must be positive")
	}

	return nil
}

const secretLength = 64

func validateSecret(secret string) error {
	if len(secret) != secretLength {
		return fmt.Errorf("must be exactly %d characters, got %d", secretLength, len(secret))
	}
	for _, r := range secret {
		isDigit := r >= '0' && r <= '9'
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		if !isDigit && !isLower && !isUpper {
			return fmt.Errorf("must contain only alphanumeric characters")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gju-jobs-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.frontend_origin", "http://localhost:3000")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "jobs")
	v.SetDefault("postgres.password", "jobs_password")
	v.SetDefault("postgres.database", "jobs")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.rate_limit_prefix", "jobs:rate_limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "jobs")
	v.SetDefault("kafka.async", true)

	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@gjujobs.example")
	v.SetDefault("mail.enabled", false)

	v.SetDefault("tokens.auth.ttl", "5m")
	v.SetDefault("tokens.access.ttl", "1h")
	v.SetDefault("tokens.recovery.ttl", "10m")
	v.SetDefault("tokens.deletion.ttl", "10m")
	v.SetDefault("tokens.blacklist_sweep_interval", "2h")

	v.SetDefault("codes.length", 6)
	v.SetDefault("codes.alphabet", "0123456789")
	v.SetDefault("codes.max_attempts", 3)

	v.SetDefault("cooldown.window", "60s")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 10)
	v.SetDefault("rate_limit.signup_max_attempts", 5)
	v.SetDefault("rate_limit.recovery_max_attempts", 5)
	v.SetDefault("rate_limit.deletion_max_attempts", 5)

	v.SetDefault("telemetry.metrics_enabled", true)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "GJU_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
