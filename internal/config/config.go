package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Report     ReportConfig     `mapstructure:"report"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Phone      PhoneConfig      `mapstructure:"phone"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port" envconfig:"PORT"`
	Environment    string `mapstructure:"environment" envconfig:"ENVIRONMENT"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" envconfig:"HOST"`
	Port         int    `mapstructure:"port" envconfig:"PORT"`
	User         string `mapstructure:"user" envconfig:"USER"`
	Password     string `mapstructure:"password" envconfig:"PASSWORD"`
	Name         string `mapstructure:"name" envconfig:"NAME"`
	SSLMode      string `mapstructure:"sslmode" envconfig:"SSLMODE"`
	MaxOpenConns int    `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"SECRET"`
	Issuer      string `mapstructure:"issuer" envconfig:"ISSUER"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"EXPIRY_HOURS"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend" envconfig:"BACKEND"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" envconfig:"ADDR"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"DB"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" envconfig:"LEVEL"`
	Format     string `mapstructure:"format" envconfig:"FORMAT"`
	File       string `mapstructure:"file" envconfig:"FILE"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `mapstructure:"max_backups" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `mapstructure:"max_age_days" envconfig:"MAX_AGE_DAYS"`
}

type ReportConfig struct {
	ClinicName string `mapstructure:"clinic_name" envconfig:"CLINIC_NAME"`
	ArchiveDir string `mapstructure:"archive_dir" envconfig:"ARCHIVE_DIR"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"HOST"`
	Port     int    `mapstructure:"port" envconfig:"PORT"`
	Username string `mapstructure:"username" envconfig:"USERNAME"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	From     string `mapstructure:"from" envconfig:"FROM"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute" envconfig:"LOGIN_PER_MINUTE"`
	LoginBurst     int `mapstructure:"login_burst" envconfig:"LOGIN_BURST"`
}

type PhoneConfig struct {
	DefaultRegion string `mapstructure:"default_region" envconfig:"DEFAULT_REGION"`
}

type MonitoringConfig struct {
	MetricsPrefix string `mapstructure:"metrics_prefix" envconfig:"METRICS_PREFIX"`
}

type AuditConfig struct {
	// RetentionDays of zero keeps audit logs forever.
	RetentionDays        int `mapstructure:"retention_days" envconfig:"RETENTION_DAYS"`
	CleanupIntervalHours int `mapstructure:"cleanup_interval_hours" envconfig:"CLEANUP_INTERVAL_HOURS"`
}

func (c AuditConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

const envPrefix = "CARDIO"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.timeout_seconds", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "cardio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("jwt.issuer", "cardio-api")
	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("report.clinic_name", "Cardiology Clinic")
	v.SetDefault("report.archive_dir", "medical_reports")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("rate_limit.login_per_minute", 10)
	v.SetDefault("rate_limit.login_burst", 5)

	v.SetDefault("phone.default_region", "US")

	v.SetDefault("monitoring.metrics_prefix", "cardio")

	v.SetDefault("audit.retention_days", 0)
	v.SetDefault("audit.cleanup_interval_hours", 24)
}

// LoadConfig reads config.yml (if present) over built-in defaults, then
// applies CARDIO_* environment overrides, e.g. CARDIO_DATABASE_HOST.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv layers envconfig over each section so that only variables that
// are actually set replace file values.
func applyEnv(cfg *Config) error {
	sections := map[string]interface{}{
		"SERVER":     &cfg.Server,
		"DATABASE":   &cfg.Database,
		"JWT":        &cfg.JWT,
		"SESSION":    &cfg.Session,
		"REDIS":      &cfg.Redis,
		"LOGGING":    &cfg.Logging,
		"REPORT":     &cfg.Report,
		"SMTP":       &cfg.SMTP,
		"RATE_LIMIT": &cfg.RateLimit,
		"PHONE":      &cfg.Phone,
		"MONITORING": &cfg.Monitoring,
		"AUDIT":      &cfg.Audit,
	}
	for name, section := range sections {
		if err := envconfig.Process(envPrefix+"_"+name, section); err != nil {
			return fmt.Errorf("failed to process %s environment: %w", strings.ToLower(name), err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("jwt.expiry_hours must be positive")
	}
	if c.Audit.RetentionDays < 0 {
		return errors.New("audit.retention_days must not be negative")
	}
	if c.Audit.RetentionDays > 0 && c.Audit.CleanupIntervalHours <= 0 {
		return errors.New("audit.cleanup_interval_hours must be positive when retention is enabled")
	}
	return nil
}
