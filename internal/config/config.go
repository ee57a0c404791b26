// Package config handles loading application configuration from environment
// variables and an optional YAML overlay file. All config is centralized here
// so no other package reads env vars directly. Sensible defaults are provided
// for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// DefaultConfigurationDN is the directory base under which the Casa
// configuration record (and its SMTP settings) lives.
const DefaultConfigurationDN = "ou=configuration,o=gluu"

// Config holds all application configuration. Populated at startup and passed
// to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// TrustedProxies lists the CIDRs whose X-Forwarded-For / X-Real-IP
	// headers are believed (comma-separated TRUSTED_PROXIES).
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// Mail holds outbound mail settings that are not stored in the directory.
	Mail MailConfig
}

// DatabaseConfig holds MariaDB connection parameters. If DATABASE_URL is set,
// it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string, built with the
// driver's Config.FormatDSN() so special characters in passwords are safe.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication and secret-handling settings.
type AuthConfig struct {
	// SecretKey is the process-wide key used to encrypt stored secrets such as
	// the SMTP password. Changing it makes existing ciphertexts unreadable.
	SecretKey string

	// SessionTTL is how long login sessions last before expiring.
	SessionTTL time.Duration

	// OTPTTL is how long an emailed one-time password stays valid.
	OTPTTL time.Duration

	// OTPMaxAttempts is how many wrong codes are accepted before the OTP is burned.
	OTPMaxAttempts int
}

// MailConfig holds mail settings owned by this process.
type MailConfig struct {
	// ConfigurationDN is the base DN searched for the SMTP configuration record.
	ConfigurationDN string

	// DialTimeout bounds the TCP connect + TLS handshake to the relay.
	DialTimeout time.Duration

	// OTPSubject is the subject line of one-time password emails.
	OTPSubject string
}

// fileConfig mirrors the YAML overlay. Only non-empty values override the
// environment.
type fileConfig struct {
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	BaseURL  string `yaml:"base_url"`
	LogLevel string `yaml:"log_level"`
	Database struct {
		Host     string `yaml:"host"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Mail struct {
		ConfigurationDN string `yaml:"configuration_dn"`
		DialTimeout     string `yaml:"dial_timeout"`
		OTPSubject      string `yaml:"otp_subject"`
	} `yaml:"mail"`
}

// Load reads configuration from environment variables with sensible defaults,
// then applies the YAML file named by CONFIG_PATH if one is set. ${VAR}
// references inside the file are expanded from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:       getEnv("LOG_LEVEL", "debug"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fd00::/8"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "casa"),
			Password:        getEnv("DB_PASSWORD", "casa"),
			Name:            getEnv("DB_NAME", "casa"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:      getEnv("SECRET_KEY", ""),
			SessionTTL:     getEnvDuration("SESSION_TTL", 720*time.Hour),
			OTPTTL:         getEnvDuration("OTP_TTL", 5*time.Minute),
			OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),
		},

		Mail: MailConfig{
			ConfigurationDN: getEnv("CONFIGURATION_DN", DefaultConfigurationDN),
			DialTimeout:     getEnvDuration("SMTP_DIAL_TIMEOUT", 10*time.Second),
			OTPSubject:      getEnv("OTP_SUBJECT", "Your one-time password"),
		},
	}

	if path := getEnv("CONFIG_PATH", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// Case-insensitive check catches common variants like "Production", "prod".
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}

	// Dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// applyFile overlays values from a YAML config file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.Env, fc.Env)
	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.Port > 0 {
		c.Port = fc.Port
	}

	setString(&c.Database.Host, fc.Database.Host)
	setString(&c.Database.User, fc.Database.User)
	setString(&c.Database.Password, fc.Database.Password)
	setString(&c.Database.Name, fc.Database.Name)
	setString(&c.Redis.URL, fc.Redis.URL)

	setString(&c.Mail.ConfigurationDN, fc.Mail.ConfigurationDN)
	setString(&c.Mail.OTPSubject, fc.Mail.OTPSubject)
	if fc.Mail.DialTimeout != "" {
		d, err := time.ParseDuration(fc.Mail.DialTimeout)
		if err != nil {
			return fmt.Errorf("parsing mail.dial_timeout: %w", err)
		}
		c.Mail.DialTimeout = d
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping empty items.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
