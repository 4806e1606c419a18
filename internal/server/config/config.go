// Package config loads server settings from defaults, an optional YAML file,
// a .env file, ROCKBRIDGE_* environment variables and command-line flags,
// each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds runtime settings for the Rockbridge server.
type Config struct {
	Auth      AuthConfig      `koanf:"auth"`
	Uploads   UploadsConfig   `koanf:"uploads"`
	Mail      MailConfig      `koanf:"mail"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	// APIPrefix is mounted before every API route; empty serves them at the root.
	APIPrefix       string        `koanf:"api_prefix"`
}

// AuthConfig configures session tokens and password reset.
type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	ResetURLBase string        `koanf:"reset_url_base"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	OTPTTL       time.Duration `koanf:"otp_ttl"`
}

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageBolt   = "bolt"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

// Upload drivers.
const (
	UploadsLocal = "local"
	UploadsS3    = "s3"
)

// UploadsConfig selects where uploaded files go.
type UploadsConfig struct {
	Driver        string   `koanf:"driver"`
	Dir           string   `koanf:"dir"`
	PublicBase    string   `koanf:"public_base"`
	S3            S3Config `koanf:"s3"`
	ImageMaxBytes int64    `koanf:"image_max_bytes"`
	MediaMaxBytes int64    `koanf:"media_max_bytes"`
}

// S3Config configures the S3 upload driver.
type S3Config struct {
	Bucket     string `koanf:"bucket"`
	Region     string `koanf:"region"`
	Endpoint   string `koanf:"endpoint"`
	AccessKey  string `koanf:"access_key"`
	SecretKey  string `koanf:"secret_key"`
	PublicBase string `koanf:"public_base"`
}

// Mail drivers.
const (
	MailSMTP = "smtp"
	MailLog  = "log"
)

// MailConfig configures outgoing mail.
type MailConfig struct {
	Driver   string        `koanf:"driver"`
	Host     string        `koanf:"host"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	FromName string        `koanf:"from_name"`
	AdminTo  string        `koanf:"admin_to"`
	Port     int           `koanf:"port"`
	Timeout  time.Duration `koanf:"timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig limits login and password reset attempts per client IP.
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if p := c.Server.APIPrefix; p != "" && (!strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/")) {
		errs = append(errs, errors.New(`server.api_prefix must be empty or start with "/" and not end with "/"`))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.OTPTTL <= 0 {
		errs = append(errs, errors.New("auth.otp_ttl must be positive"))
	}

	switch c.Storage.Driver {
	case StorageSQLite, StorageBolt:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", StorageSQLite, StorageBolt, c.Storage.Driver))
	}

	switch c.Uploads.Driver {
	case UploadsLocal:
		if c.Uploads.Dir == "" {
			errs = append(errs, errors.New("uploads.dir is required"))
		}
	case UploadsS3:
		if c.Uploads.S3.Bucket == "" {
			errs = append(errs, errors.New("uploads.s3.bucket is required"))
		}
		if c.Uploads.S3.Region == "" {
			errs = append(errs, errors.New("uploads.s3.region is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("uploads.driver must be %q or %q, got %q", UploadsLocal, UploadsS3, c.Uploads.Driver))
	}
	if c.Uploads.ImageMaxBytes <= 0 || c.Uploads.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("uploads size limits must be positive"))
	}

	switch c.Mail.Driver {
	case MailSMTP:
		if c.Mail.Host == "" {
			errs = append(errs, errors.New("mail.host is required for the smtp driver"))
		}
		if c.Mail.From == "" && c.Mail.Username == "" {
			errs = append(errs, errors.New("mail.from or mail.username is required for the smtp driver"))
		}
	case MailLog:
	default:
		errs = append(errs, fmt.Errorf("mail.driver must be %q or %q, got %q", MailSMTP, MailLog, c.Mail.Driver))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format))
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("ratelimit.requests and ratelimit.window must be positive"))
	}

	return errors.Join(errs...)
}

// ParseLevel converts a log level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", level)
	}
}
