package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
// Nested keys are separated by a double underscore: ROCKBRIDGE_AUTH__JWT_SECRET.
const EnvPrefix = "ROCKBRIDGE_"

// DefaultEnvFile is read when present.
const DefaultEnvFile = ".env"

// Defaults returns the built-in settings as koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":5000",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "120s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_body_bytes":   1 << 20,
		"server.api_prefix":       "/api/v1",

		"auth.jwt_secret":     "",
		"auth.token_ttl":      "168h",
		"auth.otp_ttl":        "10m",
		"auth.reset_url_base": "https://rockbridge.store/resetpassword",

		"storage.driver": StorageSQLite,
		"storage.path":   "rockbridge.db",

		"uploads.driver":          UploadsLocal,
		"uploads.dir":             "uploads",
		"uploads.public_base":     "/uploads",
		"uploads.image_max_bytes": 20 << 20,
		"uploads.media_max_bytes": 100 << 20,
		"uploads.s3.region":       "us-east-1",

		"mail.driver":    MailSMTP,
		"mail.host":      "smtp.hostinger.com",
		"mail.port":      465,
		"mail.from_name": "Rockbridge",
		"mail.timeout":   "15s",

		"log.level":  "info",
		"log.format": "text",

		"cors.allowed_origins": []string{"*"},

		"ratelimit.enabled":  true,
		"ratelimit.requests": 10,
		"ratelimit.window":   "1m",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}
}

// legacyEnv maps unprefixed variables of older deployments to koanf keys.
var legacyEnv = map[string]string{
	"JWT_SECRET":            "auth.jwt_secret",
	"EMAIL_USER":            "mail.username",
	"EMAIL_PASS":            "mail.password",
	"FILE_SIZE_LIMIT":       "uploads.image_max_bytes",
	"MEDIA_FILE_SIZE_LIMIT": "uploads.media_max_bytes",
}

// flagKeys maps command-line flag names to koanf keys.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"db":         "storage.path",
	"storage":    "storage.driver",
	"uploads":    "uploads.dir",
	"log-level":  "log.level",
	"log-format": "log.format",
	"jwt-secret": "auth.jwt_secret",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", ":5000", "HTTP listen address")
	fs.String("db", "rockbridge.db", "database file path")
	fs.String("storage", StorageSQLite, "storage driver (sqlite or bolt)")
	fs.String("uploads", "uploads", "local upload directory")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (json or text)")
	fs.String("jwt-secret", "", "secret used to sign session tokens")
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// Flags are applied last; only flags changed on the command line override.
	Flags *pflag.FlagSet
	// ConfigFile is an optional YAML file. A missing file is an error.
	ConfigFile string
	// EnvFile is loaded into the process environment when it exists.
	EnvFile string
}

// Load builds a validated Config.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.EnvFile != "" {
		// godotenv не перезаписывает уже заданные переменные окружения
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	if legacy := legacyValues(); len(legacy) > 0 {
		if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load legacy environment: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// listKeys are list settings; their environment values are comma separated.
var listKeys = map[string]bool{
	"cors.allowed_origins": true,
}

// envKey turns ROCKBRIDGE_AUTH__JWT_SECRET into auth.jwt_secret.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// envValue maps an environment variable to its koanf key and value.
// ROCKBRIDGE_CORS__ALLOWED_ORIGINS="https://a.example, https://b.example" becomes two origins.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	return key, splitList(value)
}

func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func legacyValues() map[string]any {
	values := make(map[string]any)
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			values[key] = v
		}
	}
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		values["server.addr"] = ":" + port
	}
	return values
}

// applyDerived fills settings that default to other settings.
func (c *Config) applyDerived() {
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	if c.Mail.AdminTo == "" {
		c.Mail.AdminTo = c.Mail.Username
	}
}
