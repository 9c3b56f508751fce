package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddress        = ":8080"
	defaultEnvironment    = "development"
	defaultAuthTimeout    = 15 * time.Second
	defaultSessionTTL     = 12 * time.Hour
	defaultRedisPrefix    = "wareease:userinfo"
	defaultLogLevel       = "info"
	defaultConfigFileEnv  = "WAREEASE_CONFIG"
	minSessionHashKeySize = 32
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	AuthAPI AuthAPIConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address     string
	Environment string
}

// AuthAPIConfig points at the remote authentication service.
type AuthAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the browser session cookie.
type SessionConfig struct {
	HashKey      []byte
	BlockKey     []byte
	CookieSecure bool
	Lifetime     time.Duration
}

// RedisConfig selects the server-side user info store. An empty Addr keeps
// user info in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string
}

// Development reports whether the server runs in a local development environment.
func (c Config) Development() bool {
	switch strings.ToLower(strings.TrimSpace(c.Server.Environment)) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises how Load resolves values.
type Option func(*loaderOptions)

type loaderOptions struct {
	envMap       map[string]string
	useSystemEnv bool
	file         string
	fileSet      bool
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithFile overrides the YAML config file path. An empty path disables the file.
func WithFile(path string) Option {
	return func(o *loaderOptions) {
		o.file = path
		o.fileSet = true
	}
}

// Load assembles the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	envLookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		return "", false
	}

	path := options.file
	if !options.fileSet {
		path, _ = envLookup(defaultConfigFileEnv)
	}
	fileValues, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := envLookup(key); ok {
			return value, true
		}
		if value, ok := fileValues[key]; ok {
			return value, true
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Address:     stringWithDefault(lookup, "WAREEASE_HTTP_ADDR", defaultAddress),
			Environment: stringWithDefault(lookup, "WAREEASE_ENV", defaultEnvironment),
		},
		AuthAPI: AuthAPIConfig{
			BaseURL: strings.TrimRight(stringWithDefault(lookup, "AUTH_API_BASE_URL", ""), "/"),
			Timeout: durationWithDefault(lookup, "AUTH_API_TIMEOUT", defaultAuthTimeout),
		},
		Session: SessionConfig{
			HashKey:      []byte(stringWithDefault(lookup, "SESSION_HASH_KEY", "")),
			BlockKey:     []byte(stringWithDefault(lookup, "SESSION_BLOCK_KEY", "")),
			CookieSecure: boolWithDefault(lookup, "SESSION_COOKIE_SECURE", false),
			Lifetime:     durationWithDefault(lookup, "SESSION_LIFETIME", defaultSessionTTL),
		},
		Redis: RedisConfig{
			Addr:     stringWithDefault(lookup, "REDIS_ADDR", ""),
			Password: stringWithDefault(lookup, "REDIS_PASSWORD", ""),
			DB:       intWithDefault(lookup, "REDIS_DB", 0),
			Prefix:   stringWithDefault(lookup, "REDIS_PREFIX", defaultRedisPrefix),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Address) == "" {
		missing = append(missing, "Server.Address")
	}
	if cfg.AuthAPI.BaseURL == "" {
		missing = append(missing, "AuthAPI.BaseURL")
	} else if u, err := url.Parse(cfg.AuthAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "AuthAPI.BaseURL")
	}
	if cfg.AuthAPI.Timeout <= 0 {
		missing = append(missing, "AuthAPI.Timeout")
	}
	if len(cfg.Session.HashKey) == 0 {
		if !cfg.Development() {
			missing = append(missing, "Session.HashKey")
		}
	} else if len(cfg.Session.HashKey) < minSessionHashKeySize {
		missing = append(missing, "Session.HashKey")
	}
	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		missing = append(missing, "Session.BlockKey")
	}
	if cfg.Session.Lifetime <= 0 {
		missing = append(missing, "Session.Lifetime")
	}
	if cfg.Redis.DB < 0 {
		missing = append(missing, "Redis.DB")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// fileConfig mirrors the YAML layout; each leaf maps onto an environment key.
type fileConfig struct {
	Server struct {
		Addr        string `yaml:"addr"`
		Environment string `yaml:"environment"`
	} `yaml:"server"`
	AuthAPI struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"authAPI"`
	Session struct {
		HashKey      string `yaml:"hashKey"`
		BlockKey     string `yaml:"blockKey"`
		CookieSecure *bool  `yaml:"cookieSecure"`
		Lifetime     string `yaml:"lifetime"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	LogLevel string `yaml:"logLevel"`
}

func loadFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: file %s not found: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", path, err)
	}

	values := map[string]string{
		"WAREEASE_HTTP_ADDR": fc.Server.Addr,
		"WAREEASE_ENV":       fc.Server.Environment,
		"AUTH_API_BASE_URL":  fc.AuthAPI.BaseURL,
		"AUTH_API_TIMEOUT":   fc.AuthAPI.Timeout,
		"SESSION_HASH_KEY":   fc.Session.HashKey,
		"SESSION_BLOCK_KEY":  fc.Session.BlockKey,
		"SESSION_LIFETIME":   fc.Session.Lifetime,
		"REDIS_ADDR":         fc.Redis.Addr,
		"REDIS_PASSWORD":     fc.Redis.Password,
		"REDIS_PREFIX":       fc.Redis.Prefix,
		"LOG_LEVEL":          fc.LogLevel,
	}
	if fc.Session.CookieSecure != nil {
		values["SESSION_COOKIE_SECURE"] = strconv.FormatBool(*fc.Session.CookieSecure)
	}
	if fc.Redis.DB != nil {
		values["REDIS_DB"] = strconv.Itoa(*fc.Redis.DB)
	}
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			delete(values, key)
		}
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
