package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/expkit/pkg/confbind"
	"github.com/redis/go-redis/v9"
)

// Environment variables that override the settings file
const (
	EnvRedisURL  = "EXPKIT_REDIS_URL"
	EnvNamespace = "EXPKIT_NAMESPACE"
	EnvNoColor   = "NO_COLOR"
)

// Settings holds the CLI's own configuration (expkit.yml / expkit.toml / ...).
// Every key is optional.
type Settings struct {
	RedisURL  string // Redis connection URL; empty means in-process progress only
	Namespace string // Prefix for progress aggregator names
	BarWidth  int    // Cells in the progress bar
	Color     bool   // Colour output
	Workers   int    // Default worker pool size for demo runs
}

var settingsSchema = confbind.MustSchema(
	confbind.Defaulted("redis_url", "", func(s *Settings, v string) { s.RedisURL = v }, confbind.ParseString),
	confbind.Defaulted("namespace", "default", func(s *Settings, v string) { s.Namespace = v }, confbind.ParseString),
	confbind.Defaulted("bar_width", 30, func(s *Settings, v int) { s.BarWidth = v }, confbind.ParseInt),
	confbind.Defaulted("color", true, func(s *Settings, v bool) { s.Color = v }, confbind.ParseBool),
	confbind.Defaulted("workers", 4, func(s *Settings, v int) { s.Workers = v }, confbind.ParseInt),
)

// Unknown keys in the settings file are almost always typos, so reject them
var settingsBinder = confbind.NewBinder(settingsSchema,
	confbind.WithStrict(),
	confbind.WithParser("namespace", trimString),
	confbind.WithParser("redis_url", trimString),
)

func trimString(v confbind.Value) (confbind.Value, error) {
	s, err := v.AsString()
	if err != nil {
		return confbind.Value{}, err
	}
	return confbind.String(strings.TrimSpace(s)), nil
}

// Defaults returns the settings used when no file is given.
func Defaults() *Settings {
	s, err := settingsBinder.Bind(confbind.Record{})
	if err != nil {
		// Every settings field is defaulted
		panic(fmt.Sprintf("settings defaults: %v", err))
	}
	return &s
}

// ErrInvalidSettings wraps every Validate failure returned by Load.
var ErrInvalidSettings = errors.New("invalid settings")

// Overrides are explicit values (e.g. command-line flags) that win over both
// the settings file and the environment. Nil fields are left alone.
type Overrides struct {
	RedisURL  *string
	Namespace *string
}

func (o Overrides) apply(s *Settings) {
	if o.RedisURL != nil {
		s.RedisURL = strings.TrimSpace(*o.RedisURL)
	}
	if o.Namespace != nil {
		s.Namespace = strings.TrimSpace(*o.Namespace)
	}
}

// Load resolves settings as: file at path (format chosen by extension), then
// environment, then overrides, and validates the result once at the end.
// An empty path starts from the defaults.
func Load(path string, getenv func(string) string, overrides Overrides) (*Settings, error) {
	settings := Defaults()

	if path != "" {
		s, err := settingsBinder.BindFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		settings = &s
	}

	settings.ApplyEnv(getenv)
	overrides.apply(settings)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	return settings, nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvRedisURL)); v != "" {
		s.RedisURL = v
	}
	if v := strings.TrimSpace(getenv(EnvNamespace)); v != "" {
		s.Namespace = v
	}
	if getenv(EnvNoColor) != "" {
		s.Color = false
	}
}

// Validate checks field ranges and that the Redis URL (if any) parses.
func (s *Settings) Validate() error {
	if s.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	if strings.ContainsAny(s.Namespace, ": \t\n") {
		return fmt.Errorf("invalid namespace: %q (must not contain ':' or whitespace)", s.Namespace)
	}

	if s.BarWidth < 1 {
		return fmt.Errorf("bar_width must be >= 1, got %d", s.BarWidth)
	}

	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", s.Workers)
	}

	if s.RedisURL != "" {
		if _, err := redis.ParseURL(s.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	}

	return nil
}

// RedisOptions parses RedisURL. It fails when no URL is configured.
func (s *Settings) RedisOptions() (*redis.Options, error) {
	if s.RedisURL == "" {
		return nil, fmt.Errorf("no Redis URL configured (set redis_url, %s or --redis-url)", EnvRedisURL)
	}
	opts, err := redis.ParseURL(s.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url: %w", err)
	}
	return opts, nil
}

// AggregatorName scopes a progress bar name to the configured namespace.
func (s *Settings) AggregatorName(name string) string {
	return s.Namespace + ":" + name
}
