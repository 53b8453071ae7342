package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Tracker     TrackerConfig     `toml:"tracker"`
	Bot         BotConfig         `toml:"bot"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=1,lte=65535"`
	Host string `toml:"host"`
}

// TrackerConfig holds the connection settings for the issue tracker REST API.
// Username/password are optional; when username is empty requests go out
// unauthenticated.
type TrackerConfig struct {
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	Username          string  `toml:"username"`
	Password          string  `toml:"password"`
	UseLegacySchema   bool    `toml:"use_legacy_schema"`  // Pre-5.0 tracker responses nest field values one level deeper
	RequestTimeout    string  `toml:"request_timeout"`    // e.g. "30s"
	RequestsPerSecond float64 `toml:"requests_per_second"` // Outbound rate limit, 0 = unlimited
}

// ParsedTimeout returns the request timeout as a duration, falling back to
// 30s when unset or unparseable.
func (t *TrackerConfig) ParsedTimeout() time.Duration {
	if t.RequestTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(t.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// BotConfig controls the chat-facing behaviour: which mentions trigger
// lookups, how long repeat mentions are suppressed, and who is ignored.
type BotConfig struct {
	Name               string   `toml:"name"`                 // Bot display name, used to skip self-authored messages
	ProjectPattern     string   `toml:"project_pattern"`      // Regexp for the project prefix of issue keys
	MaxList            int      `toml:"max_list" validate:"gte=1"`             // Search results above this count are not expanded
	DedupWindowSeconds int      `toml:"dedup_window_seconds" validate:"gte=1"` // Repeat-mention suppression window
	IgnoredUsers       []string `toml:"ignored_users"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// MaintenanceConfig contains schedules for background housekeeping
type MaintenanceConfig struct {
	GCSchedule string `toml:"gc_schedule"` // Cron schedule for Badger value-log GC
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against the struct validation tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CUSTOS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CUSTOS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CUSTOS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Tracker configuration
	if baseURL := os.Getenv("CUSTOS_TRACKER_URL"); baseURL != "" {
		config.Tracker.BaseURL = baseURL
	}
	if username := os.Getenv("CUSTOS_TRACKER_USERNAME"); username != "" {
		config.Tracker.Username = username
	}
	if password := os.Getenv("CUSTOS_TRACKER_PASSWORD"); password != "" {
		config.Tracker.Password = password
	}
	if legacy := os.Getenv("CUSTOS_TRACKER_LEGACY_SCHEMA"); legacy != "" {
		if b, err := strconv.ParseBool(legacy); err == nil {
			config.Tracker.UseLegacySchema = b
		}
	}
	if timeout := os.Getenv("CUSTOS_TRACKER_TIMEOUT"); timeout != "" {
		config.Tracker.RequestTimeout = timeout
	}

	// Bot configuration
	if name := os.Getenv("CUSTOS_BOT_NAME"); name != "" {
		config.Bot.Name = name
	}
	if maxList := os.Getenv("CUSTOS_BOT_MAX_LIST"); maxList != "" {
		if m, err := strconv.Atoi(maxList); err == nil {
			config.Bot.MaxList = m
		}
	}
	if window := os.Getenv("CUSTOS_BOT_DEDUP_WINDOW"); window != "" {
		if w, err := strconv.Atoi(window); err == nil {
			config.Bot.DedupWindowSeconds = w
		}
	}
	if ignored := os.Getenv("CUSTOS_BOT_IGNORED_USERS"); ignored != "" {
		users := strings.Split(ignored, ",")
		for i := range users {
			users[i] = strings.TrimSpace(users[i])
		}
		config.Bot.IgnoredUsers = users
	}

	// Storage configuration
	if path := os.Getenv("CUSTOS_STORAGE_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Logging configuration
	if level := os.Getenv("CUSTOS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
