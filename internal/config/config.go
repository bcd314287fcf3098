package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string `validate:"oneof=debug info warn error"` // zap level
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Ghost (target store)
	GhostURL      string `validate:"required,url"`        // ex: https://blog.domain.ext
	GhostAdminKey string `validate:"required,contains=:"` // Admin API key, "id:secret"

	// Omnivore (source service)
	OmnivoreURL      string `validate:"required,url"` // GraphQL endpoint
	OmnivoreToken    string `validate:"required"`     // API auth token
	OmnivoreUsername string `validate:"required"`     // owner handle used in article queries

	// Sync policy
	SyncLabel           string `validate:"required"`                   // membership label on bookmarks, tag on posts
	ExcludeLabel        string `validate:"required"`                   // bookmarks carrying this label are never mirrored
	ContentRule         string `validate:"oneof=annotation description"` // required-content predicate for create/update
	SummaryMarkerPrefix string // annotations with this prefix are machine summaries, never republished
	DisplayTimezone     string `validate:"required"` // IANA zone used for rendered dates
	ScanLimit           int    `validate:"gt=0"`     // resolver page cap when scanning managed posts

	// Redis side index (optional, empty addr disables it)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Location is resolved from DisplayTimezone at load time.
	Location *time.Location `validate:"-"`
}

// Load builds the configuration from defaults, an optional YAML overlay
// file (LINKMIRROR_CONFIG_FILE) and environment variables, in that
// precedence order (env wins). The result is validated before use.
func Load() (*Config, error) {
	base := defaults()

	if path := os.Getenv("LINKMIRROR_CONFIG_FILE"); path != "" {
		if err := applyFile(base, path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LINKMIRROR_LISTEN_PORT", base.ListenPort),
		ShutdownTimeout: mustDuration("LINKMIRROR_SHUTDOWN_TIMEOUT", base.ShutdownTimeout),

		// Logging
		LogLevel:  getenv("LINKMIRROR_LOG_LEVEL", base.LogLevel),
		PrettyLog: mustBool("LINKMIRROR_PRETTY_LOG", base.PrettyLog),

		// Ghost
		GhostURL:      getenv("GHOST_URL", base.GhostURL),
		GhostAdminKey: getenv("GHOST_ADMIN_KEY", base.GhostAdminKey),

		// Omnivore
		OmnivoreURL:      getenv("OMNIVORE_URL", base.OmnivoreURL),
		OmnivoreToken:    getenv("OMNIVORE_TOKEN", base.OmnivoreToken),
		OmnivoreUsername: getenv("OMNIVORE_USERNAME", base.OmnivoreUsername),

		// Sync policy
		SyncLabel:           getenv("SYNC_LABEL", base.SyncLabel),
		ExcludeLabel:        getenv("EXCLUDE_LABEL", base.ExcludeLabel),
		ContentRule:         getenv("SYNC_CONTENT_RULE", base.ContentRule),
		SummaryMarkerPrefix: getenv("SUMMARY_MARKER_PREFIX", base.SummaryMarkerPrefix),
		DisplayTimezone:     getenv("DISPLAY_TIMEZONE", base.DisplayTimezone),
		ScanLimit:           getenvInt("RESOLVER_SCAN_LIMIT", base.ScanLimit),

		// Redis settings
		RedisAddr:           getenv("REDIS_ADDR", base.RedisAddr),
		RedisUser:           getenv("REDIS_USERNAME", base.RedisUser),
		RedisPassword:       getenv("REDIS_PASSWORD", base.RedisPassword),
		RedisDB:             getenvInt("REDIS_DB", base.RedisDB),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", base.RedisDT),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", base.RedisRT),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", base.RedisWT),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", base.RedisMaxWait),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", base.RedisPingTimeout),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", base.RedisPoolSize),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", base.RedisConnectTimeout),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", base.RedisRetryInterval),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", base.RedisWarnThreshold),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", cfg.DisplayTimezone, err)
	}
	cfg.Location = loc

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.GhostAdminKey = "***REDACTED***"
		cfgCopy.OmnivoreToken = "***REDACTED***"
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenPort:      ":8080",
		ShutdownTimeout: 5 * time.Second,

		LogLevel:  "info",
		PrettyLog: true,

		OmnivoreURL: "https://api-prod.omnivore.app/api/graphql",

		SyncLabel:           "ghost",
		ExcludeLabel:        "Newsletter",
		ContentRule:         "annotation",
		SummaryMarkerPrefix: "AI Summary:",
		DisplayTimezone:     "America/Los_Angeles",
		ScanLimit:           100,

		RedisUser:           "default",
		RedisDT:             5 * time.Second,
		RedisRT:             3 * time.Second,
		RedisWT:             3 * time.Second,
		RedisMaxWait:        10 * time.Second,
		RedisPingTimeout:    5 * time.Second,
		RedisPoolSize:       10,
		RedisConnectTimeout: 30 * time.Second,
		RedisRetryInterval:  2 * time.Second,
		RedisWarnThreshold:  3,
	}
}

// fileConfig mirrors Config for the YAML overlay. Pointers distinguish
// "absent" from zero values; durations are parsed from strings.
type fileConfig struct {
	ListenPort      *string `yaml:"listen_port"`
	ShutdownTimeout *string `yaml:"shutdown_timeout"`

	LogLevel  *string `yaml:"log_level"`
	PrettyLog *bool   `yaml:"pretty_log"`

	GhostURL      *string `yaml:"ghost_url"`
	GhostAdminKey *string `yaml:"ghost_admin_key"`

	OmnivoreURL      *string `yaml:"omnivore_url"`
	OmnivoreToken    *string `yaml:"omnivore_token"`
	OmnivoreUsername *string `yaml:"omnivore_username"`

	SyncLabel           *string `yaml:"sync_label"`
	ExcludeLabel        *string `yaml:"exclude_label"`
	ContentRule         *string `yaml:"content_rule"`
	SummaryMarkerPrefix *string `yaml:"summary_marker_prefix"`
	DisplayTimezone     *string `yaml:"display_timezone"`
	ScanLimit           *int    `yaml:"scan_limit"`

	RedisAddr     *string `yaml:"redis_addr"`
	RedisUser     *string `yaml:"redis_username"`
	RedisPassword *string `yaml:"redis_password"`
	RedisDB       *int    `yaml:"redis_db"`
}

func applyFile(base *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	setString(&base.ListenPort, fc.ListenPort)
	if err := setDuration(&base.ShutdownTimeout, fc.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown_timeout: %w", err)
	}
	setString(&base.LogLevel, fc.LogLevel)
	setBool(&base.PrettyLog, fc.PrettyLog)
	setString(&base.GhostURL, fc.GhostURL)
	setString(&base.GhostAdminKey, fc.GhostAdminKey)
	setString(&base.OmnivoreURL, fc.OmnivoreURL)
	setString(&base.OmnivoreToken, fc.OmnivoreToken)
	setString(&base.OmnivoreUsername, fc.OmnivoreUsername)
	setString(&base.SyncLabel, fc.SyncLabel)
	setString(&base.ExcludeLabel, fc.ExcludeLabel)
	setString(&base.ContentRule, fc.ContentRule)
	setString(&base.SummaryMarkerPrefix, fc.SummaryMarkerPrefix)
	setString(&base.DisplayTimezone, fc.DisplayTimezone)
	setInt(&base.ScanLimit, fc.ScanLimit)
	setString(&base.RedisAddr, fc.RedisAddr)
	setString(&base.RedisUser, fc.RedisUser)
	setString(&base.RedisPassword, fc.RedisPassword)
	setInt(&base.RedisDB, fc.RedisDB)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
