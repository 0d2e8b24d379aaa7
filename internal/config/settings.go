package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/llm"
	"github.com/Veraticus/the-stock-must-flow/internal/notify"
	"github.com/Veraticus/the-stock-must-flow/internal/storage"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the environment.
const EnvPrefix = "STOCK"

// Settings is the resolved application configuration.
type Settings struct {
	Server     ServerSettings
	Backend    BackendSettings
	Sample     SampleSettings
	Logging    LoggingSettings
	Database   storage.Config
	LLM        llm.Config
	SMTP       notify.Config
	Thresholds forecast.Thresholds
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host string
	Port int
}

// Addr returns host:port.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendSettings locates the HTTP backend used by the agent commands.
type BackendSettings struct {
	URL     string
	Timeout time.Duration
}

// SampleSettings controls startup seeding.
type SampleSettings struct {
	// Path overrides the bundled sample CSV when set.
	Path    string
	Preload bool
}

// LoggingSettings selects the slog handler.
type LoggingSettings struct {
	Level  string
	Format string
}

// envAliases binds keys to the unprefixed variable names used by existing deployments.
var envAliases = map[string][]string{
	"thresholds.safe_days": {"THRESHOLD_SAFE_DAYS"},
	"thresholds.low_days":  {"THRESHOLD_LOW_DAYS"},
	"smtp.host":            {"SMTP_HOST"},
	"smtp.port":            {"SMTP_PORT"},
	"smtp.user":            {"SMTP_USER"},
	"smtp.pass":            {"SMTP_PASS"},
	"smtp.from":            {"NOTIFY_FROM"},
	"llm.api_key":          {"GEMINI_API_KEY"},
	"server.port":          {"PORT"},
	"backend.url":          {"BACKEND_URL"},
	"database.url":         {"DATABASE_URL"},
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("thresholds.low_days", 7)
	v.SetDefault("thresholds.safe_days", 30)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("smtp.port", notify.DefaultPort)
	v.SetDefault("smtp.timeout", 30*time.Second)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 5*time.Minute)
	v.SetDefault("llm.rate_limit", 15)
	v.SetDefault("database.driver", storage.DriverMemory)
	v.SetDefault("sample.preload", true)
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, aliases...)...)
	}
}

// Load resolves and validates settings from v. SetDefaults must have been called.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Thresholds: forecast.Thresholds{
			LowDays:  v.GetInt("thresholds.low_days"),
			SafeDays: v.GetInt("thresholds.safe_days"),
		},
		Server: ServerSettings{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		SMTP: notify.Config{
			Host:    v.GetString("smtp.host"),
			Port:    v.GetInt("smtp.port"),
			User:    v.GetString("smtp.user"),
			Pass:    v.GetString("smtp.pass"),
			From:    v.GetString("smtp.from"),
			Timeout: v.GetDuration("smtp.timeout"),
		},
		LLM: llm.Config{
			Provider:   v.GetString("llm.provider"),
			APIKey:     v.GetString("llm.api_key"),
			Model:      v.GetString("llm.model"),
			MaxRetries: v.GetInt("llm.max_retries"),
			RetryDelay: v.GetDuration("llm.retry_delay"),
			CacheTTL:   v.GetDuration("llm.cache_ttl"),
			RateLimit:  v.GetInt("llm.rate_limit"),
		},
		Database: storage.Config{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		Sample: SampleSettings{
			Preload: v.GetBool("sample.preload"),
			Path:    ExpandPath(v.GetString("sample.path")),
		},
		Backend: BackendSettings{
			URL:     strings.TrimRight(v.GetString("backend.url"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if s.Database.Driver == storage.DriverSQLite && s.Database.Path == "" {
		s.Database.Path = DefaultDatabasePath()
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for values that cannot work.
func (s Settings) Validate() error {
	if err := s.Thresholds.Validate(); err != nil {
		return err
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", common.ErrInvalidConfig, s.Server.Port)
	}
	if s.SMTP.Port < 1 || s.SMTP.Port > 65535 {
		return fmt.Errorf("%w: smtp port %d out of range", common.ErrInvalidConfig, s.SMTP.Port)
	}

	switch s.Database.Driver {
	case storage.DriverMemory, storage.DriverSQLite:
	case storage.DriverPostgres:
		if s.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for postgres", common.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, s.Database.Driver)
	}

	if _, err := common.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	if s.Logging.Format != "console" && s.Logging.Format != "json" {
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, s.Logging.Format)
	}

	return nil
}
