// Package config resolves service settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
//
// Keys are dotted ("notion.api_key"); the matching environment variable is the
// upper-cased key with dots replaced by underscores (NOTION_API_KEY).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissing wraps every missing required setting.
var ErrMissing = errors.New("config: required setting missing")

const (
	DefaultFlashModel = "gemini-3-flash-preview"
	DefaultProModel   = "gemini-3-pro-preview"
)

type Notion struct {
	APIKey     string
	BaseURL    string
	Version    string
	DiaryDBID  string
	ReportDBID string
}

type Gemini struct {
	APIKey     string
	BaseURL    string
	FlashModel string
	ProModel   string
}

type Weekly struct {
	DateProperty     string
	TitleProperty    string
	WindowDays       int
	FetchConcurrency int
	Timezone         string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type Ledger struct {
	Driver string
	DSN    string
}

type Otel struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string
	Headers     string
	Insecure    bool
	SampleRatio float64
}

type Config struct {
	Port            string
	LogMode         string
	Version         string
	PromptsDir      string
	WebhookToken    string
	MetricsEnabled  bool
	ShutdownTimeout time.Duration

	Notion Notion
	Gemini Gemini
	Weekly Weekly
	Redis  Redis
	Ledger Ledger
	Otel   Otel
}

// Location resolves Weekly.Timezone; empty means the process's local zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Weekly.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", tz, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("version", "dev")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("shutdown_timeout", 30*time.Second)

	v.SetDefault("notion.version", "2022-06-28")
	v.SetDefault("gemini.flash_model", DefaultFlashModel)
	v.SetDefault("gemini.pro_model", DefaultProModel)

	v.SetDefault("weekly.date_property", "日付")
	v.SetDefault("weekly.title_property", "名前")
	v.SetDefault("weekly.window_days", 7)
	v.SetDefault("weekly.fetch_concurrency", 4)

	v.SetDefault("redis.db", 0)
	v.SetDefault("pipeline.lock_ttl", 10*time.Minute)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "notion-ai-webhook")
	v.SetDefault("otel.sample_ratio", 1.0)
}

// bound lists every key so AutomaticEnv sees it even when neither a default
// nor the file mentions it.
var bound = []string{
	"prompts_dir", "webhook_token", "timezone",
	"notion.api_key", "notion.base_url", "notion.diary_db_id", "notion.report_db_id",
	"gemini.api_key", "gemini.base_url",
	"redis.addr", "redis.password",
	"run_ledger.driver", "run_ledger.dsn",
	"otel.environment", "otel.exporter_otlp_endpoint", "otel.exporter_otlp_headers", "otel.exporter_otlp_insecure",
}

// Load reads configFile when non-empty, then the environment, and validates
// the required settings.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range bound {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path := strings.TrimSpace(configFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:            str(v, "port"),
		LogMode:         str(v, "log_mode"),
		Version:         str(v, "version"),
		PromptsDir:      str(v, "prompts_dir"),
		WebhookToken:    str(v, "webhook_token"),
		MetricsEnabled:  v.GetBool("metrics.enabled"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		Notion: Notion{
			APIKey:     str(v, "notion.api_key"),
			BaseURL:    str(v, "notion.base_url"),
			Version:    str(v, "notion.version"),
			DiaryDBID:  str(v, "notion.diary_db_id"),
			ReportDBID: str(v, "notion.report_db_id"),
		},
		Gemini: Gemini{
			APIKey:     str(v, "gemini.api_key"),
			BaseURL:    str(v, "gemini.base_url"),
			FlashModel: str(v, "gemini.flash_model"),
			ProModel:   str(v, "gemini.pro_model"),
		},
		Weekly: Weekly{
			DateProperty:     str(v, "weekly.date_property"),
			TitleProperty:    str(v, "weekly.title_property"),
			WindowDays:       v.GetInt("weekly.window_days"),
			FetchConcurrency: v.GetInt("weekly.fetch_concurrency"),
			Timezone:         str(v, "timezone"),
		},
		Redis: Redis{
			Addr:     str(v, "redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			LockTTL:  v.GetDuration("pipeline.lock_ttl"),
		},
		Ledger: Ledger{
			Driver: strings.ToLower(str(v, "run_ledger.driver")),
			DSN:    str(v, "run_ledger.dsn"),
		},
		Otel: Otel{
			Enabled:     v.GetBool("otel.enabled"),
			ServiceName: str(v, "otel.service_name"),
			Environment: str(v, "otel.environment"),
			Endpoint:    str(v, "otel.exporter_otlp_endpoint"),
			Headers:     str(v, "otel.exporter_otlp_headers"),
			Insecure:    v.GetBool("otel.exporter_otlp_insecure"),
			SampleRatio: v.GetFloat64("otel.sample_ratio"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var missing []string
	for _, req := range []struct {
		env string
		val string
	}{
		{"NOTION_API_KEY", c.Notion.APIKey},
		{"GEMINI_API_KEY", c.Gemini.APIKey},
		{"NOTION_DIARY_DB_ID", c.Notion.DiaryDBID},
		{"NOTION_REPORT_DB_ID", c.Notion.ReportDBID},
	} {
		if req.val == "" {
			missing = append(missing, req.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	switch c.Ledger.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown RUN_LEDGER_DRIVER %q", c.Ledger.Driver)
	}
	if c.Ledger.Driver == "postgres" && c.Ledger.DSN == "" {
		return fmt.Errorf("%w: RUN_LEDGER_DSN", ErrMissing)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
