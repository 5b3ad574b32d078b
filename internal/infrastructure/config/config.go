// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/retry"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string `mapstructure:"app_version" default:"1.0.0"`
	LogLevel   string `mapstructure:"log_level" default:"info"`
	LogFormat  string `mapstructure:"log_format" default:"json"`

	// Server
	Port         string        `mapstructure:"port" default:"8080"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"30s"`

	// Google
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRefreshToken string `mapstructure:"google_refresh_token"`
	CalendarID         string `mapstructure:"calendar_id" default:"primary"`
	ProcessedLabel     string `mapstructure:"processed_label" default:"PROCESSED_BY_GMAIL_SYNC"`

	// Extraction
	OpenAIAPIKey       string `mapstructure:"openai_api_key"`
	OpenAIModel        string `mapstructure:"openai_model" default:"gpt-3.5-turbo"`
	OpenAIBaseURL      string `mapstructure:"openai_base_url"`
	ExtractConcurrency int    `mapstructure:"extract_concurrency" default:"4"`

	// Notification
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`

	// Sync window
	SyncPeriodHours int           `mapstructure:"sync_period_hours" default:"8"`
	SyncPeriodDays  int           `mapstructure:"sync_period_days" default:"0"`
	SyncStartDate   string        `mapstructure:"sync_start_date"`
	SyncEndDate     string        `mapstructure:"sync_end_date"`
	SyncInterval    time.Duration `mapstructure:"sync_interval" default:"15m"`

	// Senders
	FlightDomains   []string `mapstructure:"flight_domains" default:"ana.co.jp,booking.jal.com"`
	CarShareDomains string   `mapstructure:"carshare_domains" default:"carshares.jp=mitsui_carshares,share.timescar.jp=times_car"`

	// Reference data
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// Calendar
	CalendarMaxRetries      int           `mapstructure:"calendar_max_retries" default:"5"`
	CalendarRetryInitial    time.Duration `mapstructure:"calendar_retry_initial" default:"500ms"`
	CalendarRetryMax        time.Duration `mapstructure:"calendar_retry_max" default:"30s"`
	StrictStatusTransitions bool          `mapstructure:"strict_status_transitions" default:"false"`
	DryRun                  bool          `mapstructure:"dry_run" default:"false"`
}

// flagKeys maps CLI flags to config keys
var flagKeys = map[string]string{
	"since-hours": "sync_period_hours",
	"since-days":  "sync_period_days",
	"start-date":  "sync_start_date",
	"end-date":    "sync_end_date",
	"dry-run":     "dry_run",
	"log-level":   "log_level",
	"interval":    "sync_interval",
}

// LoadConfig loads configuration from .env, environment variables and,
// when flags is not nil, any flags the user set explicitly.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	bindValues(v, Config{})
	v.AutomaticEnv()

	// legacy variable names
	_ = v.BindEnv("google_client_id", "GOOGLE_CLIENT_ID", "GMAIL_CLIENT_ID")
	_ = v.BindEnv("google_client_secret", "GOOGLE_CLIENT_SECRET", "GMAIL_CLIENT_SECRET")
	_ = v.BindEnv("google_refresh_token", "GOOGLE_REFRESH_TOKEN", "GMAIL_REFRESH_TOKEN")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// bindValues registers every mapstructure key with its default so that
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any) {
	t := reflect.TypeOf(iface)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Validate checks required credentials and the sync window
func (c *Config) Validate() error {
	var errs []error
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRefreshToken == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.ExtractConcurrency <= 0 {
		errs = append(errs, errors.New("EXTRACT_CONCURRENCY must be positive"))
	}
	if c.SyncPeriodHours < 0 || c.SyncPeriodDays < 0 {
		errs = append(errs, errors.New("sync period must not be negative"))
	}

	var start, end time.Time
	var err error
	if c.SyncStartDate != "" {
		if start, err = time.Parse(dateLayout, c.SyncStartDate); err != nil {
			errs = append(errs, fmt.Errorf("SYNC_START_DATE must be YYYY-MM-DD: %w", err))
		}
	}
	if c.SyncEndDate != "" {
		if c.SyncStartDate == "" {
			errs = append(errs, errors.New("SYNC_END_DATE requires SYNC_START_DATE"))
		}
		if end, err = time.Parse(dateLayout, c.SyncEndDate); err != nil {
			errs = append(errs, fmt.Errorf("SYNC_END_DATE must be YYYY-MM-DD: %w", err))
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs = append(errs, errors.New("SYNC_END_DATE is before SYNC_START_DATE"))
	}

	if _, err := c.CarShareProviders(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FetchWindow returns the mailbox window. An absolute date range wins over
// a day count, which wins over an hour count. The end date is inclusive.
func (c *Config) FetchWindow(now time.Time) entity.FetchWindow {
	if c.SyncStartDate != "" {
		w := entity.FetchWindow{DateOnly: true}
		if start, err := time.ParseInLocation(dateLayout, c.SyncStartDate, now.Location()); err == nil {
			w.After = start
		}
		if c.SyncEndDate != "" {
			if end, err := time.ParseInLocation(dateLayout, c.SyncEndDate, now.Location()); err == nil {
				w.Before = end.AddDate(0, 0, 1)
			}
		}
		return w
	}
	if c.SyncPeriodDays > 0 {
		return entity.FetchWindow{After: now.AddDate(0, 0, -c.SyncPeriodDays)}
	}
	hours := c.SyncPeriodHours
	if hours <= 0 {
		hours = 8
	}
	return entity.FetchWindow{After: now.Add(-time.Duration(hours) * time.Hour)}
}

// CarShareProviders parses CARSHARE_DOMAINS ("domain=provider,...")
func (c *Config) CarShareProviders() (map[string]entity.Provider, error) {
	out := make(map[string]entity.Provider)
	for _, pair := range strings.Split(c.CarShareDomains, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		domain, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("CARSHARE_DOMAINS entry %q must be domain=provider", pair)
		}
		provider, ok := entity.ParseProvider(name)
		if !ok {
			return nil, fmt.Errorf("CARSHARE_DOMAINS entry %q has unknown provider", pair)
		}
		out[strings.ToLower(strings.TrimSpace(domain))] = provider
	}
	return out, nil
}

// RetryPolicy is the calendar backoff policy
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.Policy{
		InitialInterval: c.CalendarRetryInitial,
		MaxInterval:     c.CalendarRetryMax,
	}
	if c.CalendarMaxRetries > 0 {
		p.MaxRetries = uint64(c.CalendarMaxRetries)
	}
	return p
}
