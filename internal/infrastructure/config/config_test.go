package config

import (
	"testing"
	"time"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "PROCESSED_BY_GMAIL_SYNC", cfg.ProcessedLabel)
	assert.Equal(t, 8, cfg.SyncPeriodHours)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, []string{"ana.co.jp", "booking.jal.com"}, cfg.FlightDomains)
	assert.Equal(t, 4, cfg.ExtractConcurrency)
	assert.False(t, cfg.DryRun)
	assert.NoError(t, cfg.Validate())

	providers, err := cfg.CarShareProviders()
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderTimesCar, providers["share.timescar.jp"])
	assert.Equal(t, entity.ProviderMitsuiCarshares, providers["carshares.jp"])
}

func TestLoadConfig_LegacyGmailNames(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GMAIL_CLIENT_ID", "legacy-id")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", cfg.GoogleClientID)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_PERIOD_HOURS", "12")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Int("since-hours", 0, "")
	flags.Bool("dry-run", false, "")
	require.NoError(t, flags.Parse([]string{"--since-hours=48", "--dry-run"}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.SyncPeriodHours)
	assert.True(t, cfg.DryRun)
}

func TestLoadConfig_UnsetFlagKeepsEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_PERIOD_HOURS", "12")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Int("since-hours", 0, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.SyncPeriodHours)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GoogleClientID:     "id",
			GoogleClientSecret: "secret",
			GoogleRefreshToken: "refresh",
			OpenAIAPIKey:       "sk",
			ExtractConcurrency: 1,
			CarShareDomains:    "carshares.jp=mitsui_carshares",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing google credentials", func(c *Config) { c.GoogleRefreshToken = "" }, true},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, true},
		{"bad start date", func(c *Config) { c.SyncStartDate = "2025/01/01" }, true},
		{"end without start", func(c *Config) { c.SyncEndDate = "2025-01-01" }, true},
		{"end before start", func(c *Config) { c.SyncStartDate = "2025-02-01"; c.SyncEndDate = "2025-01-01" }, true},
		{"unknown provider", func(c *Config) { c.CarShareDomains = "x.jp=careco" }, true},
		{"zero concurrency", func(c *Config) { c.ExtractConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_FetchWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("hours", func(t *testing.T) {
		w := (&Config{SyncPeriodHours: 8}).FetchWindow(now)
		assert.Equal(t, now.Add(-8*time.Hour), w.After)
		assert.True(t, w.Before.IsZero())
		assert.False(t, w.DateOnly)
	})

	t.Run("days win over hours", func(t *testing.T) {
		w := (&Config{SyncPeriodHours: 8, SyncPeriodDays: 30}).FetchWindow(now)
		assert.Equal(t, now.AddDate(0, 0, -30), w.After)
	})

	t.Run("absolute range is inclusive", func(t *testing.T) {
		w := (&Config{SyncPeriodDays: 30, SyncStartDate: "2025-01-01", SyncEndDate: "2025-01-31"}).FetchWindow(now)
		assert.True(t, w.DateOnly)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.After)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), w.Before)
	})
}
