package main

import (
	"context"
	"fmt"

	domainRepo "booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/internal/infrastructure/config"
	"booking-calendar-sync/internal/infrastructure/oauth"
	"booking-calendar-sync/internal/infrastructure/persistence"
	"booking-calendar-sync/internal/infrastructure/router"
	"booking-calendar-sync/internal/interface/calendar"
	"booking-calendar-sync/internal/interface/extractor"
	"booking-calendar-sync/internal/interface/gmail"
	"booking-calendar-sync/internal/interface/repository"
	"booking-calendar-sync/internal/usecase"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/metrics"
	"booking-calendar-sync/pkg/utils"

	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

// app is everything a sync run needs
type app struct {
	cfg          *config.Config
	log          *logger.ZapLogger
	metrics      *metrics.Metrics
	orchestrator *usecase.SyncOrchestrator
	db           *gorm.DB
}

// loadConfig reads and validates configuration, letting explicitly set
// flags win over the environment
func loadConfig(flags *pflag.FlagSet) (*config.Config, *logger.ZapLogger, error) {
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewLoggerWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// newApp wires the Google clients, reference data, extractor and the
// reconciliation pipeline
func newApp(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (*app, error) {
	m := metrics.NewMetrics("booking_sync", nil)

	googleAuth := oauth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRefreshToken, log)
	if err := googleAuth.CheckToken(ctx); err != nil {
		return nil, err
	}
	tokenSource := googleAuth.GetTokenSource(ctx)

	gmailClient, err := gmail.NewGmailClient(ctx, tokenSource)
	if err != nil {
		return nil, err
	}
	calendarClient, err := calendar.NewCalendarClient(ctx, tokenSource)
	if err != nil {
		return nil, err
	}

	// Reference data is optional; without it titles use raw codes
	var (
		db          *gorm.DB
		airportRepo domainRepo.AirportRepository
		airlineRepo domainRepo.AirlineRepository
	)
	if cfg.PostgresDSN != "" {
		if conn, err := persistence.NewPostgresDB(ctx, cfg.PostgresDSN); err != nil {
			log.Warn("Reference database unavailable, continuing without it", "error", err)
		} else {
			db = conn
			airportRepo = repository.NewGormAirportRepository(db)
			airlineRepo = repository.NewGormAirlineRepository(db)
			log.Info("Connected to reference database")
		}
	}

	carShareDomains, err := cfg.CarShareProviders()
	if err != nil {
		return nil, err
	}
	classifier := router.NewDomainClassifier(cfg.FlightDomains, carShareDomains, log)

	mailbox := gmail.NewMailboxService(gmailClient, cfg.ProcessedLabel, log)
	store := usecase.NewRetryingCalendar(
		calendar.NewGoogleCalendar(calendarClient, cfg.CalendarID, log),
		cfg.RetryPolicy(), log, m)

	bookingExtractor := extractor.NewOpenAIExtractor(
		extractor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
		cfg.OpenAIModel, airportRepo, m, log)

	var notifier domainRepo.NotificationRepository
	if cfg.SlackWebhookURL != "" {
		notifier = repository.NewSlackRepository(cfg.SlackWebhookURL, log)
	}

	matcher := usecase.NewEventMatcher(store, nil)
	reconciler := usecase.NewReconciler(cfg.StrictStatusTransitions)
	applier := usecase.NewActionApplier(store, cfg.DryRun, log, m)

	orchestrator := usecase.NewSyncOrchestrator(
		mailbox,
		bookingExtractor,
		notifier,
		classifier,
		utils.NewPromotionalFilter(),
		usecase.NewFlightProcessor(matcher, reconciler, applier, airlineRepo, airportRepo, log),
		usecase.NewCarShareProcessor(matcher, reconciler, applier, log),
		m,
		log,
		usecase.OrchestratorOptions{
			ExtractConcurrency: cfg.ExtractConcurrency,
			DryRun:             cfg.DryRun,
		},
	)

	return &app{
		cfg:          cfg,
		log:          log,
		metrics:      m,
		orchestrator: orchestrator,
		db:           db,
	}, nil
}

// Close releases the reference database
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := persistence.Close(a.db); err != nil {
		a.log.Error("Reference database close error", "error", err)
	}
}
