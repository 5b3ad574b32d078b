package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/metrics"
	"booking-calendar-sync/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EmailClassifier resolves an email to the closed set of categories
type EmailClassifier interface {
	Classify(email *entity.Email) entity.Classified
	SenderDomains() []string
}

// OrchestratorOptions tunes a sync run
type OrchestratorOptions struct {
	ExtractConcurrency int
	DryRun             bool
}

// SyncOrchestrator drives classify -> extract -> reconcile -> mark processed
type SyncOrchestrator struct {
	mailbox    repository.MailboxRepository
	extractor  repository.BookingExtractor
	notifier   repository.NotificationRepository
	classifier EmailClassifier
	filter     *utils.PromotionalFilter
	flights    *FlightProcessor
	carShares  *CarShareProcessor
	metrics    *metrics.Metrics
	logger     logger.Logger
	opts       OrchestratorOptions
	now        func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator. notifier and
// metrics may be nil.
func NewSyncOrchestrator(
	mailbox repository.MailboxRepository,
	extractor repository.BookingExtractor,
	notifier repository.NotificationRepository,
	classifier EmailClassifier,
	filter *utils.PromotionalFilter,
	flights *FlightProcessor,
	carShares *CarShareProcessor,
	m *metrics.Metrics,
	logger logger.Logger,
	opts OrchestratorOptions,
) *SyncOrchestrator {
	if opts.ExtractConcurrency <= 0 {
		opts.ExtractConcurrency = 1
	}
	return &SyncOrchestrator{
		mailbox:    mailbox,
		extractor:  extractor,
		notifier:   notifier,
		classifier: classifier,
		filter:     filter,
		flights:    flights,
		carShares:  carShares,
		metrics:    m,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// extraction is the per-email result of the parallel stage
type extraction struct {
	flight   *entity.FlightBooking
	carShare *entity.CarShareBooking
	err      error
}

// Run processes every unprocessed email in window. Extraction runs in
// parallel; reconciliation runs one email at a time in receipt order so
// the newest email always wins. A single email's failure never stops the
// run. The returned error is only set for run-level failures, in which
// case the summary still covers what was done.
func (o *SyncOrchestrator) Run(ctx context.Context, window entity.FetchWindow) (*entity.RunSummary, error) {
	summary := &entity.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
		DryRun:    o.opts.DryRun,
	}
	log := o.logger.With("run_id", summary.RunID)
	defer func() { summary.FinishedAt = o.now() }()

	emails, err := o.mailbox.ListUnprocessed(ctx, o.classifier.SenderDomains(), window)
	var fetchErr *entity.FetchError
	if err != nil && !errors.As(err, &fetchErr) {
		o.countError("list_emails")
		return summary, fmt.Errorf("failed to list emails: %w", err)
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].ReceivedAt.Before(emails[j].ReceivedAt)
	})
	summary.Emails = len(emails)

	// unreadable messages stay unlabeled for the next run
	if fetchErr != nil {
		for _, f := range fetchErr.Failures {
			o.countError("fetch_email")
			log.Warn("Email could not be fetched", "email_id", f.ID, "error", f.Err)
			summary.Emails++
			summary.RecordOutcome(entity.OutcomeFailed)
			summary.Failures = append(summary.Failures, entity.EmailFailure{
				EmailID: f.ID,
				Error:   "fetch: " + f.Err.Error(),
			})
		}
	}
	log.Info("Starting sync run", "emails", len(emails), "dry_run", o.opts.DryRun)

	classified := make([]entity.Classified, len(emails))
	for i, email := range emails {
		classified[i] = o.classifier.Classify(email)
	}

	results := o.extractAll(ctx, classified, log)

	var runErr error
	for i, c := range classified {
		if err := ctx.Err(); err != nil {
			runErr = err
			log.Warn("Sync run interrupted", "remaining", len(classified)-i)
			break
		}

		started := time.Now()
		outcome, err := o.processOne(ctx, c, results[i], summary, log)
		o.observe(c.Category, outcome, started)
		summary.RecordOutcome(outcome)

		if outcome == entity.OutcomeFailed {
			summary.Failures = append(summary.Failures, entity.EmailFailure{
				EmailID: c.Email.ID,
				Subject: utils.Truncate(c.Email.Subject, 100),
				Error:   err.Error(),
			})
		}
	}

	summary.FinishedAt = o.now()
	log.Info("Sync run finished",
		"processed", summary.Processed,
		"created", summary.Created,
		"updated", summary.Updated,
		"replaced", summary.Replaced,
		"deleted", summary.Deleted,
		"skipped", summary.Skipped,
		"promotional", summary.Promotional,
		"no_info", summary.NoFlightInfo+summary.NoCarShareInfo,
		"unsupported", summary.Unsupported,
		"failed", summary.Failed,
		"duration", summary.Duration().String())

	o.notify(ctx, summary, log)
	return summary, runErr
}

// extractAll runs the promotional filter and the extractor for every
// supported email, bounded by ExtractConcurrency. Results keep input order.
func (o *SyncOrchestrator) extractAll(ctx context.Context, classified []entity.Classified, log logger.Logger) []extraction {
	results := make([]extraction, len(classified))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.ExtractConcurrency)

	for i, c := range classified {
		if c.Category == entity.CategoryUnknown {
			continue
		}
		if o.filter != nil && o.filter.IsPromotional(c.Email.Subject, c.Email.Body) {
			results[i].err = &entity.ExtractionFailure{Reason: entity.ReasonPromotional}
			continue
		}

		i, c := i, c
		g.Go(func() error {
			switch c.Category {
			case entity.CategoryFlight:
				b, err := o.extractor.ExtractFlight(gctx, c.Email)
				if err == nil && b == nil {
					err = &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo}
				}
				if err == nil {
					b.SourceEmailID = c.Email.ID
					b.EmailReceivedAt = c.Email.ReceivedAt
				}
				results[i] = extraction{flight: b, err: err}
			case entity.CategoryCarShare:
				b, err := o.extractor.ExtractCarShare(gctx, c.Email, c.Provider)
				if err == nil && b == nil {
					err = &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo}
				}
				if err == nil {
					b.SourceEmailID = c.Email.ID
					b.EmailReceivedAt = c.Email.ReceivedAt
				}
				results[i] = extraction{carShare: b, err: err}
			}
			if results[i].err != nil {
				log.Debug("Extraction returned no booking", "email_id", c.Email.ID, "error", results[i].err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *SyncOrchestrator) processOne(ctx context.Context, c entity.Classified, ex extraction, summary *entity.RunSummary, runLog logger.Logger) (entity.EmailOutcome, error) {
	log := runLog.With("email_id", c.Email.ID, "category", c.Category.String())

	if c.Category == entity.CategoryUnknown {
		log.Debug("No handler for sender", "from", c.Email.From)
		return entity.OutcomeUnsupported, nil
	}

	if ex.err != nil {
		var failure *entity.ExtractionFailure
		if errors.As(ex.err, &failure) {
			log.Info("Email has nothing to sync", "reason", failure.Reason, "subject", utils.Truncate(c.Email.Subject, 100))
			switch {
			case failure.Reason == entity.ReasonPromotional:
				return entity.OutcomePromotional, nil
			case c.Category == entity.CategoryFlight:
				return entity.OutcomeNoFlightInfo, nil
			default:
				return entity.OutcomeNoCarShareInfo, nil
			}
		}
		o.countError("extract")
		log.Error("Extraction failed", "error", ex.err)
		return entity.OutcomeFailed, fmt.Errorf("extraction: %w", ex.err)
	}

	var (
		res ProcessResult
		err error
	)
	switch c.Category {
	case entity.CategoryFlight:
		res, err = o.flights.Process(ctx, ex.flight)
	case entity.CategoryCarShare:
		res, err = o.carShares.Process(ctx, ex.carShare)
	}

	for _, a := range res.Applied {
		summary.RecordAction(a.Type)
	}
	summary.IllegalTransitions += res.IllegalTransitions

	if err != nil {
		o.countError("reconcile")
		log.Error("Failed to reconcile booking", "error", err)
		return entity.OutcomeFailed, err
	}

	if o.opts.DryRun {
		return entity.OutcomeProcessed, nil
	}
	if err := o.mailbox.MarkProcessed(ctx, c.Email.ID); err != nil {
		// reprocessing converges on the same calendar state
		o.countError("mark_processed")
		log.Warn("Failed to mark email as processed", "error", err)
	}
	return entity.OutcomeProcessed, nil
}

func (o *SyncOrchestrator) notify(ctx context.Context, summary *entity.RunSummary, log logger.Logger) {
	if o.notifier == nil || summary.Emails == 0 {
		return
	}
	if err := o.notifier.NotifyRunSummary(ctx, summary); err != nil {
		o.countError("notify")
		log.Error("Failed to send run summary", "error", err)
	}
}

func (o *SyncOrchestrator) observe(cat entity.Category, outcome entity.EmailOutcome, started time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.EmailsProcessed.WithLabelValues(cat.String(), string(outcome)).Inc()
	o.metrics.ProcessingTime.Observe(time.Since(started).Seconds())
}

func (o *SyncOrchestrator) countError(op string) {
	if o.metrics != nil {
		o.metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
}
