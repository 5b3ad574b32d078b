package repository

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"
)

// NotificationRepository delivers run summaries
type NotificationRepository interface {
	NotifyRunSummary(ctx context.Context, summary *entity.RunSummary) error
}
