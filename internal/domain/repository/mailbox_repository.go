package repository

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"
)

// MailboxRepository reads booking mail and keeps the processed ledger
type MailboxRepository interface {
	// ListUnprocessed returns mail from the given sender domains inside
	// window that does not carry the processed marker yet. Messages that
	// were listed but could not be read are reported in an
	// *entity.FetchError next to the ones that could.
	ListUnprocessed(ctx context.Context, senderDomains []string, window entity.FetchWindow) ([]*entity.Email, error)
	MarkProcessed(ctx context.Context, emailID string) error
}
