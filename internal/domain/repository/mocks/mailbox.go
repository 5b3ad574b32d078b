package mocks

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// Mailbox is a mock implementation of repository.MailboxRepository
type Mailbox struct {
	mock.Mock
}

func (m *Mailbox) ListUnprocessed(ctx context.Context, senderDomains []string, window entity.FetchWindow) ([]*entity.Email, error) {
	args := m.Called(ctx, senderDomains, window)
	if emails, ok := args.Get(0).([]*entity.Email); ok {
		return emails, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Mailbox) MarkProcessed(ctx context.Context, emailID string) error {
	args := m.Called(ctx, emailID)
	return args.Error(0)
}
