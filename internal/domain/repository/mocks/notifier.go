package mocks

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// Notifier is a mock implementation of repository.NotificationRepository
type Notifier struct {
	mock.Mock
}

func (m *Notifier) NotifyRunSummary(ctx context.Context, summary *entity.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
