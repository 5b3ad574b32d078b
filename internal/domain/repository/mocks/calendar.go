package mocks

import (
	"context"
	"time"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// Calendar is a mock implementation of repository.CalendarRepository
type Calendar struct {
	mock.Mock
}

func (m *Calendar) Search(ctx context.Context, query string, timeMin, timeMax time.Time) ([]entity.CalendarEventRef, error) {
	args := m.Called(ctx, query, timeMin, timeMax)
	if events, ok := args.Get(0).([]entity.CalendarEventRef); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Calendar) Create(ctx context.Context, fields entity.EventFields) (string, error) {
	args := m.Called(ctx, fields)
	return args.String(0), args.Error(1)
}

func (m *Calendar) Update(ctx context.Context, eventID string, fields entity.EventFields) error {
	args := m.Called(ctx, eventID, fields)
	return args.Error(0)
}

func (m *Calendar) Delete(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
