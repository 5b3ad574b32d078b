package mocks

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// Extractor is a mock implementation of repository.BookingExtractor
type Extractor struct {
	mock.Mock
}

func (m *Extractor) ExtractFlight(ctx context.Context, email *entity.Email) (*entity.FlightBooking, error) {
	args := m.Called(ctx, email)
	if b, ok := args.Get(0).(*entity.FlightBooking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Extractor) ExtractCarShare(ctx context.Context, email *entity.Email, provider entity.Provider) (*entity.CarShareBooking, error) {
	args := m.Called(ctx, email, provider)
	if b, ok := args.Get(0).(*entity.CarShareBooking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}
