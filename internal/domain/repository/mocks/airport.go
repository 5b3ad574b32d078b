package mocks

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// Airports is a mock implementation of repository.AirportRepository
type Airports struct {
	mock.Mock
}

func (m *Airports) GetByAirportCode(ctx context.Context, code string) (*entity.AirportInfo, error) {
	args := m.Called(ctx, code)
	if a, ok := args.Get(0).(*entity.AirportInfo); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// Airlines is a mock implementation of repository.AirlineRepository
type Airlines struct {
	mock.Mock
}

func (m *Airlines) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	args := m.Called(ctx, code)
	if a, ok := args.Get(0).(*entity.Airline); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
