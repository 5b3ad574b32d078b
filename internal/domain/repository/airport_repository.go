package repository

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"
)

// AirportRepository defines the interface for airport reference data
type AirportRepository interface {
	GetByAirportCode(ctx context.Context, code string) (*entity.AirportInfo, error)
}
