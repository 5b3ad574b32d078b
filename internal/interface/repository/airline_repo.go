package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirlineRepository implements the AirlineRepository interface
type GormAirlineRepository struct {
	db *gorm.DB
}

// NewGormAirlineRepository creates a new GORM airline repository
func NewGormAirlineRepository(db *gorm.DB) repository.AirlineRepository {
	return &GormAirlineRepository{
		db: db,
	}
}

// Airlines GORM model for database mapping
type Airlines struct {
	ID        uint           `gorm:"primaryKey"`
	Code      string         `gorm:"column:code;unique"`
	Name      string         `gorm:"column:name;unique"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airlines) TableName() string {
	return "m_airlines"
}

// GetByCode finds an airline by its IATA code
func (r *GormAirlineRepository) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var airline Airlines
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&airline)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("airline %s: %w", code, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load airline %s: %w", code, result.Error)
	}

	return &entity.Airline{
		ID:   airline.ID,
		Code: airline.Code,
		Name: airline.Name,
	}, nil
}
