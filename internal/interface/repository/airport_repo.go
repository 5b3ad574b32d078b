package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirportRepository implements the AirportRepository interface
type GormAirportRepository struct {
	db    *gorm.DB
	cache sync.Map // code -> *entity.AirportInfo
}

// NewGormAirportRepository creates a new GORM airport repository
func NewGormAirportRepository(db *gorm.DB) repository.AirportRepository {
	return &GormAirportRepository{
		db: db,
	}
}

// Timezonelist GORM model for database mapping
type Timezonelist struct {
	ID          uint           `gorm:"primaryKey"`
	AirportCode string         `gorm:"column:airportcode;unique"`
	AirportName string         `gorm:"column:airport_name"`
	CityCode    string         `gorm:"column:citycode"`
	CityName    string         `gorm:"column:cityname"`
	GmtTz       string         `gorm:"column:gmttz"`
	TzName      string         `gorm:"column:tzname"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (Timezonelist) TableName() string {
	return "m_timezone_list"
}

// GetByAirportCode finds an airport by IATA code
func (r *GormAirportRepository) GetByAirportCode(ctx context.Context, code string) (*entity.AirportInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if cached, ok := r.cache.Load(code); ok {
		return cached.(*entity.AirportInfo), nil
	}

	var row Timezonelist
	result := r.db.WithContext(ctx).Unscoped().Where("airportcode = ?", code).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("airport %s: %w", code, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load airport %s: %w", code, result.Error)
	}

	// Convert GORM model to domain entity
	info := &entity.AirportInfo{
		ID:          row.ID,
		AirportCode: row.AirportCode,
		AirportName: row.AirportName,
		CityCode:    row.CityCode,
		CityName:    row.CityName,
		GmtTz:       row.GmtTz,
		TzName:      row.TzName,
	}
	r.cache.Store(code, info)
	return info, nil
}
