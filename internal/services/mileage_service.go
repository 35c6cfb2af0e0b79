// Package services – MileageService
//
// One mileage record per vehicle bag, last write wins.
package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
)

// MileageService records vehicle mileage readings.
type MileageService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cache is invalidated after every save.
	Cache Invalidator
}

// Save stores a reading for a bag. The key is the sanitized bag name, so
// renamed bags keep their record addressable the same way photos are.
func (s *MileageService) Save(ctx context.Context, bag string, km float64, date string) error {
	bag = strings.TrimSpace(bag)
	if bag == "" {
		return ErrEmptyName
	}
	if km < 0 {
		return ErrInvalidMileage
	}
	rec := domain.MileageRecord{
		Km:         km,
		Date:       date,
		CapturedAt: time.Now().UTC(),
	}
	if err := repo.SetMileage(ctx, s.DB, photos.Sanitize(bag), rec); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// All returns every stored reading keyed by sanitized bag name.
func (s *MileageService) All(ctx context.Context) (map[string]domain.MileageRecord, error) {
	return repo.AllMileages(ctx, s.DB)
}
