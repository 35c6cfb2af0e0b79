// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Bag model
// (one row per tracked kit).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a bag is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Bags are addressed by name everywhere (the name is the sole lookup key of
// every mutation) and listed in category/display-order for the dashboard.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateBag inserts a new inventory row for name under category, with the
// given per-category display order. New bags start green, active, unchecked.
func CreateBag(ctx context.Context, db *gorm.DB, category, name string, displayOrder int) (*domain.Bag, error) {
	b := &domain.Bag{
		Category:     category,
		Name:         name,
		Status:       domain.StatusGreen,
		State:        domain.StateActive,
		DisplayOrder: displayOrder,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// GetBag fetches a single bag by its unique name, or ErrNotFound.
func GetBag(ctx context.Context, db *gorm.DB, name string) (*domain.Bag, error) {
	var b domain.Bag
	err := db.WithContext(ctx).Where("name = ?", name).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBags returns the full inventory ordered by category, then display
// order, then physical row order (insertion id breaks display-order ties).
func ListBags(ctx context.Context, db *gorm.DB) ([]domain.Bag, error) {
	var out []domain.Bag
	err := db.WithContext(ctx).
		Order("category asc, display_order asc, id asc").
		Find(&out).Error
	return out, err
}

// ListBagsByCategory returns the bags of one category in display order.
func ListBagsByCategory(ctx context.Context, db *gorm.DB, category string) ([]domain.Bag, error) {
	var out []domain.Bag
	err := db.WithContext(ctx).
		Where("category = ?", category).
		Order("display_order asc, id asc").
		Find(&out).Error
	return out, err
}

// SaveBag persists all mutable columns of an already-loaded bag row.
func SaveBag(ctx context.Context, db *gorm.DB, b *domain.Bag) error {
	return db.WithContext(ctx).Save(b).Error
}

// DeleteBag removes the inventory row for name. Missing rows yield
// ErrNotFound so callers can report an explicit failure.
func DeleteBag(ctx context.Context, db *gorm.DB, name string) error {
	res := db.WithContext(ctx).Where("name = ?", name).Delete(&domain.Bag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RenameBag updates the stored name of a bag. History propagation is the
// caller's responsibility (see services.AdminService).
func RenameBag(ctx context.Context, db *gorm.DB, oldName, newName string) error {
	res := db.WithContext(ctx).
		Model(&domain.Bag{}).
		Where("name = ?", oldName).
		Update("name", newName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateBagColumn sets one column of the bag identified by name, returning
// ErrNotFound when no row matches. Used for single-field admin edits
// (state, location, alert recipients).
func UpdateBagColumn(ctx context.Context, db *gorm.DB, name, column string, value any) error {
	res := db.WithContext(ctx).
		Model(&domain.Bag{}).
		Where("name = ?", name).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateBagCategory rewrites the category of every bag currently filed under
// oldCategory. Zero matches is not an error (a category can be empty).
func UpdateBagCategory(ctx context.Context, db *gorm.DB, oldCategory, newCategory string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Bag{}).
		Where("category = ?", oldCategory).
		Update("category", newCategory)
	return res.RowsAffected, res.Error
}

// DeleteBagsByCategory removes every inventory row of a category, returning
// the number of rows deleted.
func DeleteBagsByCategory(ctx context.Context, db *gorm.DB, category string) (int64, error) {
	res := db.WithContext(ctx).Where("category = ?", category).Delete(&domain.Bag{})
	return res.RowsAffected, res.Error
}

// MaxDisplayOrder returns the highest display order currently used within a
// category (0 when the category has no bags).
func MaxDisplayOrder(ctx context.Context, db *gorm.DB, category string) (int, error) {
	var row struct {
		Max int
	}
	err := db.WithContext(ctx).
		Model(&domain.Bag{}).
		Select("COALESCE(MAX(display_order), 0) AS max").
		Where("category = ?", category).
		Scan(&row).Error
	return row.Max, err
}

// BatchResult reports the outcome of a best-effort batch update: names that
// matched an inventory row and names that were silently skipped.
type BatchResult struct {
	Matched   []string `json:"matched"`
	Unmatched []string `json:"unmatched"`
}

// UpdateBagColumnBatch applies {name -> value} pairs to one column, skipping
// names with no matching row. The skip is deliberate (idempotent best-effort
// batch edits); the result lists both sets so callers can detect partial
// application.
func UpdateBagColumnBatch(ctx context.Context, db *gorm.DB, column string, values map[string]any) (*BatchResult, error) {
	out := &BatchResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, v := range values {
			res := tx.Model(&domain.Bag{}).Where("name = ?", name).Update(column, v)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				out.Unmatched = append(out.Unmatched, name)
			} else {
				out.Matched = append(out.Matched, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
