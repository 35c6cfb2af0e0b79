// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Category rows
// (category name -> verification frequency in days) and for the dynamic
// per-category form content tables.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
)

// ListCategories returns the category configuration in row order, which also
// defines the dashboard category ordering.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetCategory fetches one category by name, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, name string) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category row. FrequencyDays <= 0 defaults to 30.
func CreateCategory(ctx context.Context, db *gorm.DB, name string, frequencyDays int) (*domain.Category, error) {
	if frequencyDays <= 0 {
		frequencyDays = 30
	}
	c := &domain.Category{Name: name, FrequencyDays: frequencyDays}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// RenameCategory updates a category's name, returning ErrNotFound when the
// old name has no row.
func RenameCategory(ctx context.Context, db *gorm.DB, oldName, newName string) error {
	res := db.WithContext(ctx).
		Model(&domain.Category{}).
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

// DeleteCategory removes the configuration row for name.
func DeleteCategory(ctx context.Context, db *gorm.DB, name string) error {
	res := db.WithContext(ctx).Where("name = ?", name).Delete(&domain.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceCategories rewrites the whole configuration table from the given
// list, preserving list order as row order. Mirrors the original's
// clear-and-rewrite frequency editor.
func ReplaceCategories(ctx context.Context, db *gorm.DB, categories []domain.Category) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM categories").Error; err != nil {
			return err
		}
		for i := range categories {
			c := domain.Category{Name: categories[i].Name, FrequencyDays: categories[i].FrequencyDays}
			if c.FrequencyDays <= 0 {
				c.FrequencyDays = 30
			}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFormContent returns the template rows of one category in row order.
func ListFormContent(ctx context.Context, db *gorm.DB, category string) ([]domain.FormContentRow, error) {
	var out []domain.FormContentRow
	err := db.WithContext(ctx).
		Where("category = ?", category).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListFormCategories returns the distinct categories that have content rows.
func ListFormCategories(ctx context.Context, db *gorm.DB) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.FormContentRow{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &out).Error
	return out, err
}

// ReplaceFormContent swaps the template rows of a category wholesale.
// Templates are regenerated as a unit; there are no partial row updates.
func ReplaceFormContent(ctx context.Context, db *gorm.DB, category string, rows []domain.FormContentRow) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category = ?", category).Delete(&domain.FormContentRow{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].Category = category
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
