// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// HistoryEntry model (append-only verification log).
//
// History rows reference bags by name without a foreign key: renames
// propagate through RenameHistoryBag, deletes leave orphans on purpose (the
// log is an audit trail).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
)

// AppendHistory adds one entry to the verification log.
func AppendHistory(ctx context.Context, db *gorm.DB, bagName, verifier, details string, at time.Time) (*domain.HistoryEntry, error) {
	e := &domain.HistoryEntry{
		CreatedAt: at,
		BagName:   bagName,
		Verifier:  verifier,
		Details:   details,
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListHistory returns up to limit entries, newest first.
func ListHistory(ctx context.Context, db *gorm.DB, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	q := db.WithContext(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountHistory returns the total number of log entries.
func CountHistory(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.HistoryEntry{}).Count(&total).Error
	return total, err
}

// RenameHistoryBag rewrites the bag name on every entry referencing oldName.
// Zero matches is fine (a bag may never have been checked).
func RenameHistoryBag(ctx context.Context, db *gorm.DB, oldName, newName string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.HistoryEntry{}).
		Where("bag_name = ?", oldName).
		Update("bag_name", newName)
	return res.RowsAffected, res.Error
}

// DeleteHistoryByIndex removes the entry at indexFromNewest, where 0 is the
// most recent entry (the order the log is displayed in). Out-of-range
// indices yield ErrNotFound.
func DeleteHistoryByIndex(ctx context.Context, db *gorm.DB, indexFromNewest int) error {
	if indexFromNewest < 0 {
		return ErrNotFound
	}
	var e domain.HistoryEntry
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Offset(indexFromNewest).
		First(&e).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&e).Error
}
