// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the typed accessors of the key-value
// property store: the explicit replacement for the original deployment's
// ambient script-properties global. Values are JSON documents.
//
// Well-known keys are declared here so every component addresses the store
// through the same constants.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
)

// Well-known property keys.
const (
	PropForms             = "FORMS_JSON"
	PropGlobalOptions     = "GLOBAL_OPTS"
	PropMailTemplates     = "MAIL_CONF"
	PropPhotoPresence     = "PHOTO_PRESENCE_JSON"
	PropPhotoEvents       = "PHOTO_HISTORY"
	PropBootstrapSnapshot = "BOOTSTRAP_SNAPSHOT_V1"
	PropMileagePrefix     = "VLI_KM_"
	PropSeeded            = "INIT_SEED"
	PropCleanupDone       = "INIT_CLEANUP"
)

// GetProperty unmarshals the value stored under key into out. A missing key
// returns ErrNotFound; corrupt JSON is reported as ErrNotFound too, so that
// callers fall back to rebuilding from source rather than failing reads.
func GetProperty(ctx context.Context, db *gorm.DB, key string, out any) error {
	var p domain.Property
	if err := db.WithContext(ctx).Where("key = ?", key).First(&p).Error; err != nil {
		return err
	}
	if err := json.Unmarshal(p.Value, out); err != nil {
		return ErrNotFound
	}
	return nil
}

// SetProperty marshals v and upserts it under key.
func SetProperty(ctx context.Context, db *gorm.DB, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p := domain.Property{Key: key, Value: raw}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&p).Error
}

// DeleteProperty removes a key. Deleting a missing key is not an error.
func DeleteProperty(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.Property{}).Error
}

// HasProperty reports whether a key exists, without decoding it.
func HasProperty(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Property{}).
		Where("key = ?", key).
		Count(&n).Error
	return n > 0, err
}

// ListPropertiesByPrefix returns every entry whose key starts with prefix,
// mapped by the remainder of the key. Used for the per-bag mileage records.
func ListPropertiesByPrefix(ctx context.Context, db *gorm.DB, prefix string) (map[string]json.RawMessage, error) {
	var rows []domain.Property
	err := db.WithContext(ctx).
		Where("key LIKE ?", prefix+"%").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, p := range rows {
		out[strings.TrimPrefix(p.Key, prefix)] = json.RawMessage(p.Value)
	}
	return out, nil
}

// GetMileage reads the mileage record of one bag (by sanitized key suffix).
func GetMileage(ctx context.Context, db *gorm.DB, bagKey string) (*domain.MileageRecord, error) {
	var rec domain.MileageRecord
	err := GetProperty(ctx, db, PropMileagePrefix+bagKey, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetMileage stores the mileage record of one bag, last write wins.
func SetMileage(ctx context.Context, db *gorm.DB, bagKey string, rec domain.MileageRecord) error {
	return SetProperty(ctx, db, PropMileagePrefix+bagKey, rec)
}

// AllMileages returns every stored mileage record keyed by sanitized bag
// name. Undecodable entries are skipped rather than failing the read.
func AllMileages(ctx context.Context, db *gorm.DB) (map[string]domain.MileageRecord, error) {
	raw, err := ListPropertiesByPrefix(ctx, db, PropMileagePrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.MileageRecord, len(raw))
	for k, v := range raw {
		var rec domain.MileageRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			continue
		}
		out[k] = rec
	}
	return out, nil
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
