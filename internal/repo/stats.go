// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate inventory counters shown
// on the dashboard and embedded in the bootstrap snapshot.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
)

// InventoryStats counts bags per status across the active inventory.
// Out-of-service bags keep their stored status but are not counted.
type InventoryStats struct {
	OK           int64 `json:"ok"`
	Orange       int64 `json:"orange"`
	Red          int64 `json:"red"`
	ExpiredItems int64 `json:"expiredItems"`
}

// ComputeInventoryStats tallies the active inventory by status in one query.
func ComputeInventoryStats(ctx context.Context, db *gorm.DB) (InventoryStats, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Bag{}).
		Select("status, COUNT(*) AS n").
		Where("state <> ?", domain.StateOutOfService).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return InventoryStats{}, err
	}

	var s InventoryStats
	for _, r := range rows {
		switch r.Status {
		case domain.StatusGreen:
			s.OK = r.N
		case domain.StatusOrange:
			s.Orange = r.N
		case domain.StatusRed:
			s.Red = r.N
		case domain.StatusPurple:
			s.ExpiredItems = r.N
		}
	}
	return s, nil
}
