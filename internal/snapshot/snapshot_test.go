package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
)

func newEnv(t *testing.T) (*gorm.DB, *photos.Store) {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, fmt.Sprintf("snap_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	store, err := photos.New(filepath.Join(dir, "photos"))
	if err != nil {
		t.Fatalf("photo store: %v", err)
	}
	return db, store
}

func seedBag(t *testing.T, db *gorm.DB, category, name string, order int) {
	t.Helper()
	if _, err := repo.CreateBag(context.Background(), db, category, name, order); err != nil {
		t.Fatalf("CreateBag(%s): %v", name, err)
	}
}

func TestGet_BuildsFullPayload(t *testing.T) {
	db, store := newEnv(t)
	ctx := context.Background()

	repo.CreateCategory(ctx, db, "VLI", 30)
	repo.CreateCategory(ctx, db, "SAC ISP", 7)
	seedBag(t, db, "VLI", "VLI 1", 1)
	seedBag(t, db, "VLI", "VLI 2", 2)
	seedBag(t, db, "SAC ISP", "ISP 1", 1)
	repo.AppendHistory(ctx, db, "VLI 1", "Dupont", "{}", time.Now())
	repo.SetMileage(ctx, db, "VLI_1", domain.MileageRecord{Km: 12345, Date: "01/03/2025"})
	store.SaveVerification("VLI", "VLI 1", "Coffre", []byte("img"))

	c := NewCache(db, store, time.Second)
	p, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(p.Inventory) != 3 || len(p.Dashboard["VLI"]) != 2 {
		t.Fatalf("inventory/dashboard: %d / %v", len(p.Inventory), p.Dashboard)
	}
	if len(p.CategoriesOrder) != 2 || p.CategoriesOrder[0] != "VLI" {
		t.Fatalf("categoriesOrder = %v", p.CategoriesOrder)
	}
	if p.Frequencies["SAC ISP"] != 7 {
		t.Fatalf("frequencies = %v", p.Frequencies)
	}
	if len(p.History) != 1 || p.History[0].Name != "VLI 1" {
		t.Fatalf("history = %v", p.History)
	}
	if p.Stats.OK != 3 {
		t.Fatalf("stats = %+v", p.Stats)
	}
	if !p.PhotoPresence[photos.Sanitize(photos.Key("VLI", "VLI 1", "Coffre"))] {
		t.Fatalf("presence = %v", p.PhotoPresence)
	}
	if p.Mileages["VLI_1"].Km != 12345 {
		t.Fatalf("mileages = %v", p.Mileages)
	}
	if !p.Options.EnableQR {
		t.Fatalf("options should default on: %+v", p.Options)
	}

	// The rebuild must have persisted the durable tier.
	var durable Payload
	if err := repo.GetProperty(ctx, db, repo.PropBootstrapSnapshot, &durable); err != nil {
		t.Fatalf("durable tier missing: %v", err)
	}
}

func TestGet_ServesFastTierWithinTTL(t *testing.T) {
	db, store := newEnv(t)
	ctx := context.Background()
	seedBag(t, db, "VLI", "VLI 1", 1)

	c := NewCache(db, store, time.Minute)
	p1, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// A direct write bypassing Invalidate stays invisible until the TTL
	// lapses.
	seedBag(t, db, "VLI", "VLI 2", 2)
	p2, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if len(p2.Inventory) != len(p1.Inventory) {
		t.Fatalf("fast tier bypassed: %d", len(p2.Inventory))
	}
}

func TestInvalidate_RebuildsSynchronously(t *testing.T) {
	db, store := newEnv(t)
	ctx := context.Background()
	seedBag(t, db, "VLI", "VLI 1", 1)

	c := NewCache(db, store, time.Minute)
	if _, err := c.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}

	seedBag(t, db, "VLI", "VLI 2", 2)
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	p, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if len(p.Inventory) != 2 {
		t.Fatalf("stale payload after invalidate: %d", len(p.Inventory))
	}
}

func TestGet_ServesDurableTierAcrossRestarts(t *testing.T) {
	db, store := newEnv(t)
	ctx := context.Background()
	seedBag(t, db, "VLI", "VLI 1", 1)

	first := NewCache(db, store, time.Minute)
	if _, err := first.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// A fresh cache over the same database reads the stored snapshot
	// without a rebuild: a bag added behind its back stays invisible.
	seedBag(t, db, "VLI", "VLI 2", 2)
	second := NewCache(db, store, time.Minute)
	p, err := second.Get(ctx)
	if err != nil {
		t.Fatalf("Get(second): %v", err)
	}
	if len(p.Inventory) != 1 {
		t.Fatalf("durable tier skipped: %d", len(p.Inventory))
	}
}
