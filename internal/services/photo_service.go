// Package services – PhotoService
//
// This file implements the PhotoService, which fronts the blob store:
// verification photos per (category, bag, section) slot, vehicle impact
// photos per bag, the persisted presence map, and the append-only photo
// event log served to administrators.
package services

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/status"
)

// PhotoEvent is one row of the append-only photo log.
type PhotoEvent struct {
	Action    string `json:"action"` // add, modify, delete
	BagName   string `json:"bagName"`
	Category  string `json:"category"`
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	Timestamp int64  `json:"timestamp"`
	DateStr   string `json:"dateStr"`
}

// PhotoService implements the photo use-cases.
type PhotoService struct {
	// DB holds the presence map and the event log.
	DB *gorm.DB
	// Store is the blob store.
	Store *photos.Store
	// Cache is invalidated after every mutation.
	Cache Invalidator
}

// SaveVerification stores a photo for a slot, updates the presence map and
// the event log. A slot that already had photos logs "modify", a first
// photo logs "add".
func (p *PhotoService) SaveVerification(ctx context.Context, category, bag, section string, data []byte) (*photos.Photo, error) {
	existing, err := p.Store.ListVerification(category, bag, section)
	if err != nil {
		return nil, err
	}
	action := "add"
	if len(existing) > 0 {
		action = "modify"
	}

	photo, err := p.Store.SaveVerification(category, bag, section, data)
	if err != nil {
		return nil, err
	}

	p.logEvent(ctx, action, bag, photo)
	if err := p.setPresence(ctx, photos.Sanitize(photos.Key(category, bag, section)), true); err != nil {
		return nil, err
	}
	return photo, p.Cache.Invalidate(ctx)
}

// ListVerification returns a slot's photos, newest first.
func (p *PhotoService) ListVerification(ctx context.Context, category, bag, section string) ([]photos.Photo, error) {
	return p.Store.ListVerification(category, bag, section)
}

// LatestVerification returns a slot's most recent photo.
func (p *PhotoService) LatestVerification(ctx context.Context, category, bag, section string) (*photos.Photo, error) {
	photo, err := p.Store.LatestVerification(category, bag, section)
	if err == photos.ErrNotFound {
		return nil, ErrPhotoNotFound
	}
	return photo, err
}

// Delete soft-deletes a photo of either family, clearing the presence slot
// when the removed blob was a verification photo with complete metadata.
func (p *PhotoService) Delete(ctx context.Context, id string) error {
	removed, err := p.Store.Delete(id)
	if err != nil {
		if err == photos.ErrNotFound || err == photos.ErrBadID {
			return ErrPhotoNotFound
		}
		return err
	}

	p.logEvent(ctx, "delete", removed.Meta.Bag, removed)

	meta := removed.Meta
	if meta.Category != "" && meta.Bag != "" && meta.Section != "" {
		key := photos.Sanitize(photos.Key(meta.Category, meta.Bag, meta.Section))
		remaining, err := p.Store.ListVerification(meta.Category, meta.Bag, meta.Section)
		if err != nil {
			return err
		}
		if err := p.setPresence(ctx, key, len(remaining) > 0); err != nil {
			return err
		}
	} else if err := p.rebuildPresence(ctx); err != nil {
		return err
	}

	return p.Cache.Invalidate(ctx)
}

// File opens a photo blob of either family for streaming to the client.
// The caller owns the returned handle.
func (p *PhotoService) File(ctx context.Context, id string) (*os.File, error) {
	f, err := p.Store.Open(id)
	if err != nil {
		if err == photos.ErrNotFound || err == photos.ErrBadID {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return f, nil
}

// SaveImpact stores a vehicle impact photo.
func (p *PhotoService) SaveImpact(ctx context.Context, bag, comment string, data []byte) (*photos.Photo, error) {
	photo, err := p.Store.SaveImpact(bag, comment, data)
	if err != nil {
		return nil, err
	}
	return photo, p.Cache.Invalidate(ctx)
}

// ListImpacts returns a bag's impact photos, newest first.
func (p *PhotoService) ListImpacts(ctx context.Context, bag string) ([]photos.Photo, error) {
	return p.Store.ListImpacts(bag)
}

// UpdateImpactComment rewrites an impact photo's comment.
func (p *PhotoService) UpdateImpactComment(ctx context.Context, id, comment string) error {
	if err := p.Store.UpdateImpactComment(id, comment); err != nil {
		if err == photos.ErrNotFound || err == photos.ErrBadID {
			return ErrPhotoNotFound
		}
		return err
	}
	return p.Cache.Invalidate(ctx)
}

// Events returns the photo log, newest first.
func (p *PhotoService) Events(ctx context.Context) ([]PhotoEvent, error) {
	var events []PhotoEvent
	if err := repo.GetProperty(ctx, p.DB, repo.PropPhotoEvents, &events); err != nil {
		if repo.IsNotFound(err) {
			return []PhotoEvent{}, nil
		}
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// logEvent appends to the photo log. Failures are logged, never fatal: the
// log is a convenience trail, not a ledger.
func (p *PhotoService) logEvent(ctx context.Context, action, bag string, photo *photos.Photo) {
	category := photo.Meta.Category
	if category == "" {
		if b, err := repo.GetBag(ctx, p.DB, bag); err == nil {
			category = b.Category
		}
	}

	var events []PhotoEvent
	if err := repo.GetProperty(ctx, p.DB, repo.PropPhotoEvents, &events); err != nil && !repo.IsNotFound(err) {
		log.Warn().Err(err).Msg("photo event log unreadable")
		return
	}
	now := time.Now()
	events = append(events, PhotoEvent{
		Action:    action,
		BagName:   bag,
		Category:  category,
		FileID:    photo.ID,
		FileName:  photo.FileName,
		Timestamp: now.UnixMilli(),
		DateStr:   status.FormatDateTime(now),
	})
	if err := repo.SetProperty(ctx, p.DB, repo.PropPhotoEvents, events); err != nil {
		log.Warn().Err(err).Msg("photo event log not persisted")
	}
}

// setPresence flips one key of the persisted presence map.
func (p *PhotoService) setPresence(ctx context.Context, sanitizedKey string, present bool) error {
	m := map[string]bool{}
	if err := repo.GetProperty(ctx, p.DB, repo.PropPhotoPresence, &m); err != nil && !repo.IsNotFound(err) {
		return err
	}
	if present {
		m[sanitizedKey] = true
	} else {
		delete(m, sanitizedKey)
	}
	return repo.SetProperty(ctx, p.DB, repo.PropPhotoPresence, m)
}

func (p *PhotoService) rebuildPresence(ctx context.Context) error {
	m, err := p.Store.PresenceMap()
	if err != nil {
		return err
	}
	return repo.SetProperty(ctx, p.DB, repo.PropPhotoPresence, m)
}
