// Package services – AdminService
//
// This file implements the AdminService, which owns every configuration
// mutation: bag lifecycle (create, delete, rename, state), alert recipients,
// locations and display orders, category management, templates, global
// options, mail wording, history corrections, and the batch status
// recomputation. Every successful mutation invalidates the bootstrap
// snapshot so the next read is consistent.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/forms"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/status"
)

// AdminService implements the administration use-cases.
type AdminService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Photos is the blob store; bag renames migrate its files.
	Photos *photos.Store
	// Cache is invalidated after every successful mutation.
	Cache Invalidator
}

// AddBag creates a bag at the end of its category's display order.
func (s *AdminService) AddBag(ctx context.Context, category, name string) (*domain.Bag, error) {
	category = strings.TrimSpace(category)
	name = strings.TrimSpace(name)
	if category == "" || name == "" {
		return nil, ErrEmptyName
	}
	if _, err := repo.GetBag(ctx, s.DB, name); err == nil {
		return nil, ErrDuplicateName
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	max, err := repo.MaxDisplayOrder(ctx, s.DB, category)
	if err != nil {
		return nil, err
	}
	bag, err := repo.CreateBag(ctx, s.DB, category, name, max+1)
	if err != nil {
		return nil, err
	}
	return bag, s.Cache.Invalidate(ctx)
}

// DeleteBag removes a bag from the inventory. History and photos survive as
// an audit trail.
func (s *AdminService) DeleteBag(ctx context.Context, name string) error {
	if err := repo.DeleteBag(ctx, s.DB, name); err != nil {
		if repo.IsNotFound(err) {
			return ErrBagNotFound
		}
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// RenameBag renames a bag everywhere it is referenced: the inventory row,
// its history entries, both photo families, and the presence map.
func (s *AdminService) RenameBag(ctx context.Context, oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return ErrEmptyName
	}
	if oldName == newName {
		return nil
	}

	bag, err := repo.GetBag(ctx, s.DB, oldName)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrBagNotFound
		}
		return err
	}
	if _, err := repo.GetBag(ctx, s.DB, newName); err == nil {
		return ErrDuplicateName
	} else if !repo.IsNotFound(err) {
		return err
	}

	if err := repo.RenameBag(ctx, s.DB, oldName, newName); err != nil {
		return err
	}
	if n, err := repo.RenameHistoryBag(ctx, s.DB, oldName, newName); err != nil {
		return err
	} else if n > 0 {
		log.Info().Str("bag", newName).Int64("entries", n).Msg("history renamed")
	}

	if err := s.Photos.RenameBag(oldName, newName, bag.Category); err != nil {
		// Blob migration is best effort; the presence rebuild below keeps
		// the map truthful either way.
		log.Error().Err(err).Str("bag", oldName).Msg("photo rename failed")
	}
	if err := s.rebuildPresence(ctx); err != nil {
		return err
	}

	return s.Cache.Invalidate(ctx)
}

// SetBagState switches a bag between Actif and HS.
func (s *AdminService) SetBagState(ctx context.Context, name, state string) error {
	if state != domain.StateActive && state != domain.StateOutOfService {
		return ErrInvalidState
	}
	if err := repo.UpdateBagColumn(ctx, s.DB, name, "state", state); err != nil {
		if repo.IsNotFound(err) {
			return ErrBagNotFound
		}
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// SetRecipient updates one alert address of a bag. Severity is orange or
// red; an empty address clears the recipient.
func (s *AdminService) SetRecipient(ctx context.Context, name, severity, address string) error {
	var column string
	switch severity {
	case "orange":
		column = "mail_orange"
	case "red":
		column = "mail_red"
	default:
		return ErrInvalidSeverity
	}
	if err := repo.UpdateBagColumn(ctx, s.DB, name, column, strings.TrimSpace(address)); err != nil {
		if repo.IsNotFound(err) {
			return ErrBagNotFound
		}
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// SetLocation updates one bag's free-text location.
func (s *AdminService) SetLocation(ctx context.Context, name, location string) error {
	if err := repo.UpdateBagColumn(ctx, s.DB, name, "location", location); err != nil {
		if repo.IsNotFound(err) {
			return ErrBagNotFound
		}
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// LocationUpdate is one entry of a batch location change.
type LocationUpdate struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// SetLocations applies a batch of location changes. Unknown bags are
// reported, not fatal.
func (s *AdminService) SetLocations(ctx context.Context, updates []LocationUpdate) (*repo.BatchResult, error) {
	values := make(map[string]any, len(updates))
	for _, u := range updates {
		if u.Name != "" {
			values[u.Name] = u.Location
		}
	}
	res, err := repo.UpdateBagColumnBatch(ctx, s.DB, "location", values)
	if err != nil {
		return nil, err
	}
	return res, s.Cache.Invalidate(ctx)
}

// OrderUpdate is one entry of a batch display-order change.
type OrderUpdate struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// SetOrders applies a batch of display-order changes.
func (s *AdminService) SetOrders(ctx context.Context, updates []OrderUpdate) (*repo.BatchResult, error) {
	values := make(map[string]any, len(updates))
	for _, u := range updates {
		if u.Name != "" {
			values[u.Name] = u.Order
		}
	}
	res, err := repo.UpdateBagColumnBatch(ctx, s.DB, "display_order", values)
	if err != nil {
		return nil, err
	}
	return res, s.Cache.Invalidate(ctx)
}

// CreateCategory adds a category with the default 30-day frequency.
func (s *AdminService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = forms.Canonical(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := repo.GetCategory(ctx, s.DB, name); err == nil {
		return nil, ErrDuplicateName
	} else if !repo.IsNotFound(err) {
		return nil, err
	}
	cat, err := repo.CreateCategory(ctx, s.DB, name, status.DefaultFrequencyDays)
	if err != nil {
		return nil, err
	}
	return cat, s.Cache.Invalidate(ctx)
}

// RenameCategory renames a category in the configuration, on every bag
// carrying it, and in the template map.
func (s *AdminService) RenameCategory(ctx context.Context, oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = forms.Canonical(newName)
	if oldName == "" || newName == "" {
		return ErrEmptyName
	}
	if err := repo.RenameCategory(ctx, s.DB, oldName, newName); err != nil {
		if repo.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	if _, err := repo.UpdateBagCategory(ctx, s.DB, oldName, newName); err != nil {
		return err
	}
	if err := forms.RenameTemplateKey(ctx, s.DB, oldName, newName); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// DeleteCategory removes the configuration row, every bag of the category,
// and its template. History and photos stay untouched.
func (s *AdminService) DeleteCategory(ctx context.Context, name string) error {
	if err := repo.DeleteCategory(ctx, s.DB, name); err != nil {
		if repo.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	if _, err := repo.DeleteBagsByCategory(ctx, s.DB, name); err != nil {
		return err
	}
	if err := forms.DeleteTemplate(ctx, s.DB, name); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// FrequencyUpdate is one row of a wholesale category configuration write.
type FrequencyUpdate struct {
	Name string `json:"name"`
	Freq int    `json:"freq"`
}

// ReplaceCategories rewrites the category configuration wholesale, keeping
// the given order as the dashboard order.
func (s *AdminService) ReplaceCategories(ctx context.Context, updates []FrequencyUpdate) error {
	cats := make([]domain.Category, 0, len(updates))
	for _, u := range updates {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			continue
		}
		freq := u.Freq
		if freq <= 0 {
			freq = status.DefaultFrequencyDays
		}
		cats = append(cats, domain.Category{Name: name, FrequencyDays: freq})
	}
	if err := repo.ReplaceCategories(ctx, s.DB, cats); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// ReplaceTemplate swaps one category's checklist template.
func (s *AdminService) ReplaceTemplate(ctx context.Context, category string, sections []domain.FormSection) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyName
	}
	if err := forms.ReplaceTemplate(ctx, s.DB, category, sections); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// SaveGlobalOptions persists the feature toggles.
func (s *AdminService) SaveGlobalOptions(ctx context.Context, opts domain.GlobalOptions) error {
	if err := repo.SetProperty(ctx, s.DB, repo.PropGlobalOptions, opts); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// SaveMailTemplates persists the alert wording.
func (s *AdminService) SaveMailTemplates(ctx context.Context, conf domain.MailTemplates) error {
	if err := repo.SetProperty(ctx, s.DB, repo.PropMailTemplates, conf); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// DeleteHistoryEntry removes one history row addressed by its index from the
// newest entry (0 = most recent).
func (s *AdminService) DeleteHistoryEntry(ctx context.Context, indexFromNewest int) error {
	if err := repo.DeleteHistoryByIndex(ctx, s.DB, indexFromNewest); err != nil {
		if repo.IsNotFound(err) {
			return ErrHistoryNotFound
		}
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// RecalculateStatuses reclassifies every bag from its stored dates. Bags
// with no date constraint keep their current status.
func (s *AdminService) RecalculateStatuses(ctx context.Context) (int, error) {
	bags, err := repo.ListBags(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	changed := 0
	for _, b := range bags {
		st, ok := status.Classify(now, b.NextControl, b.NextItemExpiry)
		if !ok || st == b.Status {
			continue
		}
		if err := repo.UpdateBagColumn(ctx, s.DB, b.Name, "status", st); err != nil {
			return changed, err
		}
		changed++
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		return changed, err
	}
	return changed, nil
}

// RunCleanup canonicalizes category naming across the store on demand.
func (s *AdminService) RunCleanup(ctx context.Context) error {
	if err := forms.Cleanup(ctx, s.DB); err != nil {
		return err
	}
	return s.Cache.Invalidate(ctx)
}

// rebuildPresence rescans the photo directory and persists the fresh map.
func (s *AdminService) rebuildPresence(ctx context.Context) error {
	m, err := s.Photos.PresenceMap()
	if err != nil {
		return err
	}
	return repo.SetProperty(ctx, s.DB, repo.PropPhotoPresence, m)
}
