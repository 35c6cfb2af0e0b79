// Package snapshot assembles and caches the bootstrap payload: everything a
// client needs to render (inventory, dashboard, templates, history, options,
// stats, photo presence, mileages) in one document. Three tiers back it: a
// short in-memory cache, a durable copy in the properties store, and a full
// rebuild from the tables and the photo directory.
package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/forms"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/status"
)

// historyWindow caps how many entries the payload carries, newest first.
const historyWindow = 500

// InventoryItem is one bag rendered for clients: dates as dd/MM/yyyy
// strings, raw columns otherwise.
type InventoryItem struct {
	Category     string `json:"category"`
	Name         string `json:"name"`
	LastDate     string `json:"lastDate"`
	NextDate     string `json:"nextDate"`
	Status       string `json:"status"`
	LastVerifier string `json:"lastVerifier"`
	NextItemName string `json:"nextItemName"`
	NextItemDate string `json:"nextItemDate"`
	MailOrange   string `json:"mailOrange"`
	MailRed      string `json:"mailRed"`
	State        string `json:"state"`
	Location     string `json:"location"`
	Order        int    `json:"order"`
}

// HistoryItem is one rendered history row.
type HistoryItem struct {
	DateStr  string `json:"dateStr"`
	Name     string `json:"name"`
	Verifier string `json:"verifier"`
	Details  string `json:"details"`
}

// Payload is the full bootstrap document.
type Payload struct {
	Inventory       []InventoryItem                 `json:"inventory"`
	Dashboard       map[string][]InventoryItem      `json:"dashboard"`
	CategoriesOrder []string                        `json:"categoriesOrder"`
	Frequencies     map[string]int                  `json:"frequencies"`
	Forms           domain.FormTemplates            `json:"forms"`
	History         []HistoryItem                   `json:"history"`
	Options         domain.GlobalOptions            `json:"options"`
	MailConfig      domain.MailTemplates            `json:"mailConfig"`
	Stats           repo.InventoryStats             `json:"stats"`
	PhotoPresence   map[string]bool                 `json:"photoPresence"`
	Mileages        map[string]domain.MileageRecord `json:"vliMileages"`
	GeneratedAt     time.Time                       `json:"generatedAt"`
}

// Cache is the three-tier payload cache. Safe for concurrent use.
type Cache struct {
	db    *gorm.DB
	store *photos.Store
	ttl   time.Duration

	mu       sync.Mutex
	fast     *Payload
	fetchedAt time.Time
}

// NewCache wires the cache over the database and the photo store. ttl is the
// in-memory tier's lifetime; zero or negative falls back to 5 seconds.
func NewCache(db *gorm.DB, store *photos.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache{db: db, store: store, ttl: ttl}
}

// Get returns the bootstrap payload, serving the freshest available tier.
func (c *Cache) Get(ctx context.Context) (*Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fast != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.fast, nil
	}

	var durable Payload
	err := repo.GetProperty(ctx, c.db, repo.PropBootstrapSnapshot, &durable)
	if err == nil {
		c.fast = &durable
		c.fetchedAt = time.Now()
		return c.fast, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}

	return c.rebuildLocked(ctx)
}

// Invalidate drops the in-memory tier and rebuilds both durable tiers
// synchronously, so the next read is already consistent.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fast = nil
	if _, err := c.rebuildLocked(ctx); err != nil {
		log.Error().Err(err).Msg("bootstrap snapshot rebuild failed")
		return err
	}
	return nil
}

// Rebuild regenerates the payload unconditionally.
func (c *Cache) Rebuild(ctx context.Context) (*Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildLocked(ctx)
}

func (c *Cache) rebuildLocked(ctx context.Context) (*Payload, error) {
	p, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.SetProperty(ctx, c.db, repo.PropBootstrapSnapshot, p); err != nil {
		return nil, err
	}
	c.fast = p
	c.fetchedAt = time.Now()
	return p, nil
}

func (c *Cache) build(ctx context.Context) (*Payload, error) {
	cats, err := repo.ListCategories(ctx, c.db)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(cats))
	freqs := make(map[string]int, len(cats))
	for _, cat := range cats {
		order = append(order, cat.Name)
		freqs[cat.Name] = cat.FrequencyDays
	}

	bags, err := repo.ListBags(ctx, c.db)
	if err != nil {
		return nil, err
	}
	inventory := make([]InventoryItem, 0, len(bags))
	dashboard := map[string][]InventoryItem{}
	for _, b := range bags {
		item := renderBag(b)
		inventory = append(inventory, item)
		dashboard[item.Category] = append(dashboard[item.Category], item)
	}

	templates, err := forms.Templates(ctx, c.db)
	if err != nil {
		return nil, err
	}

	entries, err := repo.ListHistory(ctx, c.db, historyWindow)
	if err != nil {
		return nil, err
	}
	history := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		history = append(history, HistoryItem{
			DateStr:  status.FormatDateTime(e.CreatedAt),
			Name:     e.BagName,
			Verifier: e.Verifier,
			Details:  e.Details,
		})
	}

	options := domain.DefaultGlobalOptions()
	if err := repo.GetProperty(ctx, c.db, repo.PropGlobalOptions, &options); err != nil && !repo.IsNotFound(err) {
		return nil, err
	}
	mailConf := domain.MailTemplates{}
	if err := repo.GetProperty(ctx, c.db, repo.PropMailTemplates, &mailConf); err != nil && !repo.IsNotFound(err) {
		return nil, err
	}

	stats, err := repo.ComputeInventoryStats(ctx, c.db)
	if err != nil {
		return nil, err
	}

	presence, err := c.presence(ctx)
	if err != nil {
		return nil, err
	}

	mileages, err := repo.AllMileages(ctx, c.db)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Inventory:       inventory,
		Dashboard:       dashboard,
		CategoriesOrder: order,
		Frequencies:     freqs,
		Forms:           templates,
		History:         history,
		Options:         options,
		MailConfig:      mailConf,
		Stats:           stats,
		PhotoPresence:   presence,
		Mileages:        mileages,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// presence serves the stored map, rebuilding it from the photo directory
// when the property is absent.
func (c *Cache) presence(ctx context.Context) (map[string]bool, error) {
	var m map[string]bool
	err := repo.GetProperty(ctx, c.db, repo.PropPhotoPresence, &m)
	if err == nil {
		return m, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}
	m, err = c.store.PresenceMap()
	if err != nil {
		return nil, err
	}
	if err := repo.SetProperty(ctx, c.db, repo.PropPhotoPresence, m); err != nil {
		return nil, err
	}
	return m, nil
}

func renderBag(b domain.Bag) InventoryItem {
	return InventoryItem{
		Category:     b.Category,
		Name:         b.Name,
		LastDate:     status.FormatDate(b.LastControl),
		NextDate:     status.FormatDate(b.NextControl),
		Status:       b.Status,
		LastVerifier: b.LastVerifier,
		NextItemName: b.NextItemName,
		NextItemDate: status.FormatDate(b.NextItemExpiry),
		MailOrange:   b.MailOrange,
		MailRed:      b.MailRed,
		State:        b.State,
		Location:     b.Location,
		Order:        b.DisplayOrder,
	}
}
