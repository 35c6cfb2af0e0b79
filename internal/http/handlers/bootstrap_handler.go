// Bootstrap HTTP handler and handler wiring.
//
// This file defines the Handlers aggregate used by the router, the narrow
// service contracts the transport layer depends on, and the endpoint the
// client calls first on every page load:
//   - GET /bootstrap   (full application snapshot in one response)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
	"github.com/tmercier/go-bagcheck-backend/internal/snapshot"
)

//
// Service contracts (context-aware)
//

// SnapshotProvider serves the bootstrap payload, typically from a cache.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SnapshotProvider interface {
	// Get returns the current snapshot, rebuilding it when stale.
	Get(ctx context.Context) (*snapshot.Payload, error)
}

// CheckService records completed verification checks.
type CheckService interface {
	// Save persists one check: bag update, history entry, cache invalidation.
	Save(ctx context.Context, in services.CheckInput) (*services.CheckResult, error)
}

// PhotoService defines the photo use-cases consumed by HTTP handlers:
// verification slots, impact photos, blob access, and the event log.
type PhotoService interface {
	SaveVerification(ctx context.Context, category, bag, section string, data []byte) (*photos.Photo, error)
	ListVerification(ctx context.Context, category, bag, section string) ([]photos.Photo, error)
	LatestVerification(ctx context.Context, category, bag, section string) (*photos.Photo, error)
	File(ctx context.Context, id string) (*os.File, error)
	Delete(ctx context.Context, id string) error
	SaveImpact(ctx context.Context, bag, comment string, data []byte) (*photos.Photo, error)
	ListImpacts(ctx context.Context, bag string) ([]photos.Photo, error)
	UpdateImpactComment(ctx context.Context, id, comment string) error
	Events(ctx context.Context) ([]services.PhotoEvent, error)
}

// MileageService records per-vehicle mileage readings.
type MileageService interface {
	Save(ctx context.Context, bag string, km float64, date string) error
	All(ctx context.Context) (map[string]domain.MileageRecord, error)
}

// AlertSweeper runs the expiry alert sweep on demand.
type AlertSweeper interface {
	Sweep(ctx context.Context) (*services.SweepResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the public API. Admin endpoints map
// one-to-one onto AdminService methods, so that dependency stays concrete;
// the rest are abstract contracts to keep transport separate from logic.
type Handlers struct {
	snap    SnapshotProvider
	check   CheckService
	admin   *services.AdminService
	photos  PhotoService
	mileage MileageService
	alerts  AlertSweeper
}

// New constructs a Handlers instance bound to the given services.
func New(snap SnapshotProvider, check CheckService, admin *services.AdminService, photoSvc PhotoService, mileage MileageService, alerts AlertSweeper) *Handlers {
	return &Handlers{
		snap:    snap,
		check:   check,
		admin:   admin,
		photos:  photoSvc,
		mileage: mileage,
		alerts:  alerts,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// Handlers
//

// Bootstrap godoc
// @ID          bootstrap
// @Summary     Full application snapshot
// @Description Returns everything the client needs in one payload: inventory,
// @Description dashboard grouping, category order and frequencies, form
// @Description templates, recent history, options, mail templates, stats,
// @Description photo presence, and vehicle mileages.
// @Tags        Bootstrap
// @Produce     json
//
// @Success     200  {object}  snapshot.Payload
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bootstrap [get]
func (h *Handlers) Bootstrap(c *gin.Context) {
	payload, err := h.snap.Get(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSnapshotFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, payload)
}
