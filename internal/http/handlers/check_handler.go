// Check HTTP handlers.
//
// This file exposes the REST endpoint for submitting a completed bag
// verification:
//   - POST /bags/{name}/checks
//
// Idempotency:
// Verifiers work from phones with flaky connectivity. If the client supplies
// an Idempotency-Key header and a previous successful result exists for
// (user, bag, key), the handler returns the bag's current stored record and
// sets `Idempotency-Replayed: true` instead of appending a second history
// entry.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
)

//
// DTOs
//

// SaveCheckRequest is the JSON payload for recording a verification.
type SaveCheckRequest struct {
	// Answers holds the raw form answers; stored opaquely in history.
	Answers json.RawMessage `json:"answers"`
	// NextItemName names the soonest-expiring contained item, if any.
	NextItemName string `json:"nextItemName" example:"Glucose 30%"`
	// NextItemExpiry is the item's ISO expiry date (blank = no constraint).
	NextItemExpiry string `json:"nextItemExpiry" example:"2026-11-30"`
	// Verifier is the person performing the check.
	Verifier string `json:"verifier" binding:"required,min=1" example:"J. Martin"`
	// Elapsed is the optional verification duration shown in history.
	Elapsed string `json:"elapsed" example:"4 min 12 s"`
}

// SaveCheckResponse is the JSON envelope for a recorded verification.
type SaveCheckResponse struct {
	// Result carries the recomputed bag, status, and next control date.
	Result *services.CheckResult `json:"result"`
}

//
// Handlers
//

// SaveCheck godoc
// @ID          saveCheck
// @Summary     Record a bag verification
// @Description Appends a history entry and restarts the bag's control window.
// @Description Supports idempotency via the Idempotency-Key header (same key → replay).
// @Tags        Checks
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       name             path    string  true  "Bag name"               example(VLI 1)
// @Param       body             body    handlers.SaveCheckRequest  true  "Verification payload"
//
// @Success     200  {object}  handlers.SaveCheckResponse  "Recorded check"
// @Failure     400  {object}  handlers.ErrorResponse      "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse      "Bag not found"
// @Failure     500  {object}  handlers.ErrorResponse      "Internal error"
// @Router      /bags/{name}/checks [post]
func (h *Handlers) SaveCheck(c *gin.Context) {
	ctx := c.Request.Context()
	bagName := strings.TrimSpace(c.Param("name"))
	if bagName == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bag name required")
		return
	}

	var req SaveCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "verifier required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey := readIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.check.(*services.CheckService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, bagName, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if bag, err2 := repo.GetBag(ctx, svc.DB, bagName); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					result := &services.CheckResult{Bag: bag, Status: bag.Status}
					if bag.NextControl != nil {
						result.NextControl = *bag.NextControl
					}
					ok(c, http.StatusOK, SaveCheckResponse{Result: result})
					return
				}
			}
		}
	}

	result, err := h.check.Save(ctx, services.CheckInput{
		Bag:            bagName,
		Answers:        req.Answers,
		NextItemName:   req.NextItemName,
		NextItemExpiry: req.NextItemExpiry,
		Verifier:       req.Verifier,
		Elapsed:        req.Elapsed,
	})
	if err != nil {
		switch err {
		case services.ErrBagNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "bag not found")
		case services.ErrEmptyName:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bag name required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCheckFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.check.(*services.CheckService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, bagName, idemKey, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, SaveCheckResponse{Result: result})
}

// readIdempotencyKey extracts an idempotency key if an upstream middleware
// has already validated/stashed it. The fallback behavior reads the
// "Idempotency-Key" header directly when no dedicated middleware exists.
func readIdempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}
