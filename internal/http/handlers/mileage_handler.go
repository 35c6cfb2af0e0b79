// Mileage HTTP handlers.
//
// This file exposes the vehicle mileage endpoints:
//   - PUT /mileage   (record a reading for a bag's vehicle, last write wins)
//   - GET /mileage   (all current readings keyed by sanitized bag name)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
)

// SaveMileageRequest is the JSON payload for recording a mileage reading.
type SaveMileageRequest struct {
	Bag  string  `json:"bag" binding:"required,min=1" example:"VLI 1"`
	Km   float64 `json:"km" example:"48250"`
	Date string  `json:"date" example:"2026-08-29"`
}

// MileagesResponse maps sanitized bag names to their latest reading.
type MileagesResponse struct {
	Mileages map[string]domain.MileageRecord `json:"mileages"`
}

// SaveMileage godoc
// @ID          saveMileage
// @Summary     Record a mileage reading
// @Description Stores the reading under the bag's sanitized name; last write wins.
// @Tags        Mileage
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SaveMileageRequest  true  "Reading"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /mileage [put]
func (h *Handlers) SaveMileage(c *gin.Context) {
	var req SaveMileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bag required")
		return
	}
	if err := h.mileage.Save(c.Request.Context(), req.Bag, req.Km, req.Date); err != nil {
		switch err {
		case services.ErrEmptyName, services.ErrInvalidMileage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// ListMileages godoc
// @ID          listMileages
// @Summary     All current mileage readings
// @Tags        Mileage
// @Produce     json
//
// @Success     200  {object}  handlers.MileagesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /mileage [get]
func (h *Handlers) ListMileages(c *gin.Context) {
	m, err := h.mileage.All(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, MileagesResponse{Mileages: m})
}
