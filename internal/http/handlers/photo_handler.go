// Photo HTTP handlers.
//
// This file exposes REST endpoints for the two photo families:
//   - POST   /photos                (upload a verification photo for a slot)
//   - GET    /photos                (list a slot's photos, newest first)
//   - GET    /photos/latest         (most recent photo of a slot)
//   - GET    /photos/events         (append-only photo event log)
//   - GET    /photos/{id}           (serve the JPEG blob)
//   - DELETE /photos/{id}           (soft delete to trash)
//   - POST   /impacts               (upload a vehicle impact photo)
//   - GET    /impacts/{bag}         (list a bag's impact photos)
//   - DELETE /impacts/{id}          (soft delete, same store)
//   - PUT    /impacts/{id}/comment  (rewrite an impact comment)
//
// Clients submit photo bytes as base64 in JSON, optionally with a data-URL
// prefix, which matches how browser canvas exports arrive.
package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
	"github.com/tmercier/go-bagcheck-backend/internal/utils"
)

//
// DTOs
//

// UploadPhotoRequest is the JSON payload for a verification photo upload.
type UploadPhotoRequest struct {
	Category string `json:"category" binding:"required,min=1" example:"VLI"`
	Bag      string `json:"bag"      binding:"required,min=1" example:"VLI 1"`
	Section  string `json:"section"  binding:"required,min=1" example:"POCHETTE PERFUSION (ROUGE)"`
	// Data is the base64-encoded JPEG, with or without a data-URL prefix.
	Data string `json:"data" binding:"required,min=1"`
}

// UploadImpactRequest is the JSON payload for an impact photo upload.
type UploadImpactRequest struct {
	Bag     string `json:"bag" binding:"required,min=1" example:"VLI 1"`
	Comment string `json:"comment" example:"Rayure aile arrière droite"`
	// Data is the base64-encoded JPEG, with or without a data-URL prefix.
	Data string `json:"data" binding:"required,min=1"`
}

// UpdateImpactCommentRequest is the JSON payload for rewriting a comment.
type UpdateImpactCommentRequest struct {
	Comment string `json:"comment" example:"Rayure constatée le 12/03"`
}

// PhotoListResponse wraps a list of photo records.
type PhotoListResponse struct {
	Photos []photos.Photo `json:"photos"`
}

// PhotoEventsResponse wraps the photo event log, newest first.
type PhotoEventsResponse struct {
	Events []services.PhotoEvent `json:"events"`
}

//
// Helpers
//

// decodePhotoData decodes base64 photo bytes, tolerating a data-URL prefix
// ("data:image/jpeg;base64,....") and standard or URL-safe alphabets.
func decodePhotoData(s string) ([]byte, bool) {
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	return nil, false
}

// slotParams reads the (category, bag, section) slot from query parameters.
func slotParams(c *gin.Context) (category, bag, section string, ok bool) {
	category = strings.TrimSpace(c.Query("category"))
	bag = strings.TrimSpace(c.Query("bag"))
	section = strings.TrimSpace(c.Query("section"))
	return category, bag, section, category != "" && bag != "" && section != ""
}

//
// Verification photos
//

// UploadPhoto godoc
// @ID          uploadPhoto
// @Summary     Upload a verification photo
// @Description Stores a photo for a (category, bag, section) slot and updates the presence map.
// @Tags        Photos
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UploadPhotoRequest  true  "Photo payload (base64 JPEG)"
//
// @Success     201  {object}  photos.Photo
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /photos [post]
func (h *Handlers) UploadPhoto(c *gin.Context) {
	var req UploadPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category, bag, section and data required")
		return
	}
	data, okData := decodePhotoData(req.Data)
	if !okData {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "data must be base64")
		return
	}

	photo, err := h.photos.SaveVerification(c.Request.Context(), req.Category, req.Bag, req.Section, data)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, photo)
}

// ListPhotos godoc
// @ID          listPhotos
// @Summary     List a slot's verification photos
// @Description Returns the photos of a (category, bag, section) slot, newest first.
// @Tags        Photos
// @Produce     json
//
// @Param       category  query  string  true  "Category"  example(VLI)
// @Param       bag       query  string  true  "Bag name"  example(VLI 1)
// @Param       section   query  string  true  "Section"   example(POCHETTE PERFUSION (ROUGE))
//
// @Success     200  {object}  handlers.PhotoListResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /photos [get]
func (h *Handlers) ListPhotos(c *gin.Context) {
	category, bag, section, okParams := slotParams(c)
	if !okParams {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category, bag and section query params required")
		return
	}
	items, err := h.photos.ListVerification(c.Request.Context(), category, bag, section)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PhotoListResponse{Photos: items})
}

// LatestPhoto godoc
// @ID          latestPhoto
// @Summary     Most recent photo of a slot
// @Tags        Photos
// @Produce     json
//
// @Param       category  query  string  true  "Category"  example(VLI)
// @Param       bag       query  string  true  "Bag name"  example(VLI 1)
// @Param       section   query  string  true  "Section"   example(POCHETTE PERFUSION (ROUGE))
//
// @Success     200  {object}  photos.Photo
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No photo for slot"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /photos/latest [get]
func (h *Handlers) LatestPhoto(c *gin.Context) {
	category, bag, section, okParams := slotParams(c)
	if !okParams {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category, bag and section query params required")
		return
	}
	photo, err := h.photos.LatestVerification(c.Request.Context(), category, bag, section)
	if err != nil {
		switch err {
		case services.ErrPhotoNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no photo for slot")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, photo)
}

// PhotoFile godoc
// @ID          photoFile
// @Summary     Serve a photo blob
// @Description Streams the JPEG bytes of a photo of either family.
// @Tags        Photos
// @Produce     jpeg
//
// @Param       id  path  string  true  "Photo file name"  example(PHOTO_VLI_VLI_1_POCHE_1730000000000.jpg)
//
// @Success     200  {file}    file                    "JPEG bytes"
// @Failure     404  {object}  handlers.ErrorResponse  "Photo not found"
// @Router      /photos/{id} [get]
func (h *Handlers) PhotoFile(c *gin.Context) {
	f, err := h.photos.File(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch err {
		case services.ErrPhotoNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "photo not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), "image/jpeg", f, nil)
}

// DeletePhoto godoc
// @ID          deletePhoto
// @Summary     Delete a photo
// @Description Soft-deletes a photo (moved to trash) and updates the presence map.
// @Tags        Photos
// @Produce     json
//
// @Param       id  path  string  true  "Photo file name"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Photo not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /photos/{id} [delete]
func (h *Handlers) DeletePhoto(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		switch err {
		case services.ErrPhotoNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "photo not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// PhotoEvents godoc
// @ID          photoEvents
// @Summary     Photo event log
// @Description Returns the append-only add/modify/delete log, newest first.
// @Tags        Photos
// @Produce     json
//
// @Param       limit  query  int  false  "Maximum entries returned (default 200)"  minimum(1)
//
// @Success     200  {object}  handlers.PhotoEventsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /photos/events [get]
func (h *Handlers) PhotoEvents(c *gin.Context) {
	events, err := h.photos.Events(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 200)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	ok(c, http.StatusOK, PhotoEventsResponse{Events: events})
}

//
// Impact photos
//

// UploadImpact godoc
// @ID          uploadImpact
// @Summary     Upload a vehicle impact photo
// @Tags        Impacts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UploadImpactRequest  true  "Impact payload (base64 JPEG)"
//
// @Success     201  {object}  photos.Photo
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /impacts [post]
func (h *Handlers) UploadImpact(c *gin.Context) {
	var req UploadImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bag and data required")
		return
	}
	data, okData := decodePhotoData(req.Data)
	if !okData {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "data must be base64")
		return
	}

	photo, err := h.photos.SaveImpact(c.Request.Context(), req.Bag, req.Comment, data)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, photo)
}

// ListImpacts godoc
// @ID          listImpacts
// @Summary     List a bag's impact photos
// @Tags        Impacts
// @Produce     json
//
// @Param       bag  path  string  true  "Bag name"  example(VLI 1)
//
// @Success     200  {object}  handlers.PhotoListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /impacts/{bag} [get]
func (h *Handlers) ListImpacts(c *gin.Context) {
	items, err := h.photos.ListImpacts(c.Request.Context(), c.Param("bag"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PhotoListResponse{Photos: items})
}

// UpdateImpactComment godoc
// @ID          updateImpactComment
// @Summary     Rewrite an impact photo comment
// @Tags        Impacts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                                 true  "Impact file name"
// @Param       body  body  handlers.UpdateImpactCommentRequest    true  "New comment"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Photo not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /impacts/{id}/comment [put]
func (h *Handlers) UpdateImpactComment(c *gin.Context) {
	var req UpdateImpactCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.photos.UpdateImpactComment(c.Request.Context(), c.Param("id"), req.Comment); err != nil {
		switch err {
		case services.ErrPhotoNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "photo not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
