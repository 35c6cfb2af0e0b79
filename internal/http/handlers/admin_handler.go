// Admin HTTP handlers.
//
// This file exposes the management endpoints behind the admin panel:
// bag lifecycle (add, rename, delete, state, recipients, location),
// batch updates, category configuration, form templates, global options,
// mail templates, history correction, batch status recompute, the one-off
// data cleanup, and the manual alert sweep.
//
// Handlers are transport-thin: they validate input, call AdminService, and
// translate sentinel errors into HTTP responses.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
)

//
// DTOs
//

// AddBagRequest is the JSON payload for creating a bag.
type AddBagRequest struct {
	Category string `json:"category" binding:"required,min=1" example:"SAC ISP"`
	Name     string `json:"name"     binding:"required,min=1" example:"SAC ISP 3"`
}

// RenameRequest is the JSON payload for renaming a bag or a category.
type RenameRequest struct {
	NewName string `json:"newName" binding:"required,min=1" example:"VLI 3"`
}

// SetStateRequest is the JSON payload for switching a bag's service state.
type SetStateRequest struct {
	State string `json:"state" binding:"required,oneof=Actif HS" example:"HS"`
}

// SetRecipientRequest is the JSON payload for setting an alert recipient.
type SetRecipientRequest struct {
	Severity string `json:"severity" binding:"required,oneof=orange red" example:"red"`
	Address  string `json:"address" example:"chef.centre@example.org"`
}

// SetLocationRequest is the JSON payload for the single-bag location change.
type SetLocationRequest struct {
	Location string `json:"location" example:"VSAV 2 - coffre gauche"`
}

// BatchLocationsRequest carries a batch of location changes.
type BatchLocationsRequest struct {
	Updates []services.LocationUpdate `json:"updates" binding:"required,min=1"`
}

// BatchOrdersRequest carries a batch of display-order changes.
type BatchOrdersRequest struct {
	Updates []services.OrderUpdate `json:"updates" binding:"required,min=1"`
}

// CreateCategoryRequest is the JSON payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1" example:"SAC PS"`
}

// FrequenciesRequest carries the wholesale category configuration write.
type FrequenciesRequest struct {
	Categories []services.FrequencyUpdate `json:"categories" binding:"required,min=1"`
}

// TemplateRequest carries a category's replacement checklist template.
type TemplateRequest struct {
	Sections []domain.FormSection `json:"sections" binding:"required"`
}

// RecalculateResponse reports how many bags changed status.
type RecalculateResponse struct {
	Changed int `json:"changed"`
}

//
// Helpers
//

// failAdmin maps AdminService sentinel errors onto HTTP responses. Unknown
// errors become 500s.
func failAdmin(c *gin.Context, err error) {
	switch err {
	case services.ErrBagNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "bag not found")
	case services.ErrCategoryNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "category not found")
	case services.ErrHistoryNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "history entry not found")
	case services.ErrDuplicateName:
		fail(c, http.StatusConflict, ErrCodeConflict, "name already in use")
	case services.ErrEmptyName, services.ErrInvalidState, services.ErrInvalidSeverity:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Bags
//

// AddBag godoc
// @ID          addBag
// @Summary     Add a bag
// @Description Creates a bag in a category with the next display order.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AddBagRequest  true  "New bag"
//
// @Success     201  {object}  domain.Bag
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags [post]
func (h *Handlers) AddBag(c *gin.Context) {
	var req AddBagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category and name required")
		return
	}
	bag, err := h.admin.AddBag(c.Request.Context(), req.Category, req.Name)
	if err != nil {
		failAdmin(c, err)
		return
	}
	ok(c, http.StatusCreated, bag)
}

// DeleteBag godoc
// @ID          deleteBag
// @Summary     Delete a bag
// @Description Removes the inventory row. History and photos stay untouched.
// @Tags        Admin
// @Produce     json
//
// @Param       name  path  string  true  "Bag name"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Bag not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/{name} [delete]
func (h *Handlers) DeleteBag(c *gin.Context) {
	if err := h.admin.DeleteBag(c.Request.Context(), c.Param("name")); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// RenameBag godoc
// @ID          renameBag
// @Summary     Rename a bag
// @Description Propagates the new name to history rows and both photo families.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                  true  "Current bag name"
// @Param       body  body  handlers.RenameRequest  true  "New name"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Bag not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/{name}/rename [put]
func (h *Handlers) RenameBag(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "newName required")
		return
	}
	if err := h.admin.RenameBag(c.Request.Context(), c.Param("name"), req.NewName); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// SetBagState godoc
// @ID          setBagState
// @Summary     Switch a bag's service state
// @Description Sets the bag Actif or HS (out of service, excluded from stats and alerts).
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                    true  "Bag name"
// @Param       body  body  handlers.SetStateRequest  true  "New state"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Bag not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/{name}/state [put]
func (h *Handlers) SetBagState(c *gin.Context) {
	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state must be Actif or HS")
		return
	}
	if err := h.admin.SetBagState(c.Request.Context(), c.Param("name"), req.State); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// SetRecipient godoc
// @ID          setRecipient
// @Summary     Set an alert recipient
// @Description Stores the address notified at the given severity for this bag.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                        true  "Bag name"
// @Param       body  body  handlers.SetRecipientRequest  true  "Recipient"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Bag not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/{name}/recipients [put]
func (h *Handlers) SetRecipient(c *gin.Context) {
	var req SetRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "severity must be orange or red")
		return
	}
	if err := h.admin.SetRecipient(c.Request.Context(), c.Param("name"), req.Severity, req.Address); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// SetLocation godoc
// @ID          setLocation
// @Summary     Set a bag's location
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                       true  "Bag name"
// @Param       body  body  handlers.SetLocationRequest  true  "Location"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Bag not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/{name}/location [put]
func (h *Handlers) SetLocation(c *gin.Context) {
	var req SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.admin.SetLocation(c.Request.Context(), c.Param("name"), req.Location); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// SetLocations godoc
// @ID          setLocations
// @Summary     Batch update bag locations
// @Description Applies every entry; unknown bag names are reported, not fatal.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.BatchLocationsRequest  true  "Location updates"
//
// @Success     200  {object}  repo.BatchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/locations [put]
func (h *Handlers) SetLocations(c *gin.Context) {
	var req BatchLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "updates required")
		return
	}
	res, err := h.admin.SetLocations(c.Request.Context(), req.Updates)
	if err != nil {
		failAdmin(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// SetOrders godoc
// @ID          setOrders
// @Summary     Batch update display orders
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.BatchOrdersRequest  true  "Order updates"
//
// @Success     200  {object}  repo.BatchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bags/orders [put]
func (h *Handlers) SetOrders(c *gin.Context) {
	var req BatchOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "updates required")
		return
	}
	res, err := h.admin.SetOrders(c.Request.Context(), req.Updates)
	if err != nil {
		failAdmin(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

//
// Categories and templates
//

// CreateCategory godoc
// @ID          createCategory
// @Summary     Create a category
// @Description Adds a category (name canonicalized to upper case) with the default frequency.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateCategoryRequest  true  "New category"
//
// @Success     201  {object}  domain.Category
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}
	cat, err := h.admin.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		failAdmin(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

// RenameCategory godoc
// @ID          renameCategory
// @Summary     Rename a category
// @Description Propagates the new name to every bag and to the form template map.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                  true  "Current category name"
// @Param       body  body  handlers.RenameRequest  true  "New name"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{name}/rename [put]
func (h *Handlers) RenameCategory(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "newName required")
		return
	}
	if err := h.admin.RenameCategory(c.Request.Context(), c.Param("name"), req.NewName); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// DeleteCategory godoc
// @ID          deleteCategory
// @Summary     Delete a category
// @Description Removes the configuration row, its bags, and its template. History and photos stay.
// @Tags        Admin
// @Produce     json
//
// @Param       name  path  string  true  "Category name"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{name} [delete]
func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.admin.DeleteCategory(c.Request.Context(), c.Param("name")); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// ReplaceFrequencies godoc
// @ID          replaceFrequencies
// @Summary     Rewrite the category configuration
// @Description Replaces the whole category table; the given order becomes the dashboard order.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.FrequenciesRequest  true  "Categories with frequencies"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/frequencies [put]
func (h *Handlers) ReplaceFrequencies(c *gin.Context) {
	var req FrequenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "categories required")
		return
	}
	if err := h.admin.ReplaceCategories(c.Request.Context(), req.Categories); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// ReplaceTemplate godoc
// @ID          replaceTemplate
// @Summary     Replace a category's form template
// @Description Swaps the checklist sections wholesale and regenerates the template map.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       name  path  string                    true  "Category name"
// @Param       body  body  handlers.TemplateRequest  true  "Replacement sections"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{name}/template [put]
func (h *Handlers) ReplaceTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sections required")
		return
	}
	if err := h.admin.ReplaceTemplate(c.Request.Context(), c.Param("name"), req.Sections); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

//
// Settings, history, maintenance
//

// SaveOptions godoc
// @ID          saveOptions
// @Summary     Save global feature toggles
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.GlobalOptions  true  "Feature toggles"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /options [put]
func (h *Handlers) SaveOptions(c *gin.Context) {
	var opts domain.GlobalOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.admin.SaveGlobalOptions(c.Request.Context(), opts); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// SaveMailTemplates godoc
// @ID          saveMailTemplates
// @Summary     Save alert mail templates
// @Description Stores subjects and bodies per severity. Placeholders {nom},
// @Description {categorie}, {date}, {echeance} are substituted at send time.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.MailTemplates  true  "Mail templates"
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /mail-templates [put]
func (h *Handlers) SaveMailTemplates(c *gin.Context) {
	var conf domain.MailTemplates
	if err := c.ShouldBindJSON(&conf); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.admin.SaveMailTemplates(c.Request.Context(), conf); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// DeleteHistoryEntry godoc
// @ID          deleteHistoryEntry
// @Summary     Delete a history entry
// @Description Removes the entry at the given index counting from the newest (0 = most recent).
// @Tags        Admin
// @Produce     json
//
// @Param       index  path  int  true  "Index from newest"  minimum(0)
//
// @Success     204  {string}  string                  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "History entry not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /history/{index} [delete]
func (h *Handlers) DeleteHistoryEntry(c *gin.Context) {
	idx, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil || idx < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "index must be a non-negative integer")
		return
	}
	if err := h.admin.DeleteHistoryEntry(c.Request.Context(), idx); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// Recalculate godoc
// @ID          recalculate
// @Summary     Recompute every bag's status
// @Description Re-runs the traffic-light classification over the whole inventory.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object}  handlers.RecalculateResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/recalculate [post]
func (h *Handlers) Recalculate(c *gin.Context) {
	changed, err := h.admin.RecalculateStatuses(c.Request.Context())
	if err != nil {
		failAdmin(c, err)
		return
	}
	ok(c, http.StatusOK, RecalculateResponse{Changed: changed})
}

// RunCleanup godoc
// @ID          runCleanup
// @Summary     Normalize category names everywhere
// @Description Collapses duplicate categories, canonicalizes names on bags and
// @Description form rows, and regenerates the template map.
// @Tags        Admin
// @Produce     json
//
// @Success     204  {string}  string                  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/cleanup [post]
func (h *Handlers) RunCleanup(c *gin.Context) {
	if err := h.admin.RunCleanup(c.Request.Context()); err != nil {
		failAdmin(c, err)
		return
	}
	noContent(c)
}

// AlertSweep godoc
// @ID          alertSweep
// @Summary     Run the alert sweep now
// @Description Sends expiry alert mails for red/purple and orange bags outside the daily schedule.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object}  services.SweepResult
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/alert-sweep [post]
func (h *Handlers) AlertSweep(c *gin.Context) {
	res, err := h.alerts.Sweep(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSweepFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}
