package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appmigration "github.com/shopbridge/backend/internal/application/migration"
	"github.com/shopbridge/backend/internal/domain/migration"
	"github.com/shopbridge/backend/internal/interfaces/http/dto"
)

// SessionHandler handles import-session API endpoints
type SessionHandler struct {
	BaseHandler
	importService *appmigration.ImportService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(importService *appmigration.ImportService) *SessionHandler {
	return &SessionHandler{importService: importService}
}

// StartSessionRequest starts an import session from a source product
type StartSessionRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
}

// AdvanceTargetRequest chooses the target configurable SKU
type AdvanceTargetRequest struct {
	SKU   string `json:"sku" binding:"required,min=1,max=64"`
	IsNew bool   `json:"is_new"`
}

// ProductEditRequest applies one product-level edit
type ProductEditRequest struct {
	Field         string   `json:"field" binding:"required"`
	AttributeCode string   `json:"attribute_code"`
	Value         *string  `json:"value"`
	CategoryIDs   []string `json:"category_ids"`
}

// VariantEditRequest applies one variant-level edit
type VariantEditRequest struct {
	Field         string  `json:"field" binding:"required"`
	AttributeCode string  `json:"attribute_code"`
	Value         *string `json:"value"`
}

// PublishRequest publishes the product to additional stores
type PublishRequest struct {
	StoreIDs []string `json:"store_ids" binding:"required,min=1"`
}

// RegisterRoutes registers all import session routes
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Start)
		sessions.GET("/:id", h.Get)
		sessions.PUT("/:id/target", h.AdvanceTarget)
		sessions.PATCH("/:id/product", h.EditProduct)
		sessions.PATCH("/:id/variants/:sku", h.EditVariant)
		sessions.POST("/:id/submit", h.Submit)
		sessions.POST("/:id/publish", h.Publish)
		sessions.DELETE("/:id", h.Cancel)
	}
}

// Start opens a new import session for a Shopify product
func (h *SessionHandler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.importService.StartSession(c.Request.Context(), req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Get returns the current session view
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	view, err := h.importService.GetSession(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AdvanceTarget binds the session to its target configurable SKU. When every
// variant already exists on the target the view is returned alongside a 422
// so the client can render the blocked state.
func (h *SessionHandler) AdvanceTarget(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req AdvanceTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.importService.AdvanceTarget(c.Request.Context(), id, req.SKU, req.IsNew)
	if err != nil {
		if errors.Is(err, migration.ErrAllVariantsImported) && view != nil {
			c.JSON(http.StatusUnprocessableEntity, dto.Response{
				Success: false,
				Data:    view,
				Error:   &dto.ErrorInfo{Code: dto.ErrCodeInvalidState, Message: err.Error()},
			})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// EditProduct applies one product-level mapping edit
func (h *SessionHandler) EditProduct(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req ProductEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.importService.ApplyProductEdit(c.Request.Context(), id, appmigration.ProductEdit{
		Field:         req.Field,
		AttributeCode: req.AttributeCode,
		Value:         req.Value,
		CategoryIDs:   req.CategoryIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// EditVariant applies one variant-level mapping edit
func (h *SessionHandler) EditVariant(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	sku := c.Param("sku")

	var req VariantEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.importService.ApplyVariantEdit(c.Request.Context(), id, appmigration.VariantEdit{
		SKU:           sku,
		Field:         req.Field,
		AttributeCode: req.AttributeCode,
		Value:         req.Value,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Submit drives the submission sequence for a ready session
func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	outcome, err := h.importService.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Publish publishes the finished product to additional stores
func (h *SessionHandler) Publish(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.importService.PublishToStores(c.Request.Context(), id, req.StoreIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Cancel terminates a session and discards its state
func (h *SessionHandler) Cancel(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.importService.Cancel(id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
