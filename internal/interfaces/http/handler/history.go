package handler

import (
	"github.com/gin-gonic/gin"

	appmigration "github.com/shopbridge/backend/internal/application/migration"
	"github.com/shopbridge/backend/internal/interfaces/http/dto"
)

// HistoryHandler handles import-history API endpoints
type HistoryHandler struct {
	BaseHandler
	historyService *appmigration.ImportHistoryService
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService *appmigration.ImportHistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// RegisterRoutes registers all import history routes
func (h *HistoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.List)
}

// List returns import history records, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, total, err := h.historyService.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, req.Page, req.PageSize)
}
