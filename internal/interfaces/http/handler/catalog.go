package handler

import (
	"github.com/gin-gonic/gin"

	appmigration "github.com/shopbridge/backend/internal/application/migration"
	"github.com/shopbridge/backend/internal/interfaces/http/dto"
)

// CatalogHandler handles target-catalog API endpoints: attribute listing,
// candidate search, option creation and store listing.
type CatalogHandler struct {
	BaseHandler
	importService *appmigration.ImportService
	catalogs      appmigration.CatalogSource
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(importService *appmigration.ImportService, catalogs appmigration.CatalogSource) *CatalogHandler {
	return &CatalogHandler{importService: importService, catalogs: catalogs}
}

// CreateOptionRequest creates a new option value for a select attribute
type CreateOptionRequest struct {
	Label string `json:"label" binding:"required,min=1,max=200"`
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/catalog")
	{
		catalog.GET("/attributes", h.ListAttributes)
		catalog.GET("/categories", h.ListCategories)
		catalog.GET("/candidates", h.SearchCandidates)
		catalog.GET("/stores", h.ListStores)
	}
	rg.GET("/source/products", h.ListSourceProducts)
	rg.POST("/sessions/:id/attributes/:code/options", h.CreateOption)
}

// ListAttributes returns the target attribute set
func (h *CatalogHandler) ListAttributes(c *gin.Context) {
	defs, err := h.catalogs.FetchAttributeCatalog(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defs)
}

// ListCategories returns the flattened target category tree
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	nodes, err := h.catalogs.FetchCategoryForest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nodes)
}

// SearchCandidates searches existing configurable products by name
func (h *CatalogHandler) SearchCandidates(c *gin.Context) {
	hint := c.Query("q")

	candidates, err := h.importService.SearchCandidates(c.Request.Context(), hint)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}

// CreateOption creates a new option value for a select attribute within a
// session, so the new value is immediately usable in mappings.
func (h *CatalogHandler) CreateOption(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	attributeCode := c.Param("code")

	var req CreateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	opt, err := h.importService.CreateAttributeOption(c.Request.Context(), sessionID, attributeCode, req.Label)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, opt)
}

// ListSourceProducts returns a page of source products for selection
func (h *CatalogHandler) ListSourceProducts(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	products, err := h.importService.ListSourceProducts(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// ListStores returns the additional stores available for publication
func (h *CatalogHandler) ListStores(c *gin.Context) {
	stores, err := h.importService.ListStores(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stores)
}
