package handler

import (
	"net/http"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/service"
	"github.com/damoang/angple-pages/pkg/ginutil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var pageValidator = validator.New()

type PageHandler struct {
	service service.PageService
}

func NewPageHandler(service service.PageService) *PageHandler {
	return &PageHandler{service: service}
}

// ========================================
// Public Endpoints (인증 불필요)
// ========================================

// List lists pages without documents
// GET /api/v1/pages?page=1&limit=20
func (h *PageHandler) List(c *gin.Context) {
	page, limit := ginutil.Pagination(c, 20, 100)

	items, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list pages")
		return
	}
	common.SuccessResponse(c, items, &common.Meta{Page: page, Limit: limit, Total: total})
}

// Get returns a page with its stored document
// GET /api/v1/pages/:id
func (h *PageHandler) Get(c *gin.Context) {
	page, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve page")
		return
	}
	common.SuccessResponse(c, page, nil)
}

// Preview returns the render-ready projection of the stored document
// GET /api/v1/pages/:id/preview
func (h *PageHandler) Preview(c *gin.Context) {
	pageID := c.Param("id")
	views, err := h.service.Preview(c.Request.Context(), pageID)
	if err != nil {
		respondError(c, err, "Failed to render page")
		return
	}
	common.SuccessResponse(c, views, &common.Meta{PageID: pageID})
}

// ========================================
// Editor Endpoints (편집 권한 필요)
// ========================================

// Create creates a page
// POST /api/v1/pages
func (h *PageHandler) Create(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}

	var req domain.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := pageValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	page, err := h.service.Create(c.Request.Context(), &req, member)
	if err != nil {
		respondError(c, err, "Failed to create page")
		return
	}
	common.CreatedResponse(c, page)
}

// Delete removes a page with its revisions and drafts
// DELETE /api/v1/pages/:id
func (h *PageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete page")
		return
	}
	c.Status(http.StatusNoContent)
}

// Revisions lists earlier versions of a page
// GET /api/v1/pages/:id/revisions?limit=20
func (h *PageHandler) Revisions(c *gin.Context) {
	pageID := c.Param("id")
	_, limit := ginutil.Pagination(c, 20, 100)

	items, err := h.service.Revisions(c.Request.Context(), pageID, limit)
	if err != nil {
		respondError(c, err, "Failed to list revisions")
		return
	}
	common.SuccessResponse(c, items, &common.Meta{PageID: pageID, Limit: limit})
}

// Revision returns one earlier version with its document
// GET /api/v1/pages/:id/revisions/:version
func (h *PageHandler) Revision(c *gin.Context) {
	version, err := ginutil.ParamPositiveInt(c, "version")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version", err)
		return
	}

	rev, err := h.service.Revision(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		respondError(c, err, "Failed to retrieve revision")
		return
	}
	common.SuccessResponse(c, rev, nil)
}
