package handler

import (
	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/gin-gonic/gin"
)

// TemplateHandler serves the block palette
type TemplateHandler struct {
	registry *editor.Registry
}

func NewTemplateHandler(registry *editor.Registry) *TemplateHandler {
	return &TemplateHandler{registry: registry}
}

// List returns every block template in palette order
// GET /api/v1/blocks/templates
func (h *TemplateHandler) List(c *gin.Context) {
	common.SuccessResponse(c, h.registry.Templates(), nil)
}
