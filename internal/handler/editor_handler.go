package handler

import (
	"net/http"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/middleware"
	"github.com/damoang/angple-pages/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var editorValidator = validator.New()

// EditorHandler exposes editor sessions. Every command answers with the
// session state after the command.
type EditorHandler struct {
	service *service.EditorService
}

func NewEditorHandler(service *service.EditorService) *EditorHandler {
	return &EditorHandler{service: service}
}

// bind decodes and validates the request body into req
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := editorValidator.Struct(req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *EditorHandler) respond(c *gin.Context, command string, st *domain.EditorState, err error) {
	if err != nil {
		respondError(c, err, "Editor command failed")
		return
	}
	middleware.RecordEditorCommand(command, st.Changed)
	common.SuccessResponse(c, st, &common.Meta{PageID: st.PageID})
}

// ========================================
// Session
// ========================================

// Open opens (or rejoins) the member's editor session
// POST /api/v1/pages/:id/editor
func (h *EditorHandler) Open(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.OpenEditorRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	st, err := h.service.Open(c.Request.Context(), c.Param("id"), member, req.Resume)
	middleware.SetEditorSessions(h.service.OpenSessions())
	h.respond(c, "open", st, err)
}

// Close ends the member's session
// DELETE /api/v1/pages/:id/editor
func (h *EditorHandler) Close(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.Close(c.Request.Context(), c.Param("id"), member)
	middleware.SetEditorSessions(h.service.OpenSessions())
	h.respond(c, "close", st, err)
}

// Snapshot returns the session state and document
// GET /api/v1/pages/:id/editor/snapshot
func (h *EditorHandler) Snapshot(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.State(c.Request.Context(), c.Param("id"), member)
	if err != nil {
		respondError(c, err, "Failed to read editor state")
		return
	}
	common.SuccessResponse(c, st, &common.Meta{PageID: st.PageID})
}

// Preview projects the unsaved session document
// GET /api/v1/pages/:id/editor/preview
func (h *EditorHandler) Preview(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	pageID := c.Param("id")
	views, err := h.service.Preview(pageID, member)
	if err != nil {
		respondError(c, err, "Failed to render editor preview")
		return
	}
	common.SuccessResponse(c, views, &common.Meta{PageID: pageID})
}

// ========================================
// Block commands
// ========================================

// AddBlock POST /api/v1/pages/:id/editor/blocks
func (h *EditorHandler) AddBlock(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.AddBlockRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.AddBlock(c.Request.Context(), c.Param("id"), member, &req)
	h.respond(c, "add", st, err)
}

// UpdateField PATCH /api/v1/pages/:id/editor/blocks/:blockId
func (h *EditorHandler) UpdateField(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.UpdateFieldRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.UpdateField(c.Request.Context(), c.Param("id"), member, c.Param("blockId"), &req)
	h.respond(c, "update", st, err)
}

// DeleteBlock DELETE /api/v1/pages/:id/editor/blocks/:blockId
func (h *EditorHandler) DeleteBlock(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.DeleteBlock(c.Request.Context(), c.Param("id"), member, c.Param("blockId"))
	h.respond(c, "delete", st, err)
}

// DuplicateBlock POST /api/v1/pages/:id/editor/blocks/:blockId/duplicate
func (h *EditorHandler) DuplicateBlock(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.DuplicateBlock(c.Request.Context(), c.Param("id"), member, c.Param("blockId"))
	h.respond(c, "duplicate", st, err)
}

// Reorder POST /api/v1/pages/:id/editor/blocks/:blockId/reorder
func (h *EditorHandler) Reorder(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.TargetRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Reorder(c.Request.Context(), c.Param("id"), member, c.Param("blockId"), req.Target)
	h.respond(c, "reorder", st, err)
}

// Move POST /api/v1/pages/:id/editor/blocks/:blockId/move
func (h *EditorHandler) Move(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.TargetRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Move(c.Request.Context(), c.Param("id"), member, c.Param("blockId"), req.Target)
	h.respond(c, "move", st, err)
}

// Drag replays a pointer gesture
// POST /api/v1/pages/:id/editor/drag
func (h *EditorHandler) Drag(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.DragRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Drag(c.Request.Context(), c.Param("id"), member, req.Events)
	h.respond(c, "drag", st, err)
}

// ========================================
// History, save and view
// ========================================

// Undo POST /api/v1/pages/:id/editor/undo
func (h *EditorHandler) Undo(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.Undo(c.Request.Context(), c.Param("id"), member)
	h.respond(c, "undo", st, err)
}

// Redo POST /api/v1/pages/:id/editor/redo
func (h *EditorHandler) Redo(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.Redo(c.Request.Context(), c.Param("id"), member)
	h.respond(c, "redo", st, err)
}

// Save POST /api/v1/pages/:id/editor/save
func (h *EditorHandler) Save(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	st, err := h.service.Save(c.Request.Context(), c.Param("id"), member)
	h.respond(c, "save", st, err)
}

// Key POST /api/v1/pages/:id/editor/keys
func (h *EditorHandler) Key(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.KeyRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Key(c.Request.Context(), c.Param("id"), member, req.Chord)
	h.respond(c, "key", st, err)
}

// Select PUT /api/v1/pages/:id/editor/selection
func (h *EditorHandler) Select(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.SelectionRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Select(c.Request.Context(), c.Param("id"), member, req.BlockID)
	h.respond(c, "select", st, err)
}

// SetMode PUT /api/v1/pages/:id/editor/mode
func (h *EditorHandler) SetMode(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.ModeRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.SetMode(c.Request.Context(), c.Param("id"), member, req.Mode)
	h.respond(c, "mode", st, err)
}

// Inline POST /api/v1/pages/:id/editor/inline
func (h *EditorHandler) Inline(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req domain.InlineEditRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.InlineEdit(c.Request.Context(), c.Param("id"), member, &req)
	h.respond(c, "inline", st, err)
}
