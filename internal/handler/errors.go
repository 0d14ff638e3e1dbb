package handler

import (
	"errors"
	"net/http"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP statuses. Unknown errors are
// reported as 500 with fallback as the message.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, common.ErrPageNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Page not found", err)
	case errors.Is(err, common.ErrRevisionNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Revision not found", err)
	case errors.Is(err, common.ErrSessionNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "No open editor session", err)
	case errors.Is(err, common.ErrSlugTaken):
		common.ErrorResponse(c, http.StatusConflict, "Slug already taken", err)
	case errors.Is(err, common.ErrVersionConflict):
		middleware.RecordSaveConflict()
		common.ErrorResponse(c, http.StatusConflict, "Page was changed since the editor opened", err)
	case errors.Is(err, common.ErrPageLocked):
		common.ErrorResponse(c, http.StatusLocked, "Page is being edited by another member", err)
	case errors.Is(err, common.ErrUnknownBlockType):
		common.ErrorResponse(c, http.StatusBadRequest, "Unknown block type", err)
	case errors.Is(err, common.ErrInvalidDocument):
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document", err)
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid input", err)
	default:
		_ = c.Error(err)
		common.ErrorResponse(c, http.StatusInternalServerError, fallback, err)
	}
}

// memberID returns the authenticated member or writes 401
func memberID(c *gin.Context) (string, bool) {
	id := middleware.GetUserID(c)
	if id == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "로그인이 필요합니다", common.ErrUnauthorized)
		return "", false
	}
	return id, true
}
