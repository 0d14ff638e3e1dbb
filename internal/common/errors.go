package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrForbidden = errors.New("forbidden")

	// Page errors
	ErrPageNotFound     = errors.New("page not found")
	ErrSlugTaken        = errors.New("page slug already in use")
	ErrVersionConflict  = errors.New("page was saved by someone else")
	ErrInvalidDocument  = errors.New("invalid page document")
	ErrRevisionNotFound = errors.New("revision not found")

	// Editor errors
	ErrPageLocked       = errors.New("page is being edited by another member")
	ErrSessionNotFound  = errors.New("no open editor session for page")
	ErrUnknownBlockType = errors.New("unknown block type")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
)
