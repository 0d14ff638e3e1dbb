package editor

import "errors"

// Load errors. Mutations never return these: a mutation that cannot apply
// leaves the document unchanged and reports false.
var (
	// ErrMalformedDocument indicates the serialized document is not a JSON
	// array.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrDuplicateID indicates the same block id appears twice.
	ErrDuplicateID = errors.New("duplicate block id")

	// ErrMissingID indicates a block without an id.
	ErrMissingID = errors.New("block without id")

	// ErrNestedContainer indicates a container block inside a slot.
	ErrNestedContainer = errors.New("container block nested in a slot")
)

// Session errors
var (
	// ErrSessionClosed is returned by Save after Close.
	ErrSessionClosed = errors.New("editor session closed")

	// ErrNoSaver indicates the session was opened without a save collaborator.
	ErrNoSaver = errors.New("no save collaborator configured")
)
