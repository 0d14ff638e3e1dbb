package domain

import (
	"encoding/json"

	"github.com/damoang/angple-pages/internal/editor"
)

// OpenEditorRequest opens an editor session. Resume restores the member's
// autosaved draft instead of the stored document.
type OpenEditorRequest struct {
	Resume bool `json:"resume"`
}

// AddBlockRequest appends a block; Target is a slot key, empty for top level
type AddBlockRequest struct {
	Type   string `json:"type" validate:"required"`
	Target string `json:"target"`
}

// UpdateFieldRequest sets one content field
type UpdateFieldRequest struct {
	Field string          `json:"field" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// TargetRequest names a sibling block id (reorder) or a slot key (move)
type TargetRequest struct {
	Target string `json:"target"`
}

// DragRequest replays a recorded pointer gesture
type DragRequest struct {
	Events []editor.PointerEvent `json:"events" validate:"required,min=1,dive"`
}

// KeyRequest dispatches a keyboard chord
type KeyRequest struct {
	Chord string `json:"chord" validate:"required"`
}

// SelectionRequest selects a block; an empty id clears the selection
type SelectionRequest struct {
	BlockID string `json:"block_id"`
}

// ModeRequest switches the view mode
type ModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=edit preview"`
}

// InlineEditRequest edits one text field in place: the value is typed into
// the field and the edit is then committed or cancelled.
type InlineEditRequest struct {
	BlockID string `json:"block_id" validate:"required"`
	Field   string `json:"field" validate:"required"`
	Value   string `json:"value"`
	Action  string `json:"action" validate:"required,oneof=commit cancel"`
}

// EditorState is returned by every editor command
type EditorState struct {
	PageID   string `json:"page_id"`
	Changed  bool   `json:"changed"`
	Selected string `json:"selected"`
	Mode     string `json:"mode"`
	CanUndo  bool   `json:"can_undo"`
	CanRedo  bool   `json:"can_redo"`
	Dirty    bool   `json:"dirty"`
	Revision int    `json:"revision"`
	// Version is the stored page version the session saves over
	Version  int                `json:"version"`
	Command  string             `json:"command,omitempty"`
	Drop     *editor.DropResult `json:"drop,omitempty"`
	Document editor.Document    `json:"document"`
}
