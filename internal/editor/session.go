package editor

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/rs/zerolog"
)

// Saver persists a document. The session hands it the current snapshot and
// reports its error unchanged.
type Saver interface {
	Save(ctx context.Context, doc Document) error
}

// SaverFunc adapts a function to Saver
type SaverFunc func(ctx context.Context, doc Document) error

func (f SaverFunc) Save(ctx context.Context, doc Document) error { return f(ctx, doc) }

// ViewMode switches between editing and previewing the page
type ViewMode string

const (
	ModeEdit    ViewMode = "edit"
	ModePreview ViewMode = "preview"
)

// Change kinds delivered to observers
const (
	ChangeEdit      = "edit"
	ChangeUndo      = "undo"
	ChangeRedo      = "redo"
	ChangeSelection = "selection"
	ChangeSaved     = "saved"
	ChangeMode      = "mode"
	ChangeClosed    = "closed"
)

// Change is delivered to the observer after every state change
type Change struct {
	Kind     string   `json:"kind"`
	Command  string   `json:"command,omitempty"`
	Document Document `json:"document"`
	Selected string   `json:"selected,omitempty"`
	Revision int      `json:"revision"`
	Dirty    bool     `json:"dirty"`
}

// Options configures a Session
type Options struct {
	Registry               *Registry
	Saver                  Saver
	Observer               func(Change)
	HistoryLimit           int
	DragActivationDistance float64
	Logger                 *zerolog.Logger
}

// Session is one open editor over one document. It is not safe for
// concurrent use; callers serialize commands.
type Session struct {
	registry *Registry
	history  *History
	saver    Saver
	observer func(Change)
	log      zerolog.Logger
	drag     *DragEngine
	keymap   Keymap

	selected string
	mode     ViewMode
	savedRev int
	inline   *InlineEdit
	closed   bool
}

// NewSession opens a session over initial, which becomes the first history
// entry and counts as saved.
func NewSession(initial Document, opts Options) *Session {
	s := &Session{
		registry: opts.Registry,
		saver:    opts.Saver,
		observer: opts.Observer,
		keymap:   DefaultKeymap(),
		mode:     ModeEdit,
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = zerolog.Nop()
	}
	s.history = NewHistory(initial, opts.HistoryLimit)
	s.savedRev = s.history.Revision()
	s.drag = NewDragEngine(s, opts.DragActivationDistance)
	return s
}

// Document returns the current document
func (s *Session) Document() Document { return s.history.Current() }

// Selected returns the selected block id ("" when none)
func (s *Session) Selected() string { return s.selected }

func (s *Session) Mode() ViewMode       { return s.mode }
func (s *Session) History() *History    { return s.history }
func (s *Session) Drag() *DragEngine    { return s.drag }
func (s *Session) Registry() *Registry  { return s.registry }
func (s *Session) Closed() bool         { return s.closed }
func (s *Session) Editing() *InlineEdit { return s.inline }
func (s *Session) CanUndo() bool        { return s.history.CanUndo() }
func (s *Session) CanRedo() bool        { return s.history.CanRedo() }
func (s *Session) Dirty() bool          { return s.history.Revision() != s.savedRev }

// Snapshot serializes the current document
func (s *Session) Snapshot() ([]byte, error) {
	return json.Marshal(s.history.Current())
}

// SelectBlock selects id. Ids absent from the document leave the selection
// unchanged.
func (s *Session) SelectBlock(id string) bool {
	if s.closed {
		return false
	}
	if _, ok := FindByID(s.Document(), id); !ok {
		return false
	}
	if s.selected == id {
		return true
	}
	s.selected = id
	s.notify(ChangeSelection, "select")
	return true
}

// ClearSelection deselects
func (s *Session) ClearSelection() {
	if s.closed || s.selected == "" {
		return
	}
	s.selected = ""
	s.notify(ChangeSelection, "deselect")
}

// AddBlock appends a new block of type t at the top level and selects it
func (s *Session) AddBlock(t BlockType) (string, bool) {
	return s.AddBlockTo(t, TopLevel)
}

// AddBlockTo appends a new block of type t to the addressed list and
// selects it
func (s *Session) AddBlockTo(t BlockType, target SlotRef) (string, bool) {
	if s.closed {
		return "", false
	}
	b, ok := s.registry.NewBlock(t)
	if !ok {
		s.log.Debug().Str("type", string(t)).Msg("add: unknown block type")
		return "", false
	}
	next, ok := InsertAt(s.Document(), target, b)
	if !ok {
		s.log.Debug().Str("type", string(t)).Str("target", target.String()).Msg("add: rejected")
		return "", false
	}
	s.selected = b.ID
	s.commit("add", next)
	return b.ID, true
}

// UpdateField sets one content field of id. Structural fields of containers
// (slot lists and counts) cannot be set this way. Setting a field to the
// value it already has records nothing.
func (s *Session) UpdateField(id, field string, value any) bool {
	if s.closed || field == "" {
		return false
	}
	cur, ok := FindByID(s.Document(), id)
	if !ok {
		return false
	}
	if shape, isContainer := containerShapes[cur.Type]; isContainer &&
		(field == shape.slotKey || field == shape.countKey) {
		return false
	}
	if old, exists := cur.Content[field]; exists && reflect.DeepEqual(old, value) {
		return false
	}
	next, ok := Replace(s.Document(), id, func(b Block) Block {
		b.Content = b.Content.With(field, value)
		return b
	})
	if !ok {
		return false
	}
	s.commit("update", next)
	return true
}

// UpdateSelectedField is UpdateField on the selected block
func (s *Session) UpdateSelectedField(field string, value any) bool {
	return s.UpdateField(s.selected, field, value)
}

// DeleteBlock removes id (and everything nested in it)
func (s *Session) DeleteBlock(id string) bool {
	if s.closed {
		return false
	}
	next, ok := Remove(s.Document(), id)
	if !ok {
		return false
	}
	s.commit("delete", next)
	return true
}

// DeleteSelected removes the selected block and clears the selection
func (s *Session) DeleteSelected() bool {
	if !s.DeleteBlock(s.selected) {
		return false
	}
	s.selected = ""
	return true
}

// DuplicateBlock copies id right after itself and selects the copy
func (s *Session) DuplicateBlock(id string) (string, bool) {
	if s.closed {
		return "", false
	}
	next, cloneID, ok := duplicateWith(s.Document(), id, s.registry.newID)
	if !ok {
		return "", false
	}
	s.selected = cloneID
	s.commit("duplicate", next)
	return cloneID, true
}

// DuplicateSelected duplicates the selected block
func (s *Session) DuplicateSelected() (string, bool) {
	return s.DuplicateBlock(s.selected)
}

// Reorder moves sourceID to targetID's position (see Reorder)
func (s *Session) Reorder(sourceID, targetID string) bool {
	if s.closed {
		return false
	}
	next, ok := Reorder(s.Document(), sourceID, targetID)
	if !ok {
		return false
	}
	s.commit("reorder", next)
	return true
}

// MoveAcross moves sourceID to the end of the slot "<containerId>:<index>".
// An empty key addresses the top level.
func (s *Session) MoveAcross(sourceID, targetKey string) bool {
	if s.closed {
		return false
	}
	target := TopLevel
	if targetKey != "" {
		ref, ok := ParseSlotKey(targetKey)
		if !ok {
			return false
		}
		target = ref
	}
	next, ok := MoveAcross(s.Document(), sourceID, target)
	if !ok {
		return false
	}
	s.commit("move", next)
	return true
}

// Undo steps back one history entry
func (s *Session) Undo() bool {
	if s.closed {
		return false
	}
	if _, ok := s.history.Undo(); !ok {
		return false
	}
	s.dropStaleSelection()
	s.notify(ChangeUndo, "undo")
	return true
}

// Redo steps forward one history entry
func (s *Session) Redo() bool {
	if s.closed {
		return false
	}
	if _, ok := s.history.Redo(); !ok {
		return false
	}
	s.dropStaleSelection()
	s.notify(ChangeRedo, "redo")
	return true
}

// SetMode switches between edit and preview. Leaving edit mode commits an
// open inline edit and aborts a drag.
func (s *Session) SetMode(m ViewMode) bool {
	if s.closed || (m != ModeEdit && m != ModePreview) || m == s.mode {
		return false
	}
	if m == ModePreview {
		if s.inline != nil {
			s.inline.Commit()
		}
		s.drag.Cancel()
	}
	s.mode = m
	s.notify(ChangeMode, string(m))
	return true
}

// ToggleMode flips between edit and preview
func (s *Session) ToggleMode() ViewMode {
	if s.mode == ModeEdit {
		s.SetMode(ModePreview)
	} else {
		s.SetMode(ModeEdit)
	}
	return s.mode
}

// Save hands the current snapshot to the save collaborator
func (s *Session) Save(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.saver == nil {
		return ErrNoSaver
	}
	rev := s.history.Revision()
	if err := s.saver.Save(ctx, s.Document()); err != nil {
		s.log.Warn().Err(err).Int("revision", rev).Msg("save failed")
		return err
	}
	s.savedRev = rev
	s.notify(ChangeSaved, "save")
	return nil
}

// Close ends the session. An open inline edit is committed first; every
// later command is a no-op.
func (s *Session) Close() {
	if s.closed {
		return
	}
	if s.inline != nil {
		s.inline.Commit()
	}
	s.drag.Cancel()
	s.notify(ChangeClosed, "close")
	s.closed = true
	s.selected = ""
}

func (s *Session) commit(command string, next Document) {
	s.history.Push(next)
	s.dropStaleSelection()
	s.log.Debug().
		Str("command", command).
		Int("revision", s.history.Revision()).
		Int("blocks", CountAll(next)).
		Msg("document changed")
	s.notify(ChangeEdit, command)
}

func (s *Session) dropStaleSelection() {
	if s.selected == "" {
		return
	}
	if _, ok := FindByID(s.Document(), s.selected); !ok {
		s.selected = ""
	}
}

func (s *Session) notify(kind, command string) {
	if s.observer == nil {
		return
	}
	s.observer(Change{
		Kind:     kind,
		Command:  command,
		Document: s.Document(),
		Selected: s.selected,
		Revision: s.history.Revision(),
		Dirty:    s.Dirty(),
	})
}
