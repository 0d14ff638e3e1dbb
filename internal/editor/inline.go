package editor

// EditKey is a key the inline editor reacts to
type EditKey string

const (
	KeyEnter  EditKey = "enter"
	KeyEscape EditKey = "escape"
	// KeyConfirm commits any field, multi-line ones included
	KeyConfirm EditKey = "mod+enter"
)

// LineBreak is inserted by a modified confirm key
const LineBreak = "<br>"

// InlineEdit is an in-place edit of one text field of one block.
// The pre-edit value is kept until the edit is committed or cancelled.
type InlineEdit struct {
	session   *Session
	blockID   string
	field     string
	original  string
	current   string
	multiline bool
	active    bool
}

// BeginEdit enters edit mode on a text field. Only fields the registry
// declares as text-editable qualify. An edit already open elsewhere is
// committed first.
func (s *Session) BeginEdit(blockID, field string) (*InlineEdit, bool) {
	if s.closed || s.mode != ModeEdit {
		return nil, false
	}
	b, ok := FindByID(s.Document(), blockID)
	if !ok {
		return nil, false
	}
	multiline, ok := s.registry.TextField(b.Type, field)
	if !ok {
		return nil, false
	}
	if s.inline != nil {
		if s.inline.blockID == blockID && s.inline.field == field {
			return s.inline, true
		}
		s.inline.Commit()
	}

	value := FieldString(s.registry, b, field)
	s.inline = &InlineEdit{
		session:   s,
		blockID:   blockID,
		field:     field,
		original:  value,
		current:   value,
		multiline: multiline,
		active:    true,
	}
	s.SelectBlock(blockID)
	return s.inline, true
}

func (e *InlineEdit) BlockID() string  { return e.blockID }
func (e *InlineEdit) Field() string    { return e.field }
func (e *InlineEdit) Value() string    { return e.current }
func (e *InlineEdit) Original() string { return e.original }
func (e *InlineEdit) Active() bool     { return e.active }
func (e *InlineEdit) Multiline() bool  { return e.multiline }

// Input replaces the editable region's content
func (e *InlineEdit) Input(value string) {
	if !e.active {
		return
	}
	e.current = value
}

// Key handles a key press and reports whether edit mode is still active.
// Escape restores the pre-edit value. Enter commits a single-line field;
// shift+enter, and enter on multi-line fields, insert a line break.
// mod+enter commits either kind.
func (e *InlineEdit) Key(k EditKey, shift bool) bool {
	if !e.active {
		return false
	}
	switch k {
	case KeyEscape:
		e.Cancel()
	case KeyConfirm:
		e.Commit()
	case KeyEnter:
		if shift || e.multiline {
			e.current += LineBreak
			return true
		}
		e.Commit()
	}
	return e.active
}

// Blur commits, as losing focus does
func (e *InlineEdit) Blur() bool {
	return e.Commit()
}

// Commit writes the current value into the block and exits edit mode.
// It reports whether the document changed; an unchanged value or a block
// deleted meanwhile records nothing.
func (e *InlineEdit) Commit() bool {
	if !e.active {
		return false
	}
	e.exit()
	if e.current == e.original {
		return false
	}
	return e.session.UpdateField(e.blockID, e.field, e.current)
}

// Cancel restores the pre-edit value and exits without touching history
func (e *InlineEdit) Cancel() {
	if !e.active {
		return
	}
	e.current = e.original
	e.exit()
}

func (e *InlineEdit) exit() {
	e.active = false
	if e.session.inline == e {
		e.session.inline = nil
	}
}
