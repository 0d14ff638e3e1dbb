package editor

type historyEntry struct {
	doc Document
	rev int
}

// History is a linear undo/redo list of whole-document snapshots.
// Pushing after an undo drops the redo branch.
type History struct {
	entries []historyEntry
	cursor  int
	limit   int
	nextRev int
}

// NewHistory seeds a history with the initial document. limit caps the
// number of kept entries; 0 keeps everything.
func NewHistory(initial Document, limit int) *History {
	if initial == nil {
		initial = Document{}
	}
	if limit < 0 {
		limit = 0
	}
	return &History{
		entries: []historyEntry{{doc: initial, rev: 0}},
		limit:   limit,
		nextRev: 1,
	}
}

// Push truncates everything after the cursor, appends doc and moves the
// cursor onto it.
func (h *History) Push(doc Document) {
	h.entries = append(h.entries[:h.cursor+1], historyEntry{doc: doc, rev: h.nextRev})
	h.nextRev++
	h.cursor = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		kept := make([]historyEntry, h.limit)
		copy(kept, h.entries[drop:])
		h.entries = kept
		h.cursor -= drop
	}
}

// Undo steps the cursor back. At the oldest entry it is a no-op.
func (h *History) Undo() (Document, bool) {
	if h.cursor == 0 {
		return h.Current(), false
	}
	h.cursor--
	return h.Current(), true
}

// Redo steps the cursor forward. At the newest entry it is a no-op.
func (h *History) Redo() (Document, bool) {
	if h.cursor >= len(h.entries)-1 {
		return h.Current(), false
	}
	h.cursor++
	return h.Current(), true
}

// Current returns the document at the cursor
func (h *History) Current() Document {
	return h.entries[h.cursor].doc
}

// Revision identifies the entry at the cursor. Revisions are never reused,
// so two equal revisions mean the same snapshot.
func (h *History) Revision() int {
	return h.entries[h.cursor].rev
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }
func (h *History) Len() int      { return len(h.entries) }
func (h *History) Cursor() int   { return h.cursor }
