package editor

import (
	"fmt"
	"strconv"
	"strings"
)

// SlotRef addresses a list of blocks: the top level when ParentID is empty,
// otherwise slot Index of the container ParentID.
type SlotRef struct {
	ParentID string
	Index    int
}

// TopLevel addresses the document's top-level list
var TopLevel = SlotRef{}

// IsTopLevel reports whether r addresses the top-level list
func (r SlotRef) IsTopLevel() bool {
	return r.ParentID == ""
}

// Key encodes r as "<parentContainerId>:<index>". The top level encodes as "".
func (r SlotRef) Key() string {
	if r.IsTopLevel() {
		return ""
	}
	return r.ParentID + ":" + strconv.Itoa(r.Index)
}

func (r SlotRef) String() string {
	if r.IsTopLevel() {
		return "top"
	}
	return r.Key()
}

// ParseSlotKey decodes a "<parentContainerId>:<index>" key.
func ParseSlotKey(key string) (SlotRef, bool) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return SlotRef{}, false
	}
	idx, err := strconv.Atoi(key[i+1:])
	if err != nil || idx < 0 {
		return SlotRef{}, false
	}
	return SlotRef{ParentID: key[:i], Index: idx}, true
}

// FindByID searches the top level first, then each slot of each container.
func FindByID(doc Document, id string) (Block, bool) {
	if id == "" {
		return Block{}, false
	}
	for _, b := range doc {
		if b.ID == id {
			return b, true
		}
	}
	for _, b := range doc {
		for _, s := range b.Slots {
			if found, ok := FindByID(s.Blocks, id); ok {
				return found, true
			}
		}
	}
	return Block{}, false
}

// Locate returns the list holding id and its index in that list
func Locate(doc Document, id string) (SlotRef, int, bool) {
	if id == "" {
		return SlotRef{}, 0, false
	}
	return locateIn(doc, TopLevel, id)
}

func locateIn(list Document, at SlotRef, id string) (SlotRef, int, bool) {
	for i, b := range list {
		if b.ID == id {
			return at, i, true
		}
	}
	for _, b := range list {
		for j, s := range b.Slots {
			if ref, i, ok := locateIn(s.Blocks, SlotRef{ParentID: b.ID, Index: j}, id); ok {
				return ref, i, true
			}
		}
	}
	return SlotRef{}, 0, false
}

// rewrite finds the list holding id and replaces it with fn(list, index).
// Only the lists and blocks on the path to id are copied.
func rewrite(list Document, id string, fn func(list Document, i int) Document) (Document, bool) {
	for i, b := range list {
		if b.ID == id {
			return fn(list, i), true
		}
	}
	for i, b := range list {
		for j, s := range b.Slots {
			inner, ok := rewrite(s.Blocks, id, fn)
			if !ok {
				continue
			}
			nb := b
			nb.Slots = make([]Slot, len(b.Slots))
			copy(nb.Slots, b.Slots)
			nb.Slots[j] = Slot{Blocks: inner}

			out := make(Document, len(list))
			copy(out, list)
			out[i] = nb
			return out, true
		}
	}
	return list, false
}

// withList replaces the list addressed by ref with fn(list)
func withList(doc Document, ref SlotRef, fn func(list Document) Document) (Document, bool) {
	if ref.IsTopLevel() {
		return fn(doc), true
	}
	applied := false
	out, ok := rewrite(doc, ref.ParentID, func(list Document, i int) Document {
		parent := list[i]
		if ref.Index < 0 || ref.Index >= len(parent.Slots) {
			return list
		}
		applied = true
		np := parent
		np.Slots = make([]Slot, len(parent.Slots))
		copy(np.Slots, parent.Slots)
		np.Slots[ref.Index] = Slot{Blocks: fn(parent.Slots[ref.Index].Blocks)}

		nl := make(Document, len(list))
		copy(nl, list)
		nl[i] = np
		return nl
	})
	if !ok || !applied {
		return doc, false
	}
	return out, true
}

// Replace returns a document where the block id is replaced by updater(block).
// The block keeps its id whatever the updater returns.
func Replace(doc Document, id string, updater func(Block) Block) (Document, bool) {
	if id == "" {
		return doc, false
	}
	return rewrite(doc, id, func(list Document, i int) Document {
		nb := updater(list[i])
		nb.ID = list[i].ID
		out := make(Document, len(list))
		copy(out, list)
		out[i] = nb
		return out
	})
}

// Remove deletes id wherever it is. Removing a container removes everything
// nested in its slots.
func Remove(doc Document, id string) (Document, bool) {
	if id == "" {
		return doc, false
	}
	return rewrite(doc, id, func(list Document, i int) Document {
		out := make(Document, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...)
	})
}

// Duplicate inserts a deep copy of id right after it in the same list.
// The copy and everything nested in it get fresh ids.
func Duplicate(doc Document, id string) (Document, string, bool) {
	return duplicateWith(doc, id, NewID)
}

func duplicateWith(doc Document, id string, newID func() string) (Document, string, bool) {
	if id == "" {
		return doc, "", false
	}
	var cloneID string
	out, ok := rewrite(doc, id, func(list Document, i int) Document {
		clone := list[i].reID(newID)
		cloneID = clone.ID
		nl := make(Document, 0, len(list)+1)
		nl = append(nl, list[:i+1]...)
		nl = append(nl, clone)
		return append(nl, list[i+1:]...)
	})
	if !ok {
		return doc, "", false
	}
	return out, cloneID, true
}

// CanNest reports whether a block of type child may be placed in a slot.
// Nesting is capped at two levels, so containers stay at the top level.
func CanNest(child BlockType) bool {
	return !IsContainer(child)
}

// InsertAt appends block to the list addressed by target. It is a no-op when
// the slot does not exist, when the nesting policy forbids it, or when any
// id carried by block is already in the document.
func InsertAt(doc Document, target SlotRef, block Block) (Document, bool) {
	if block.ID == "" {
		return doc, false
	}
	for _, id := range IDs(Document{block}) {
		if _, exists := FindByID(doc, id); exists {
			return doc, false
		}
	}
	if !target.IsTopLevel() && !CanNest(block.Type) {
		return doc, false
	}
	return withList(doc, target, func(list Document) Document {
		out := make(Document, 0, len(list)+1)
		out = append(out, list...)
		return append(out, block)
	})
}

// MoveAcross removes id and appends it to the list addressed by target.
// Moving a container into its own slot is rejected.
func MoveAcross(doc Document, id string, target SlotRef) (Document, bool) {
	block, ok := FindByID(doc, id)
	if !ok {
		return doc, false
	}
	if !target.IsTopLevel() {
		if target.ParentID == id {
			return doc, false
		}
		for _, s := range block.Slots {
			if _, inside := FindByID(s.Blocks, target.ParentID); inside {
				return doc, false
			}
		}
	}
	// already last in the destination list
	if at, i, _ := Locate(doc, id); at == target {
		if list, ok := listAt(doc, target); ok && i == len(list)-1 {
			return doc, false
		}
	}
	removed, _ := Remove(doc, id)
	out, ok := InsertAt(removed, target, block)
	if !ok {
		return doc, false
	}
	return out, true
}

// Reorder moves sourceID to the position of targetID. Within one list this is
// an array move, not a swap. When targetID lives in another list the source
// is appended to the end of that list instead.
func Reorder(doc Document, sourceID, targetID string) (Document, bool) {
	if sourceID == "" || sourceID == targetID {
		return doc, false
	}
	srcAt, from, ok := Locate(doc, sourceID)
	if !ok {
		return doc, false
	}
	dstAt, to, ok := Locate(doc, targetID)
	if !ok {
		return doc, false
	}
	if srcAt != dstAt {
		return MoveAcross(doc, sourceID, dstAt)
	}
	return withList(doc, srcAt, func(list Document) Document {
		return arrayMove(list, from, to)
	})
}

// arrayMove removes the element at from and inserts it at to, shifting the
// elements in between by one.
func arrayMove(list Document, from, to int) Document {
	out := make(Document, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	moved := list[from]
	out = append(out, Block{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

func listAt(doc Document, ref SlotRef) (Document, bool) {
	if ref.IsTopLevel() {
		return doc, true
	}
	parent, ok := FindByID(doc, ref.ParentID)
	if !ok || ref.Index < 0 || ref.Index >= len(parent.Slots) {
		return nil, false
	}
	return parent.Slots[ref.Index].Blocks, true
}

// CountAll counts every block, nested ones included
func CountAll(doc Document) int {
	n := 0
	for _, b := range doc {
		n++
		for _, s := range b.Slots {
			n += CountAll(s.Blocks)
		}
	}
	return n
}

// CountNested counts the blocks nested under id (0 for leaves and unknown ids)
func CountNested(doc Document, id string) int {
	b, ok := FindByID(doc, id)
	if !ok {
		return 0
	}
	n := 0
	for _, s := range b.Slots {
		n += CountAll(s.Blocks)
	}
	return n
}

// IDs lists every block id, depth first
func IDs(doc Document) []string {
	ids := make([]string, 0, len(doc))
	for _, b := range doc {
		ids = append(ids, b.ID)
		for _, s := range b.Slots {
			ids = append(ids, IDs(s.Blocks)...)
		}
	}
	return ids
}

// Validate checks id uniqueness and the nesting cap
func Validate(doc Document) error {
	seen := make(map[string]struct{})
	return validateList(doc, 0, seen)
}

func validateList(list Document, depth int, seen map[string]struct{}) error {
	for _, b := range list {
		if b.ID == "" {
			return fmt.Errorf("%w (type %q)", ErrMissingID, b.Type)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		seen[b.ID] = struct{}{}
		if depth > 0 && IsContainer(b.Type) {
			return fmt.Errorf("%w: %s", ErrNestedContainer, b.ID)
		}
		for _, s := range b.Slots {
			if err := validateList(s.Blocks, depth+1, seen); err != nil {
				return err
			}
		}
	}
	return nil
}
