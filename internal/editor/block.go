package editor

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// BlockType is the tag selecting a block's content schema
type BlockType string

const (
	TypeHero      BlockType = "hero"
	TypeHeading   BlockType = "heading"
	TypeText      BlockType = "text"
	TypeImage     BlockType = "image"
	TypeVideo     BlockType = "video"
	TypeButton    BlockType = "button"
	TypeColumns   BlockType = "columns"
	TypeRows      BlockType = "rows"
	TypeCard      BlockType = "card"
	TypeQuote     BlockType = "quote"
	TypeEmbed     BlockType = "embed"
	TypeCallout   BlockType = "callout"
	TypeSpacer    BlockType = "spacer"
	TypeDivider   BlockType = "divider"
	TypeGallery   BlockType = "gallery"
	TypeSection   BlockType = "section"
	TypeIconList  BlockType = "icon-list"
	TypeAccordion BlockType = "accordion"
	TypeForm      BlockType = "form"
	TypeMap       BlockType = "map"
	TypeCountdown BlockType = "countdown"
	TypeNavbar    BlockType = "navbar"
)

// slotShape describes where a container keeps its slots inside content
type slotShape struct {
	slotKey      string
	countKey     string
	defaultCount int
}

var containerShapes = map[BlockType]slotShape{
	TypeColumns: {slotKey: "columns", countKey: "columnCount", defaultCount: 2},
	TypeRows:    {slotKey: "rows", countKey: "rowCount", defaultCount: 2},
	TypeSection: {slotKey: "columns", countKey: "columnCount", defaultCount: 1},
}

// IsContainer reports whether blocks of type t own slots of nested blocks
func IsContainer(t BlockType) bool {
	_, ok := containerShapes[t]
	return ok
}

// NewID returns a fresh block id: a UUIDv7, i.e. a millisecond timestamp
// followed by random bits.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Content is the type-specific field record of a block.
// Values are treated as immutable once a block is part of a document.
type Content map[string]any

// Clone returns a deep copy of c
func (c Content) Clone() Content {
	if c == nil {
		return Content{}
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

// With returns a shallow copy of c with key set to value
func (c Content) With(key string, value any) Content {
	out := make(Content, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case Content:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Slot is one ordered list of blocks owned by a container
type Slot struct {
	Blocks Document `json:"blocks"`
}

// Block is the unit of page content
type Block struct {
	ID      string
	Type    BlockType
	Content Content
	// Slots is only populated for container types
	Slots []Slot
}

// Clone deep-copies b, keeping every id
func (b Block) Clone() Block {
	out := Block{ID: b.ID, Type: b.Type, Content: b.Content.Clone()}
	if b.Slots != nil {
		out.Slots = make([]Slot, len(b.Slots))
		for i, s := range b.Slots {
			out.Slots[i] = Slot{Blocks: s.Blocks.clone()}
		}
	}
	return out
}

// reID deep-copies b assigning fresh ids to b and every nested block
func (b Block) reID(newID func() string) Block {
	out := Block{ID: newID(), Type: b.Type, Content: b.Content.Clone()}
	if b.Slots != nil {
		out.Slots = make([]Slot, len(b.Slots))
		for i, s := range b.Slots {
			blocks := make(Document, len(s.Blocks))
			for j, child := range s.Blocks {
				blocks[j] = child.reID(newID)
			}
			out.Slots[i] = Slot{Blocks: blocks}
		}
	}
	return out
}

type blockWire struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON writes the container slots back into content as
// {<countKey>: n, <slotKey>: [{blocks: [...]}, ...]}.
func (b Block) MarshalJSON() ([]byte, error) {
	content := make(map[string]any, len(b.Content)+2)
	for k, v := range b.Content {
		content[k] = v
	}
	if shape, ok := containerShapes[b.Type]; ok {
		slots := b.Slots
		if slots == nil {
			slots = []Slot{}
		}
		content[shape.countKey] = len(slots)
		content[shape.slotKey] = slots
	}
	return json.Marshal(struct {
		ID      string         `json:"id"`
		Type    BlockType      `json:"type"`
		Content map[string]any `json:"content"`
	}{ID: b.ID, Type: b.Type, Content: content})
}

// UnmarshalJSON accepts the serialized block format. Unknown types and
// unknown fields are kept as-is. Content that is not an object loads as
// empty, and a slot list that does not decode loads as empty slots.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b.ID = w.ID
	b.Type = w.Type
	b.Content = Content{}
	b.Slots = nil

	var fields map[string]json.RawMessage
	_ = json.Unmarshal(w.Content, &fields)

	shape, container := containerShapes[w.Type]
	count := 0
	for k, raw := range fields {
		switch {
		case container && k == shape.slotKey:
			var slots []Slot
			if err := json.Unmarshal(raw, &slots); err == nil {
				b.Slots = slots
			}
		case container && k == shape.countKey:
			// malformed counts fall back to the slot list length
			_ = json.Unmarshal(raw, &count)
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("block %s: %s: %w", w.ID, k, err)
			}
			b.Content[k] = v
		}
	}

	if container {
		if count <= 0 && len(b.Slots) == 0 {
			count = shape.defaultCount
		}
		for len(b.Slots) < count {
			b.Slots = append(b.Slots, Slot{})
		}
		for i := range b.Slots {
			if b.Slots[i].Blocks == nil {
				b.Slots[i].Blocks = Document{}
			}
		}
	}
	return nil
}

// Document is the ordered list of top-level blocks of a page
type Document []Block

// MarshalJSON always writes an array, never null
func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(d))
}

// UnmarshalJSON decodes a block list, dropping entries that are not
// block objects.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	doc := make(Document, 0, len(raw))
	for _, r := range raw {
		if len(r) == 0 || r[0] != '{' {
			continue
		}
		var b Block
		if err := json.Unmarshal(r, &b); err != nil {
			continue
		}
		doc = append(doc, b)
	}
	*d = doc
	return nil
}

func (d Document) clone() Document {
	if d == nil {
		return Document{}
	}
	out := make(Document, len(d))
	for i, b := range d {
		out[i] = b.Clone()
	}
	return out
}

// Clone deep-copies the document
func (d Document) Clone() Document {
	return d.clone()
}

// ParseDocument decodes a serialized document and checks its structural
// invariants.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if len(data) == 0 {
		return Document{}, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc == nil {
		doc = Document{}
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
