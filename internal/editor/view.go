package editor

import (
	"fmt"
	"sort"
)

// View is the render-ready projection of one block. Missing or malformed
// fields are replaced by the template defaults; unknown types become a
// placeholder.
type View struct {
	ID          string         `json:"id"`
	Type        BlockType      `json:"type"`
	Label       string         `json:"label"`
	Placeholder bool           `json:"placeholder,omitempty"`
	Fields      map[string]any `json:"fields"`
	Slots       [][]View       `json:"slots,omitempty"`
}

// Project projects a whole document
func Project(reg *Registry, doc Document) []View {
	views := make([]View, 0, len(doc))
	for _, b := range doc {
		views = append(views, ProjectBlock(reg, b))
	}
	return views
}

// ProjectBlock projects one block and its slots
func ProjectBlock(reg *Registry, b Block) View {
	tpl, known := reg.Lookup(b.Type)
	if !known {
		return View{
			ID:          b.ID,
			Type:        b.Type,
			Label:       fmt.Sprintf("Unsupported block (%s)", b.Type),
			Placeholder: true,
			Fields:      map[string]any{},
		}
	}

	v := View{
		ID:     b.ID,
		Type:   b.Type,
		Label:  tpl.Label,
		Fields: make(map[string]any, len(tpl.Defaults)+len(b.Content)),
	}
	for k, v2 := range b.Content {
		v.Fields[k] = v2
	}
	for k, def := range tpl.Defaults {
		v.Fields[k] = resolveField(b.Content[k], def)
	}
	if len(b.Slots) > 0 {
		v.Slots = make([][]View, len(b.Slots))
		for i, s := range b.Slots {
			v.Slots[i] = Project(reg, s.Blocks)
		}
	}
	return v
}

// resolveField keeps value when it has the same kind as the declared
// default, and substitutes the default otherwise.
func resolveField(value, def any) any {
	if value == nil {
		return cloneValue(def)
	}
	switch def.(type) {
	case string:
		if s, ok := value.(string); ok {
			return s
		}
	case float64, int:
		switch n := value.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	case bool:
		if b, ok := value.(bool); ok {
			return b
		}
	case []any:
		if l, ok := value.([]any); ok {
			return l
		}
	case map[string]any:
		if m, ok := value.(map[string]any); ok {
			return m
		}
	default:
		return value
	}
	return cloneValue(def)
}

// FieldString returns field of b as text, falling back to the template
// default when missing or not a string.
func FieldString(reg *Registry, b Block, field string) string {
	var def any = ""
	if tpl, ok := reg.Lookup(b.Type); ok {
		if d, exists := tpl.Defaults[field]; exists {
			def = d
		}
	}
	switch v := resolveField(b.Content[field], def).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// FieldNames lists the declared fields of type t in sorted order
func (r *Registry) FieldNames(t BlockType) []string {
	tpl, ok := r.templates[t]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(tpl.Defaults))
	for k := range tpl.Defaults {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
