package editor

// Template is the registry entry of one block type
type Template struct {
	Type     BlockType `json:"type"`
	Label    string    `json:"label"`
	Category string    `json:"category"`
	// Defaults is the content of a fresh block and the fallback for
	// missing or malformed fields at render time.
	Defaults Content `json:"defaults"`
	// TextFields lists the fields editable in place; true marks multi-line.
	TextFields map[string]bool `json:"text_fields,omitempty"`
	Container  bool            `json:"container"`
	SlotCount  int             `json:"slot_count,omitempty"`
}

// Registry maps block type tags to templates
type Registry struct {
	templates map[BlockType]Template
	order     []BlockType
	newID     func() string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[BlockType]Template),
		newID:     NewID,
	}
}

// Register adds or replaces the template for t.Type
func (r *Registry) Register(t Template) {
	if shape, ok := containerShapes[t.Type]; ok {
		t.Container = true
		if t.SlotCount <= 0 {
			t.SlotCount = shape.defaultCount
		}
	}
	if _, exists := r.templates[t.Type]; !exists {
		r.order = append(r.order, t.Type)
	}
	r.templates[t.Type] = t
}

// Lookup returns the template for t
func (r *Registry) Lookup(t BlockType) (Template, bool) {
	tpl, ok := r.templates[t]
	return tpl, ok
}

// Templates lists templates in registration order
func (r *Registry) Templates() []Template {
	out := make([]Template, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.templates[t])
	}
	return out
}

// NewBlock instantiates a block of type t with a fresh id and a copy of the
// template defaults. Containers start with SlotCount empty slots.
func (r *Registry) NewBlock(t BlockType) (Block, bool) {
	tpl, ok := r.templates[t]
	if !ok {
		return Block{}, false
	}
	b := Block{ID: r.newID(), Type: t, Content: tpl.Defaults.Clone()}
	if tpl.Container {
		b.Slots = make([]Slot, tpl.SlotCount)
		for i := range b.Slots {
			b.Slots[i] = Slot{Blocks: Document{}}
		}
	}
	return b, true
}

// TextField reports whether field of type t is editable in place and
// whether it is multi-line.
func (r *Registry) TextField(t BlockType, field string) (multiline, ok bool) {
	tpl, found := r.templates[t]
	if !found {
		return false, false
	}
	multiline, ok = tpl.TextFields[field]
	return multiline, ok
}

func listOf(items ...map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// DefaultRegistry registers every built-in block type
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(Template{
		Type: TypeHero, Label: "Hero", Category: "layout",
		Defaults: Content{
			"title":           "Welcome",
			"subtitle":        "Tell visitors what this page is about.",
			"backgroundImage": "",
			"ctaText":         "Get started",
			"ctaUrl":          "#",
			"align":           "center",
		},
		TextFields: map[string]bool{"title": false, "subtitle": true, "ctaText": false},
	})
	r.Register(Template{
		Type: TypeHeading, Label: "Heading", Category: "text",
		Defaults:   Content{"text": "Heading", "level": float64(2), "align": "left"},
		TextFields: map[string]bool{"text": false},
	})
	r.Register(Template{
		Type: TypeText, Label: "Text", Category: "text",
		Defaults:   Content{"text": "<p>Start writing here.</p>", "align": "left"},
		TextFields: map[string]bool{"text": true},
	})
	r.Register(Template{
		Type: TypeImage, Label: "Image", Category: "media",
		Defaults:   Content{"src": "", "alt": "", "caption": "", "width": "100%", "link": ""},
		TextFields: map[string]bool{"caption": false, "alt": false},
	})
	r.Register(Template{
		Type: TypeVideo, Label: "Video", Category: "media",
		Defaults:   Content{"url": "", "caption": "", "autoplay": false, "controls": true},
		TextFields: map[string]bool{"caption": false},
	})
	r.Register(Template{
		Type: TypeButton, Label: "Button", Category: "action",
		Defaults:   Content{"label": "Click me", "url": "#", "variant": "primary", "newTab": false},
		TextFields: map[string]bool{"label": false},
	})
	r.Register(Template{
		Type: TypeColumns, Label: "Columns", Category: "layout",
		Defaults: Content{"gap": "medium", "verticalAlign": "top"},
	})
	r.Register(Template{
		Type: TypeRows, Label: "Rows", Category: "layout",
		Defaults: Content{"gap": "medium"},
	})
	r.Register(Template{
		Type: TypeCard, Label: "Card", Category: "content",
		Defaults: Content{
			"title":    "Card title",
			"body":     "Short description.",
			"image":    "",
			"linkText": "Read more",
			"linkUrl":  "#",
		},
		TextFields: map[string]bool{"title": false, "body": true, "linkText": false},
	})
	r.Register(Template{
		Type: TypeQuote, Label: "Quote", Category: "text",
		Defaults:   Content{"text": "A memorable quote.", "author": ""},
		TextFields: map[string]bool{"text": true, "author": false},
	})
	r.Register(Template{
		Type: TypeEmbed, Label: "Embed", Category: "media",
		Defaults: Content{"html": "", "height": float64(400)},
	})
	r.Register(Template{
		Type: TypeCallout, Label: "Callout", Category: "content",
		Defaults:   Content{"title": "Note", "text": "Something worth highlighting.", "tone": "info"},
		TextFields: map[string]bool{"title": false, "text": true},
	})
	r.Register(Template{
		Type: TypeSpacer, Label: "Spacer", Category: "layout",
		Defaults: Content{"height": float64(32)},
	})
	r.Register(Template{
		Type: TypeDivider, Label: "Divider", Category: "layout",
		Defaults: Content{"style": "solid", "thickness": float64(1), "color": "#e5e7eb"},
	})
	r.Register(Template{
		Type: TypeGallery, Label: "Gallery", Category: "media",
		Defaults: Content{"images": []any{}, "perRow": float64(3), "lightbox": true},
	})
	r.Register(Template{
		Type: TypeSection, Label: "Section", Category: "layout",
		Defaults:   Content{"title": "", "background": "", "padding": "large"},
		TextFields: map[string]bool{"title": false},
	})
	r.Register(Template{
		Type: TypeIconList, Label: "Icon list", Category: "content",
		Defaults: Content{
			"items": listOf(
				map[string]any{"icon": "check", "text": "First item"},
				map[string]any{"icon": "check", "text": "Second item"},
			),
		},
	})
	r.Register(Template{
		Type: TypeAccordion, Label: "Accordion", Category: "content",
		Defaults: Content{
			"items":         listOf(map[string]any{"title": "Question", "body": "Answer"}),
			"allowMultiple": false,
		},
	})
	r.Register(Template{
		Type: TypeForm, Label: "Form", Category: "action",
		Defaults: Content{
			"title":       "Contact us",
			"submitLabel": "Send",
			"action":      "",
			"fields": listOf(
				map[string]any{"name": "email", "type": "email", "label": "Email", "required": true},
				map[string]any{"name": "message", "type": "textarea", "label": "Message", "required": false},
			),
		},
		TextFields: map[string]bool{"title": false, "submitLabel": false},
	})
	r.Register(Template{
		Type: TypeMap, Label: "Map", Category: "media",
		Defaults: Content{"address": "", "zoom": float64(14), "height": float64(300)},
	})
	r.Register(Template{
		Type: TypeCountdown, Label: "Countdown", Category: "content",
		Defaults:   Content{"target": "", "label": "Starts in", "expiredText": "It has started"},
		TextFields: map[string]bool{"label": false, "expiredText": false},
	})
	r.Register(Template{
		Type: TypeNavbar, Label: "Navigation bar", Category: "layout",
		Defaults: Content{
			"brand":  "My site",
			"links":  listOf(map[string]any{"label": "Home", "url": "/"}),
			"sticky": false,
		},
		TextFields: map[string]bool{"brand": false},
	})

	return r
}
