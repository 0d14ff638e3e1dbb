package ws

import (
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/damoang/angple-pages/internal/event"
)

// Message types sent to preview clients
const (
	TypeDocument = "document"
	TypeSaved    = "saved"
	TypeOpened   = "opened"
	TypeClosed   = "closed"
)

const bridgeName = "ws-hub"

// Bridge forwards editor events from the bus to the preview clients of
// the page. Selection and mode changes stay with the editor.
func Bridge(bus *event.Bus, hub *Hub) {
	bus.Subscribe(bridgeName, event.TopicDocumentChanged, func(e event.Event) {
		ch, ok := e.Payload.(editor.Change)
		if !ok {
			return
		}
		switch ch.Kind {
		case editor.ChangeEdit, editor.ChangeUndo, editor.ChangeRedo:
		default:
			return
		}
		hub.SendToPage(&Message{Type: TypeDocument, PageID: e.PageID, Payload: map[string]interface{}{
			"revision": ch.Revision,
			"command":  ch.Command,
			"document": ch.Document,
		}})
	})

	forward := func(msgType string) event.Handler {
		return func(e event.Event) {
			hub.SendToPage(&Message{Type: msgType, PageID: e.PageID, Payload: e.Payload})
		}
	}
	bus.Subscribe(bridgeName, event.TopicPageSaved, forward(TypeSaved))
	bus.Subscribe(bridgeName, event.TopicEditorOpened, forward(TypeOpened))
	bus.Subscribe(bridgeName, event.TopicEditorClosed, forward(TypeClosed))
}
