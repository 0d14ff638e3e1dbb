package event

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topics published by the editor service
const (
	TopicDocumentChanged = "page.document_changed"
	TopicPageSaved       = "page.saved"
	TopicEditorOpened    = "editor.opened"
	TopicEditorClosed    = "editor.closed"
)

// Event 페이지 편집 이벤트
type Event struct {
	Topic     string      `json:"topic"`
	PageID    string      `json:"page_id"`
	Source    string      `json:"source"` // 발행한 회원 또는 컴포넌트
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handler 이벤트 핸들러 함수
type Handler func(event Event)

type subscription struct {
	name    string
	handler Handler
}

// Bus 이벤트 발행/구독 시스템. Publish는 동기로 모든 핸들러를 순차 실행한다.
type Bus struct {
	subscribers map[string][]subscription // topic -> handlers
	mu          sync.RWMutex
	log         zerolog.Logger
}

// NewBus 생성자
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscription),
		log:         log,
	}
}

// Subscribe registers handler for topic under name
func (b *Bus) Subscribe(name, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscription{
		name:    name,
		handler: handler,
	})
	b.log.Debug().Str("subscriber", name).Str("topic", topic).Msg("subscribed")
}

// Unsubscribe drops every subscription of name
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		var remaining []subscription
		for _, s := range subs {
			if s.name != name {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(b.subscribers, topic)
		} else {
			b.subscribers[topic] = remaining
		}
	}
}

// Publish delivers the event to every subscriber of topic. A panicking
// handler is logged and skipped.
func (b *Bus) Publish(topic, pageID, source string, payload interface{}) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	ev := Event{
		Topic:     topic,
		PageID:    pageID,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error().
						Str("topic", topic).
						Str("subscriber", s.name).
						Interface("panic", r).
						Msg("event handler panicked")
				}
			}()
			s.handler(ev)
		}()
	}
}

// Subscriptions lists subscriber names per topic
func (b *Bus) Subscriptions() map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string][]string)
	for topic, subs := range b.subscribers {
		for _, s := range subs {
			result[topic] = append(result[topic], s.name)
		}
	}
	return result
}
