package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisPubSubChannel = "page-events"

// Message is what preview clients receive
type Message struct {
	Type    string      `json:"type"`
	PageID  string      `json:"page_id"`
	Payload interface{} `json:"payload"`
}

// peerEvent is a message relayed between instances over redis
type peerEvent struct {
	Origin  string   `json:"origin"`
	Message *Message `json:"message"`
}

// Hub manages preview clients grouped by page and broadcasts page events
type Hub struct {
	// Registered clients grouped by page ID
	clients map[string]map[*Client]bool
	// latest document message per page, replayed to clients joining late
	latest map[string][]byte

	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	broadcast  chan *Message

	mu          sync.RWMutex
	id          string // instance id stamped on redis publishes
	redisClient *redis.Client
	log         zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHub creates a new Hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		latest:      make(map[string][]byte),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		resync:      make(chan *Client),
		broadcast:   make(chan *Message, 256),
		id:          uuid.NewString(),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Resync asks the hub to resend the latest document of the client's page
func (h *Hub) Resync(client *Client) {
	select {
	case h.resync <- client:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.pageID] == nil {
				h.clients[client.pageID] = make(map[*Client]bool)
			}
			h.clients[client.pageID][client] = true
			h.replay(client)
			h.mu.Unlock()

		case client := <-h.resync:
			h.mu.Lock()
			if h.clients[client.pageID][client] {
				h.replay(client)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			return
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.pageID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.pageID)
	}
}

// replay must be called with mu held
func (h *Hub) replay(client *Client) {
	data, ok := h.latest[client.pageID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) deliver(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn().Err(err).Str("page_id", msg.PageID).Msg("ws: marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch msg.Type {
	case TypeDocument:
		h.latest[msg.PageID] = data
	case TypeClosed:
		// 편집이 끝나면 저장된 문서가 기준
		delete(h.latest, msg.PageID)
	}
	for client := range h.clients[msg.PageID] {
		select {
		case client.send <- data:
		default:
			// slow consumer
			h.remove(client)
		}
	}
}

// SendToPage broadcasts to every preview client of a page (local + Redis publish)
func (h *Hub) SendToPage(msg *Message) {
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
		return
	}

	if h.redisClient != nil {
		data, err := json.Marshal(peerEvent{Origin: h.id, Message: msg})
		if err == nil {
			h.redisClient.Publish(h.ctx, redisPubSubChannel, data) //nolint:errcheck
		}
	}
}

// ClientCount returns the number of preview clients of a page
func (h *Hub) ClientCount(pageID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[pageID])
}

// subscribeRedis listens for page events from other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			msg, ok := h.fromPeer(m.Payload)
			if !ok {
				continue
			}
			// Only local broadcast (don't re-publish to Redis)
			if !h.relay(msg) {
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// fromPeer decodes an event published by another instance. Events this
// instance published itself were already delivered locally.
func (h *Hub) fromPeer(payload string) (*Message, bool) {
	var ev peerEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Message == nil {
		return nil, false
	}
	if ev.Origin == h.id {
		return nil, false
	}
	return ev.Message, true
}

// relay queues a peer message for local delivery. It reports false once
// the hub is stopped.
func (h *Hub) relay(msg *Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
