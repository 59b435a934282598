package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher is what services use to reach open pages. Services depend
// on this interface, not on *Hub, so tests can record events instead.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToAllExcept(excludePageID string, event Event)
	SendToPage(pageID string, event Event)
}

// Hub tracks every open connection and fans events out to them.
//
// Run owns registration through the register/unregister channels; the
// broadcast methods only take the read lock.
type Hub struct {
	// pageID -> connections. A page normally has one, a reconnect briefly
	// overlaps the old one.
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	seq atomic.Int64

	// onPageClosed runs when the last connection of a page goes away.
	onPageClosed func(pageID string)

	// onHeartbeat runs for every heartbeat a page sends.
	onHeartbeat func(pageID string)
}

// NewHub creates an empty hub. Start it with go hub.Run().
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// OnPageClosed sets the callback fired when a page has no connection left.
// Call it before Run.
func (h *Hub) OnPageClosed(fn func(pageID string)) {
	h.onPageClosed = fn
}

// OnHeartbeat sets the callback fired when a page sends a heartbeat, so
// state kept per page stays alive while the tab is open. Call it before Run.
func (h *Hub) OnHeartbeat(fn func(pageID string)) {
	h.onHeartbeat = fn
}

func (h *Hub) heartbeat(pageID string) {
	if h.onHeartbeat != nil {
		h.onHeartbeat(pageID)
	}
}

// Run is the registration loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.pageID]; !ok {
		h.clients[client.pageID] = make(map[*Client]bool)
	}
	h.clients[client.pageID][client] = true

	log.Printf("[ws] client connected: page=%s viewer=%s", client.pageID, client.viewerID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	closed := false
	if clients, ok := h.clients[client.pageID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.clients, client.pageID)
				closed = true
			}
		}
	}
	h.mu.Unlock()

	if closed {
		log.Printf("[ws] page closed: %s", client.pageID)
		if h.onPageClosed != nil {
			h.onPageClosed(client.pageID)
		}
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal %s event: %v", event.Op, err)
		return nil, false
	}
	return data, true
}

// deliver queues data on client; a full buffer means the client stalled
// and it is dropped. Callers hold the read lock.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		go func(c *Client) { h.unregister <- c }(client)
	}
}

// BroadcastToAll sends event to every open page.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.deliver(client, data)
		}
	}
}

// BroadcastToAllExcept sends event to every page but excludePageID, which
// already applied the change itself.
func (h *Hub) BroadcastToAllExcept(excludePageID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for pageID, clients := range h.clients {
		if pageID == excludePageID {
			continue
		}
		for client := range clients {
			h.deliver(client, data)
		}
	}
}

// SendToPage sends event to the connections of one page.
func (h *Hub) SendToPage(pageID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[pageID] {
		h.deliver(client, data)
	}
}

// PageCount returns how many pages are connected.
func (h *Hub) PageCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
