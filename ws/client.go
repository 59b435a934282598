package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write.
	writeWait = 10 * time.Second

	// pongWait is three missed 30s heartbeats.
	pongWait = 90 * time.Second

	// maxMessageSize caps inbound frames; pages only send heartbeats.
	maxMessageSize = 4096

	// sendBufferSize is the per-connection queue. A client that lets it
	// fill up is disconnected.
	sendBufferSize = 256
)

// Client is one websocket connection of a page.
//
// Two goroutines serve it: ReadPump reads heartbeats, WritePump drains
// send. gorilla/websocket allows one concurrent reader and one writer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	pageID   string
	viewerID string
	send     chan []byte
	mu       sync.Mutex // guards conn writes
}

// ReadPump reads frames until the connection drops, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for page %s: %v", c.pageID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for page %s: %v", c.pageID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[ws] invalid message from page %s: %v", c.pageID, err)
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for page %s: %v", c.pageID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})
		c.hub.heartbeat(c.pageID)

	default:
		log.Printf("[ws] unknown op from page %s: %s", c.pageID, event.Op)
	}
}

func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for page %s: %v", c.pageID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for page %s, dropping connection", c.pageID)
		go func() { c.hub.unregister <- c }()
	}
}

// WritePump writes queued frames until send is closed.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
