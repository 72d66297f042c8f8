package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"questHuntAPI/internal/types/event"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// FeedHub streams committed game events to connected websocket clients: a
// live activity ticker for hunt lobby screens. Clients only listen; the hub
// never accepts game mutations over the socket.
type FeedHub struct {
	clients    map[*FeedClient]bool
	broadcast  chan []byte
	register   chan *FeedClient
	unregister chan *FeedClient
}

func NewFeedHub() *FeedHub {
	h := &FeedHub{
		clients:    make(map[*FeedClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
	}
	go h.run()
	return h
}

func (h *FeedHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("[feed] client connected (user %s). Count: %d", client.UserID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastEvent pushes one event to every connected client.
func (h *FeedHub) BroadcastEvent(e event.Event) {
	data, err := json.Marshal(map[string]any{
		"action": "game_event",
		"event":  e,
	})
	if err != nil {
		log.Printf("[feed] failed to marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("[feed] broadcast queue full, dropping event %s", e.ID)
	}
}

// Register attaches a new websocket connection to the hub and starts its
// pumps.
func (h *FeedHub) Register(conn *websocket.Conn, userID string) {
	client := &FeedClient{
		hub:    h,
		conn:   conn,
		Send:   make(chan []byte, 16),
		UserID: userID,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

// FeedClient is the middleman between one websocket connection and the hub.
type FeedClient struct {
	hub    *FeedHub
	conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// readPump drains the connection so pings/pongs and close frames are
// processed; inbound payloads are ignored.
func (c *FeedClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *FeedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// Heartbeat: keep connection alive
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
