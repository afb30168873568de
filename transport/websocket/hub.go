package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/partyhost/game/service"
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

	// Outbound messages queued per client before it is dropped.
	sendBuffer = 256
)

// ErrHubStopped is returned by Do once Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Message is the envelope for every frame in both directions.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler consumes connection lifecycle and inbound events. All calls are made
// from the hub's loop, one at a time.
type Handler interface {
	HandleConnect(connID string)
	HandleEvent(connID, event string, payload json.RawMessage)
	HandleDisconnect(connID string)
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
	room string
}

type inbound struct {
	client *Client
	event  string
	data   json.RawMessage
}

type task struct {
	fn   func()
	done chan struct{}
}

// Hub owns every connection and serialises all state changes through Run.
// Its Transport methods are only valid from inside the loop, that is from
// Handler callbacks or functions passed to Do.
type Hub struct {
	clients map[string]*Client
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	tasks      chan task
	stopped    chan struct{}

	// Unbuffered, so a client's frames are handled before its unregister.
	inbound chan inbound

	handler  Handler
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

var _ service.Transport = (*Hub)(nil)

// NewHub creates a hub that accepts upgrades from the given origins. An empty
// list or "*" accepts any origin; requests without an Origin header are
// always accepted.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		tasks:      make(chan task),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context, handler Handler) {
	h.handler = handler
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.inbound:
			h.handler.HandleEvent(msg.client.id, msg.event, msg.data)

		case t := <-h.tasks:
			t.fn()
			close(t.done)
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
func (h *Hub) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}

	select {
	case h.tasks <- t:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades the request and attaches the connection to the hub under
// a fresh id.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Connections returns the number of attached clients. Loop only.
func (h *Hub) Connections() int {
	return len(h.clients)
}

// SendTo delivers an event to one connection.
func (h *Hub) SendTo(connID, event string, data any) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if msg := h.encode(event, data); msg != nil {
		h.deliver(client, msg)
	}
}

// SendToRoom delivers an event to every connection tagged with code.
func (h *Hub) SendToRoom(code, event string, data any) {
	h.SendToRoomExcept(code, "", event, data)
}

// SendToRoomExcept delivers an event to a room, skipping exceptID.
func (h *Hub) SendToRoomExcept(code, exceptID, event string, data any) {
	members := h.rooms[code]
	if len(members) == 0 {
		return
	}
	msg := h.encode(event, data)
	if msg == nil {
		return
	}
	for client := range members {
		if client.id != exceptID {
			h.deliver(client, msg)
		}
	}
}

// Broadcast delivers an event to every connection.
func (h *Hub) Broadcast(event string, data any) {
	h.BroadcastExcept("", event, data)
}

// BroadcastExcept delivers an event to every connection but exceptID.
func (h *Hub) BroadcastExcept(exceptID, event string, data any) {
	msg := h.encode(event, data)
	if msg == nil {
		return
	}
	for id, client := range h.clients {
		if id != exceptID {
			h.deliver(client, msg)
		}
	}
}

// Join tags a connection with a room code, replacing any earlier tag.
func (h *Hub) Join(connID, code string) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if client.room != "" && client.room != code {
		h.untag(client)
	}
	client.room = code
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*Client]bool)
	}
	h.rooms[code][client] = true
}

// Leave removes a connection's room tag if it matches code.
func (h *Hub) Leave(connID, code string) {
	client, ok := h.clients[connID]
	if !ok || client.room != code {
		return
	}
	h.untag(client)
}

func (h *Hub) untag(client *Client) {
	if members, ok := h.rooms[client.room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, client.room)
		}
	}
	client.room = ""
}

func (h *Hub) encode(event string, data any) []byte {
	msg, err := json.Marshal(&Message{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.String("event", event), zap.Error(err))
		return nil
	}
	return msg
}

// deliver queues msg without blocking. A client whose queue is full is
// detached; its read pump reports the disconnect once the socket closes.
func (h *Hub) deliver(client *Client, msg []byte) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn("client send queue full, dropping", zap.String("conn", client.id))
		h.detach(client)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client.id] = client
	h.logger.Debug("client registered", zap.String("conn", client.id), zap.Int("clients", len(h.clients)))

	h.handler.HandleConnect(client.id)
}

func (h *Hub) unregisterClient(client *Client) {
	h.detach(client)
	h.logger.Debug("client unregistered", zap.String("conn", client.id), zap.Int("clients", len(h.clients)))

	h.handler.HandleDisconnect(client.id)
}

// detach removes client from the hub and closes its queue. Safe to repeat.
func (h *Hub) detach(client *Client) {
	if h.clients[client.id] != client {
		return
	}
	h.untag(client)
	delete(h.clients, client.id)
	close(client.send)
}

func (h *Hub) shutdown() {
	for _, client := range h.clients {
		h.detach(client)
	}
	close(h.stopped)
}

// readPump forwards frames from the connection to the hub loop.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Info("websocket closed unexpectedly", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			c.hub.logger.Debug("dropping unreadable frame", zap.String("conn", c.id))
			continue
		}

		select {
		case c.hub.inbound <- inbound{client: c, event: msg.Event, data: msg.Data}:
		case <-c.hub.stopped:
			return
		}
	}
}

// writePump writes queued messages to the connection, one frame each.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
