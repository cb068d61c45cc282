package ws

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
	"github.com/manpreetbhatti/roomsync/internal/room"
)

type Options struct {
	// Inbound frames allowed per second per connection, and the burst above that
	MessagesPerSecond float64
	MessageBurst      int
	// Connections exceeding the limit this many times are dropped
	MaxRateLimitWarnings int
	// Outbound frames queued per connection before it is considered too slow
	SendBuffer int
	// Empty allows every origin
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		MessagesPerSecond:    100,
		MessageBurst:         200,
		MaxRateLimitWarnings: 1000,
		SendBuffer:           512,
	}
}

// Hub tracks open connections and upgrades new ones. Room membership lives
// in the router; the hub only knows which sockets are open.
type Hub struct {
	router   *room.Router
	log      *zap.Logger
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(router *room.Router, log *zap.Logger, opts Options) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = def.MessagesPerSecond
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = def.MessageBurst
	}
	if opts.MaxRateLimitWarnings <= 0 {
		opts.MaxRateLimitWarnings = def.MaxRateLimitWarnings
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}

	h := &Hub{
		router:  router,
		log:     log,
		opts:    opts,
		clients: make(map[string]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || lo.Contains(h.opts.AllowedOrigins, origin)
}

// ServeWs upgrades the request. ?room= joins that room straight away and
// ?username= names the participant; both can also come later in frames.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	username := r.URL.Query().Get("username")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, uuid.NewString(), username)
	h.register(client)

	go client.writePump()
	go client.readPump(roomID)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	metrics.OpenSockets.Set(float64(count))
	h.log.Debug("client connected", zap.String("conn", c.id), zap.Int("clients", count))
}

// unregister forgets the connection and takes it out of its room.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.router.Disconnect(c.id)
	metrics.OpenSockets.Set(float64(count))
	h.log.Debug("client disconnected", zap.String("conn", c.id), zap.Int("clients", count))
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) GetRoomCount() int {
	return h.router.Registry().Len()
}

// GetActiveRooms lists the ids of rooms that currently have members.
func (h *Hub) GetActiveRooms() []string {
	infos := lo.Filter(h.router.Registry().Rooms(), func(info room.Info, _ int) bool {
		return info.Members > 0
	})
	return lo.Map(infos, func(info room.Info, _ int) string { return info.ID })
}

// Close asks every open connection to shut down. Their read pumps then
// unregister them from the router.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}
