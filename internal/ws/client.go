package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
	"github.com/manpreetbhatti/roomsync/internal/protocol"
	"github.com/manpreetbhatti/roomsync/internal/ratelimit"
	"github.com/manpreetbhatti/roomsync/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Client is one websocket connection. It is the room.Member the router
// pushes to; pushes are queued on send and written by writePump.
type Client struct {
	id       string
	username string
	hub      *Hub
	conn     *websocket.Conn
	log      *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	rateLimiter *ratelimit.Limiter
}

func newClient(hub *Hub, conn *websocket.Conn, id, username string) *Client {
	return &Client{
		id:          id,
		username:    username,
		hub:         hub,
		conn:        conn,
		log:         hub.log.With(zap.String("conn", id)),
		send:        make(chan []byte, hub.opts.SendBuffer),
		done:        make(chan struct{}),
		rateLimiter: ratelimit.NewLimiter(hub.opts.MessagesPerSecond, hub.opts.MessageBurst),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) SendSnapshot(roomID string, events []room.Event) error {
	data, err := protocol.EncodeSnapshot(roomID, events)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) SendEvent(roomID string, e room.Event) error {
	data, err := protocol.EncodeEvent(e)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) SendCleared(roomID string) error {
	data, err := protocol.EncodeCleared(roomID)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) SendPresence(p room.Presence) error {
	data, err := protocol.EncodePresence(p)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// enqueue never blocks: it runs under a room lock. A client that cannot
// keep up is closed rather than allowed to stall the room.
func (c *Client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.log.Warn("send buffer full, dropping client")
		c.close()
		return ErrSlowConsumer
	}
}

// close is safe to call from any goroutine any number of times. send is
// never closed, so concurrent enqueues cannot panic.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) readPump(autoJoin string) {
	defer func() {
		c.hub.unregister(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if autoJoin != "" {
		c.join(protocol.JoinRequest{RoomID: autoJoin, Username: c.username})
	}

	rateLimitWarnings := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		if c.closed() {
			return
		}

		if !c.rateLimiter.Allow() {
			rateLimitWarnings++
			metrics.RateLimited.WithLabelValues("ws").Inc()
			if rateLimitWarnings%100 == 1 {
				c.log.Warn("rate limit exceeded", zap.Int("warnings", rateLimitWarnings))
			}
			if rateLimitWarnings > c.hub.opts.MaxRateLimitWarnings {
				c.log.Warn("disconnecting client for excessive rate limit violations")
				return
			}
			continue
		}

		frame, err := protocol.Decode(message)
		if err != nil {
			c.log.Debug("invalid frame", zap.Error(err))
			continue
		}
		if err := c.dispatch(frame); err != nil {
			c.log.Debug("frame dropped", zap.String("type", string(frame.Type)), zap.Error(err))
		}
	}
}

// dispatch hands one decoded frame to the router. Errors are only logged;
// nothing is reported back to the sender.
func (c *Client) dispatch(f protocol.Frame) error {
	router := c.hub.router

	switch {
	case f.Type == protocol.TypeJoinRoom:
		req, err := f.Join()
		if err != nil {
			return err
		}
		return c.join(req)

	case f.Type == protocol.TypeLeaveRoom:
		return router.Leave(c.id)

	case f.Type == protocol.TypeSendMessage:
		roomID, e, err := f.Message(c.username)
		if err != nil {
			return err
		}
		return router.Publish(c.id, roomID, e)

	case f.Type == protocol.TypeDrawStroke:
		roomID, e, err := f.Stroke()
		if err != nil {
			return err
		}
		return router.Publish(c.id, roomID, e)

	case f.IsClear():
		roomID, err := f.RoomID()
		if err != nil {
			return err
		}
		return router.Clear(c.id, roomID)
	}
	return protocol.ErrUnknownType
}

func (c *Client) join(req protocol.JoinRequest) error {
	if req.Username != "" {
		c.username = req.Username
	}
	err := c.hub.router.Join(c, req.RoomID, room.Participant{Username: c.username})
	if err != nil {
		c.log.Debug("join failed", zap.String("room", req.RoomID), zap.Error(err))
	}
	return err
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
