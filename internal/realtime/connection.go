package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Connection is one accepted WebSocket connection.
type Connection struct {
	ID            string
	PrincipalID   string // empty for anonymous connections
	conn          *websocket.Conn
	hub           *Hub
	subscriptions map[string]*Subscription
	mu            sync.RWMutex
	sendCh        chan []byte
	done          chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
}

func newConnection(conn *websocket.Conn, hub *Hub, principalID string) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:            uuid.New().String(),
		PrincipalID:   principalID,
		conn:          conn,
		hub:           hub,
		subscriptions: make(map[string]*Subscription),
		sendCh:        make(chan []byte, sendBufferSize),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Run starts the connection's read, write, and heartbeat loops and
// blocks until the read loop exits.
func (c *Connection) Run() {
	go c.writePump()
	go c.pingPump()
	c.readPump()
}

// Close terminates the connection and clears its subscriptions.
func (c *Connection) Close() {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return
	default:
		close(c.done)
	}
	c.subscriptions = make(map[string]*Subscription)
	c.mu.Unlock()

	c.cancel()
	c.conn.Close(websocket.StatusNormalClosure, "closing")
}

func (c *Connection) send(msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.sendCh <- data:
	case <-c.done:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("realtime send buffer full, dropping message")
	}
}

func (c *Connection) sendError(message string) {
	c.send(&ServerMessage{Type: TypeError, Message: message})
}

func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket read error")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid JSON message")
			continue
		}
		c.dispatch(&msg)
	}
}

func (c *Connection) dispatch(msg *ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		c.handleSubscribe(msg)
	case ActionUnsubscribe:
		c.handleUnsubscribe()
	case ActionPing:
		c.send(&ServerMessage{Type: TypePong})
	default:
		c.sendError("unknown action " + string(msg.Action))
	}
}

func (c *Connection) handleSubscribe(msg *ClientMessage) {
	if msg.Collection == "" {
		c.sendError("collection is required")
		return
	}

	c.mu.Lock()
	if len(c.subscriptions) >= maxSubscriptions {
		c.mu.Unlock()
		c.sendError("subscription limit reached")
		return
	}
	sub := &Subscription{ID: uuid.New().String(), Collection: msg.Collection, DocumentID: msg.DocumentID}
	c.subscriptions[sub.ID] = sub
	c.mu.Unlock()

	c.hub.addSubscription(c, sub)

	c.send(&ServerMessage{
		Type: TypeSubscribed, SubscriptionID: sub.ID,
		Collection: sub.Collection, DocumentID: sub.DocumentID,
	})
}

func (c *Connection) handleUnsubscribe() {
	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = make(map[string]*Subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		c.hub.removeSubscription(c, sub.ID)
	}
	c.send(&ServerMessage{Type: TypeUnsubscribed})
}

func (c *Connection) writePump() {
	for {
		select {
		case data := <-c.sendCh:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket write error")
				return
			}
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) pingPump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, pongTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("ping failed, closing connection")
				c.hub.unregister(c)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}
