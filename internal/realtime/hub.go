package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/swiftbase/swiftbase/internal/auth"
	"github.com/swiftbase/swiftbase/internal/query"
)

// Hub is the process-wide Realtime Hub. It implements query.Publisher
// so the Query Service can push an event directly after each
// mutating operation commits.
type Hub struct {
	auth *auth.Service

	mu          sync.RWMutex
	connections map[string]*Connection
	// bySubject indexes subscriptions by "collection" and by
	// "collection\x00documentId" for O(1) fan-out on publish.
	bySubject map[string]map[string]*Connection
}

func NewHub(authService *auth.Service) *Hub {
	return &Hub{
		auth:        authService,
		connections: make(map[string]*Connection),
		bySubject:   make(map[string]map[string]*Connection),
	}
}

// ServeHTTP upgrades the request to a WebSocket, authenticates it
// (token as query parameter or bearer header; failure falls back to an
// anonymous connection rather than rejecting), and runs its lifecycle.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to accept websocket connection")
		return
	}

	principalID := h.authenticate(r)

	c := newConnection(conn, h, principalID)
	h.register(c)

	c.send(&ServerMessage{
		Type: TypeWelcome, ConnectionID: c.ID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	defer h.unregister(c)
	c.Run()
}

func (h *Hub) authenticate(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		return ""
	}

	claims, err := h.auth.ValidateToken(r.Context(), token, auth.PrincipalUser)
	if err != nil {
		return ""
	}
	return claims.PrincipalID
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.ID] = c
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[c.ID]; !ok {
		return
	}
	delete(h.connections, c.ID)

	for _, sub := range c.Subscriptions() {
		h.removeSubjectLocked(sub, c)
	}
}

func (h *Hub) addSubscription(c *Connection, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, key := range subjectKeys(sub) {
		if h.bySubject[key] == nil {
			h.bySubject[key] = make(map[string]*Connection)
		}
		h.bySubject[key][c.ID] = c
	}
}

func (h *Hub) removeSubscription(c *Connection, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := c.GetSubscription(subID)
	if sub == nil {
		return
	}
	h.removeSubjectLocked(sub, c)
}

func (h *Hub) removeSubjectLocked(sub *Subscription, c *Connection) {
	for _, key := range subjectKeys(sub) {
		if conns, ok := h.bySubject[key]; ok {
			delete(conns, c.ID)
			if len(conns) == 0 {
				delete(h.bySubject, key)
			}
		}
	}
}

// GetSubscription exposes a connection's own subscription lookup to
// the hub without adding a second public method to Connection.
func (c *Connection) GetSubscription(subID string) *Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[subID]
}

// Subscriptions returns a snapshot of a connection's subscriptions.
func (c *Connection) Subscriptions() []*Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Subscription, 0, len(c.subscriptions))
	for _, s := range c.subscriptions {
		out = append(out, s)
	}
	return out
}

// Publish implements query.Publisher: it fans a single document event
// out to every connection subscribed either to the whole collection or
// to this specific document, strictly after the owning write commits.
func (h *Hub) Publish(collection string, event query.Event) {
	payload, _ := json.Marshal(event.Payload)
	msg := &ServerMessage{
		Type: TypeEvent,
		Event: &EventMessage{
			Type: event.Type, Collection: event.Collection,
			DocumentID: event.DocumentID, Data: payload,
		},
	}

	h.mu.RLock()
	recipients := make(map[string]*Connection)
	for _, key := range []string{subjectKeyCollection(collection), subjectKeyDocument(collection, event.DocumentID)} {
		for id, c := range h.bySubject[key] {
			recipients[id] = c
		}
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		c.send(msg)
	}
}

// Stats reports current connection and subscription counts for the
// admin-only realtime status endpoint.
type Stats struct {
	TotalConnections         int            `json:"totalConnections"`
	AuthenticatedConnections int            `json:"authenticatedConnections"`
	TotalSubscriptions       int            `json:"totalSubscriptions"`
	SubscriptionsByCollection map[string]int `json:"subscriptionsByCollection"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{SubscriptionsByCollection: make(map[string]int)}
	stats.TotalConnections = len(h.connections)
	for _, c := range h.connections {
		if c.PrincipalID != "" {
			stats.AuthenticatedConnections++
		}
		for _, sub := range c.Subscriptions() {
			stats.TotalSubscriptions++
			stats.SubscriptionsByCollection[sub.Collection]++
		}
	}
	return stats
}

// Shutdown closes every connection, used on process shutdown.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.connections = make(map[string]*Connection)
	h.bySubject = make(map[string]map[string]*Connection)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func subjectKeys(sub *Subscription) []string {
	if sub.DocumentID == "" {
		return []string{subjectKeyCollection(sub.Collection)}
	}
	return []string{subjectKeyDocument(sub.Collection, sub.DocumentID)}
}

func subjectKeyCollection(collection string) string {
	return collection
}

func subjectKeyDocument(collection, documentID string) string {
	return collection + "\x00" + documentID
}
