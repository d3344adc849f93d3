// Package realtime implements the Realtime Hub: a single process-wide
// actor accepting WebSocket connections, tracking per-connection
// subscriptions, and pushing document events directly as the Query
// Service commits them (no polling, no change-detector loop).
package realtime

import (
	"encoding/json"
	"time"
)

const (
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
	pongTimeout      = 60 * time.Second
	maxMessageSize   = 512 * 1024
	maxSubscriptions = 100
	sendBufferSize   = 256
)

// ClientAction is a client-to-server message action.
type ClientAction string

const (
	ActionSubscribe   ClientAction = "subscribe"
	ActionUnsubscribe ClientAction = "unsubscribe"
	ActionPing        ClientAction = "ping"
)

// ServerType is a server-to-client message type.
type ServerType string

const (
	TypeWelcome     ServerType = "welcome"
	TypeSubscribed  ServerType = "subscribed"
	TypeUnsubscribed ServerType = "unsubscribed"
	TypePong        ServerType = "pong"
	TypeError       ServerType = "error"
	TypeEvent       ServerType = "event"
)

// ClientMessage is a message received from a connection.
type ClientMessage struct {
	Action     ClientAction `json:"action"`
	Collection string       `json:"collection,omitempty"`
	DocumentID string       `json:"documentId,omitempty"`
}

// ServerMessage is a message sent to a connection.
type ServerMessage struct {
	Type           ServerType `json:"type"`
	ConnectionID   string     `json:"connectionId,omitempty"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
	Collection     string     `json:"collection,omitempty"`
	DocumentID     string     `json:"documentId,omitempty"`
	Timestamp      string     `json:"timestamp,omitempty"`
	Message        string     `json:"message,omitempty"`
	Event          *EventMessage `json:"event,omitempty"`
}

// EventMessage is the payload of a "event" server message, carrying a
// single document mutation out to every matching subscriber.
type EventMessage struct {
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	DocumentID string          `json:"documentId"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Subscription is one connection's interest in a collection, optionally
// narrowed to a single document.
type Subscription struct {
	ID         string
	Collection string
	DocumentID string // empty means "every document in Collection"
}
