// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeValue         = "value"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeSettingsSaved = "settings_saved"
)

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until the context is canceled, the shape
// suture supervision expects. On cancellation all connected clients are
// closed and ctx.Err() is returned, so a supervisor restart never leaves
// orphaned connections.
//
// DETERMINISM: both selects are ordered so that shutdown and client
// lifecycle events always win over pending broadcasts. Go's select picks
// randomly among ready channels; the staged non-blocking checks make the
// ordering predictable.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcasts, or wait for any event
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Dec()
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because cancellation
// is the expected shutdown path; an error field here would confuse
// operators watching error logs.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients.
// DETERMINISM: clients are sorted by their ID so delivery order is
// reproducible; map iteration order is not.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Clients that cannot keep up are dropped rather than allowed to
	// stall the hub.
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
		metrics.RecordWSError("slow_client")
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
}

// closeAllClients closes all connected clients in ID order. Called during
// shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// ValueChangeData is the payload of a "value" message: one observable
// value changed, no matter which page or code path changed it.
type ValueChangeData struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Agent     string `json:"agent"`
	Timestamp string `json:"timestamp"`
}

// BroadcastValueChange pushes a value change to all connected clients.
func (h *Hub) BroadcastValueChange(name, value, agent string) {
	message := Message{
		Type: MessageTypeValue,
		Data: ValueChangeData{
			Name:      name,
			Value:     value,
			Agent:     agent,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.RecordWSError("broadcast_full")
		logging.Warn().Str("name", name).Msg("broadcast channel full, dropping value message")
	}
}

// SettingsSavedData is the payload of a "settings_saved" message.
type SettingsSavedData struct {
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Count     int    `json:"count"`
}

// BroadcastSettingsSaved notifies all clients that the settings file was
// written, with the number of values it holds.
func (h *Hub) BroadcastSettingsSaved(path string, count int) {
	data := SettingsSavedData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      path,
		Count:     count,
	}

	message := Message{
		Type: MessageTypeSettingsSaved,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Int("count", count).Msg("broadcast settings_saved")
	default:
		metrics.RecordWSError("broadcast_full")
		logging.Warn().Msg("broadcast channel full, dropping settings_saved message")
	}
}

// BroadcastJSON sends a message of the given type to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data any) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.RecordWSError("broadcast_full")
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
