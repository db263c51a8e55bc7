// Package gateway fans draft events out to browsers over WebSocket and
// reports presence changes back onto the event stream.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

// ConnectionConfig holds WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Manager owns the per-draft WebSocket connection pools.
type Manager struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*connection]bool

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	presence    realtime.Publisher
	broadcastCh chan realtime.Event
}

type connection struct {
	id          string
	identityKey string
	draftID     uuid.UUID
	conn        *websocket.Conn
	send        chan []byte
	manager     *Manager
}

func NewManager(config ConnectionConfig, presence realtime.Publisher) *Manager {
	return &Manager{
		connections: make(map[uuid.UUID]map[*connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		presence:    presence,
		broadcastCh: make(chan realtime.Event, 1000),
	}
}

// Run processes queued broadcasts until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	log.Info().Msg("gateway connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway connection manager shutting down")
			return
		case event := <-m.broadcastCh:
			m.fanOut(event)
		}
	}
}

// Broadcast queues an event for delivery to every connection watching its
// draft. The realtime consumer feeds this.
func (m *Manager) Broadcast(event realtime.Event) {
	select {
	case m.broadcastCh <- event:
	default:
		log.Warn().Str("draft_id", event.DraftID.String()).Msg("broadcast channel full, dropping event")
	}
}

// Upgrade turns an HTTP request into a draft-scoped WebSocket connection and
// announces the viewer's presence.
func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request, identityKey string, draftID uuid.UUID) error {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	c := &connection{
		id:          uuid.New().String(),
		identityKey: identityKey,
		draftID:     draftID,
		conn:        ws,
		send:        make(chan []byte, 256),
		manager:     m,
	}
	m.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("identity", identityKey).
		Str("draft_id", draftID.String()).
		Msg("viewer connected")
	return nil
}

func (m *Manager) register(c *connection) {
	m.mu.Lock()
	if m.connections[c.draftID] == nil {
		m.connections[c.draftID] = make(map[*connection]bool)
	}
	m.connections[c.draftID][c] = true
	present := m.presentKeysLocked(c.draftID)
	m.mu.Unlock()

	m.announce(realtime.NewPresenceJoin(c.draftID, c.identityKey))
	m.announce(realtime.NewPresenceSync(c.draftID, present))
}

func (m *Manager) unregister(c *connection) {
	m.mu.Lock()
	pool, ok := m.connections[c.draftID]
	if !ok || !pool[c] {
		m.mu.Unlock()
		return
	}
	delete(pool, c)
	close(c.send)
	if len(pool) == 0 {
		delete(m.connections, c.draftID)
	}
	present := m.presentKeysLocked(c.draftID)
	m.mu.Unlock()

	m.announce(realtime.NewPresenceLeave(c.draftID, c.identityKey))
	m.announce(realtime.NewPresenceSync(c.draftID, present))

	log.Info().
		Str("connection_id", c.id).
		Str("identity", c.identityKey).
		Str("draft_id", c.draftID.String()).
		Msg("viewer disconnected")
}

func (m *Manager) presentKeysLocked(draftID uuid.UUID) []string {
	seen := make(map[string]bool)
	var keys []string
	for c := range m.connections[draftID] {
		if !seen[c.identityKey] {
			seen[c.identityKey] = true
			keys = append(keys, c.identityKey)
		}
	}
	return keys
}

func (m *Manager) announce(event realtime.Event) {
	if m.presence == nil {
		return
	}
	if err := m.presence.Publish(context.Background(), event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish presence event")
	}
}

func (m *Manager) fanOut(event realtime.Event) {
	m.mu.RLock()
	targets := make([]*connection, 0, len(m.connections[event.DraftID]))
	for c := range m.connections[event.DraftID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop the connection rather than the draft.
			log.Warn().
				Str("connection_id", c.id).
				Msg("send buffer full, closing connection")
			m.unregister(c)
			c.conn.Close()
		}
	}
}

// Stats summarizes the active pools for the health endpoint.
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	perDraft := make(map[string]int)
	for draftID, pool := range m.connections {
		total += len(pool)
		perDraft[draftID.String()] = len(pool)
	}
	return map[string]any{
		"total_connections": total,
		"active_drafts":     len(m.connections),
		"draft_connections": perDraft,
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.manager.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.id).Msg("failed to write to WebSocket")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.id).Msg("unexpected WebSocket close")
			}
			return
		}
		// Clients only listen; inbound frames just refresh the deadline.
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
