// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"kosbaliku/internal/service/search"
)

// WebSocketClient represents a connected WebSocket client
type WebSocketClient struct {
	conn             *websocket.Conn
	send             chan []byte
	sessionID        string
	natsSubscription *nats.Subscription
	logger           *zap.Logger
	config           WebSocketConfig
	closeOnce        sync.Once
	done             chan struct{}
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SearchWebSocketHandler streams a search session's state changes to the client
func SearchWebSocketHandler(natsConn *nats.Conn, manager *search.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")

		s, err := manager.Get(sessionID)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Search session not found", nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade to websocket", zap.Error(err))
			return
		}

		client := &WebSocketClient{
			conn:      conn,
			send:      make(chan []byte, 64),
			sessionID: sessionID,
			logger:    logger.With(zap.String("session_id", sessionID)),
			config:    DefaultWebSocketConfig(),
			done:      make(chan struct{}),
		}

		if err := client.subscribe(natsConn, manager.StateSubject(sessionID)); err != nil {
			client.logger.Warn("failed to subscribe to session state", zap.Error(err))
			client.closeConnection()
			return
		}

		go client.writePump()
		go client.readPump(manager)

		// The current state goes out first so the client never waits for the next transition
		welcome, _ := json.Marshal(map[string]interface{}{
			"type":       "state",
			"session_id": sessionID,
			"state":      s.Controller.Snapshot(),
		})
		client.enqueue(welcome)

		client.logger.Debug("websocket connected")
	}
}

// readPump keeps the session alive while the client is connected and detects disconnects.
// Clients only receive on this socket; inbound messages are discarded.
func (c *WebSocketClient) readPump(manager *search.SessionManager) {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return manager.Touch(c.sessionID)
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps messages from NATS to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(c.config.WriteWait))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// subscribe relays the session state subject to the client
func (c *WebSocketClient) subscribe(natsConn *nats.Conn, subject string) error {
	sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
		c.enqueue(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.natsSubscription = sub
	return nil
}

// enqueue queues a message without blocking; slow clients miss intermediate states
func (c *WebSocketClient) enqueue(message []byte) {
	select {
	case <-c.done:
	case c.send <- message:
	default:
		c.logger.Debug("websocket send buffer full, dropping state")
	}
}

// closeConnection closes the WebSocket connection and cleans up resources
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		if c.natsSubscription != nil {
			c.natsSubscription.Unsubscribe()
		}

		close(c.done)
		c.conn.Close()

		c.logger.Debug("websocket connection closed")
	})
}
