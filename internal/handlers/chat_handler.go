package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Chat clients connect from arbitrary origins
	},
}

// ChatHandler bridges the websocket chat transport and the bot pipeline.
// Each connection gets its own responder; gorilla/websocket allows only one
// concurrent writer per connection, so writes are serialized per client.
type ChatHandler struct {
	handler interfaces.MessageHandler
	logger  arbor.ILogger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewChatHandler creates a chat handler over the message pipeline
func NewChatHandler(handler interfaces.MessageHandler, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		handler: handler,
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWebSocket handles GET /ws - upgrades and serves one chat connection
func (h *ChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Chat client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
		h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Chat client disconnected")
	}()

	h.readLoop(r.Context(), conn)
}

func (h *ChatHandler) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("Websocket read failed")
			}
			return
		}

		var msg models.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug().Err(err).Msg("Discarding malformed chat message")
			continue
		}
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}

		h.handler.HandleMessage(ctx, msg, h.responderFor(conn))
	}
}

func (h *ChatHandler) responderFor(conn *websocket.Conn) interfaces.Responder {
	h.mu.RLock()
	writeMu := h.clients[conn]
	h.mu.RUnlock()

	return &connResponder{conn: conn, writeMu: writeMu, handler: h}
}

// ClientCount returns the number of connected chat clients
func (h *ChatHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// connResponder delivers replies to a single websocket client
type connResponder struct {
	conn    *websocket.Conn
	writeMu *sync.Mutex
	handler *ChatHandler
}

func (r *connResponder) Reply(ctx context.Context, reply models.ChatReply) error {
	if r.writeMu == nil {
		// Connection already unregistered
		return nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(reply)
}
