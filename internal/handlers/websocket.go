package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/services"
)

const (
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessageBetSettled    = "BET_SETTLED"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id,omitempty"`
	BetID  string `json:"bet_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	send   chan []byte
}

// WebSocketHub fans settlement events out to every connection a user has
// open. It implements services.Broadcaster.
type WebSocketHub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	logger     *slog.Logger
}

var _ services.Broadcaster = (*WebSocketHub)(nil)

func NewWebSocketHub(logger *slog.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (hub *WebSocketHub) Run() {
	for {
		select {
		case client := <-hub.register:
			conns, ok := hub.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]bool)
				hub.clients[client.UserID] = conns
			}
			conns[client] = true
			hub.logger.Debug("websocket client registered", slog.Int64("user_id", client.UserID))

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.UserID]; ok && conns[client] {
				delete(conns, client)
				close(client.send)
				if len(conns) == 0 {
					delete(hub.clients, client.UserID)
				}
				hub.logger.Debug("websocket client unregistered", slog.Int64("user_id", client.UserID))
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)

		case <-hub.done:
			for userID, conns := range hub.clients {
				for client := range conns {
					client.Conn.Close()
				}
				delete(hub.clients, userID)
			}
			return
		}
	}
}

func (hub *WebSocketHub) Stop() {
	close(hub.done)
}

func (hub *WebSocketHub) Register(client *Client) {
	select {
	case hub.register <- client:
	case <-hub.done:
		client.Conn.Close()
	}
}

func (hub *WebSocketHub) Unregister(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		hub.logger.Error("failed to encode websocket message",
			slog.String("type", message.Type),
			slog.Any("error", err))
		return
	}

	for client := range hub.clients[message.UserID] {
		select {
		case client.send <- data:
		default:
			hub.logger.Warn("websocket message dropped - client buffer full",
				slog.Int64("user_id", client.UserID),
				slog.String("type", message.Type))
		}
	}
}

func (hub *WebSocketHub) publish(message *Message) {
	select {
	case hub.broadcast <- message:
	default:
		hub.logger.Warn("websocket broadcast dropped - hub buffer full",
			slog.String("type", message.Type))
	}
}

func (hub *WebSocketHub) BroadcastBetSettled(userID int64, result *models.PlayResult) {
	hub.publish(&Message{
		Type:   MessageBetSettled,
		UserID: userID,
		BetID:  result.BetID,
		Data:   result,
	})
}

func (hub *WebSocketHub) BroadcastBalance(userID int64, wallet *models.Wallet) {
	hub.publish(&Message{
		Type:   MessageBalanceUpdate,
		UserID: userID,
		Data:   wallet.Response(),
	})
}

type WebSocketHandler struct {
	gameEngine *services.GameEngine
	hub        *WebSocketHub
	logger     *slog.Logger
}

func NewWebSocketHandler(gameEngine *services.GameEngine, hub *WebSocketHub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gameEngine: gameEngine,
		hub:        hub,
		logger:     logger,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", slog.Any("error", err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, clientSendSize),
	}

	h.hub.Register(client)
	go client.writePump()

	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	h.sendBalance(c, client)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed",
					slog.Int64("user_id", userID),
					slog.Any("error", err))
			}
			return
		}

		if msg.Type == MessagePing {
			h.sendPong(client)
		}
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	wallet, err := h.gameEngine.GetBalance(c.Request.Context(), client.UserID)
	if err != nil {
		h.logger.Error("failed to get wallet for websocket",
			slog.Int64("user_id", client.UserID),
			slog.Any("error", err))
		return
	}

	h.hub.BroadcastBalance(client.UserID, wallet)
}

func (h *WebSocketHandler) sendPong(client *Client) {
	data, err := json.Marshal(Message{
		Type: MessagePong,
		Data: gin.H{"timestamp": time.Now().Unix()},
	})
	if err != nil {
		return
	}

	select {
	case client.send <- data:
	default:
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
