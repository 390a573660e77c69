package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/middleware"
	ws "github.com/nakarin/sociochat/internal/websocket"
)

// WebSocketHandler поднимает realtime-соединения
type WebSocketHandler struct {
	db          *database.Database
	hub         *ws.Hub
	chatHandler *ChatHandler
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(db *database.Database, hub *ws.Hub, chatHandler *ChatHandler) *WebSocketHandler {
	return &WebSocketHandler{
		db:          db,
		hub:         hub,
		chatHandler: chatHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket аутентифицирует handshake и запускает клиента.
// До успешной аутентификации ни presence, ни hub не трогаются.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Токен мог пережить удаление пользователя
	user, err := h.db.GetUser(userID.(uuid.UUID).String())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, user)

	h.hub.Register(client)
	h.chatHandler.HandleConnect(client)

	go client.WritePump()
	go client.ReadPump(h.chatHandler)
}
