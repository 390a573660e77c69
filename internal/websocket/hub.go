package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType определяет имена событий wire-контракта
type EventType string

const (
	// Клиент -> сервер
	EventJoinRoom       EventType = "join_room"
	EventLeaveRoom      EventType = "leave_room"
	EventSendMessage    EventType = "send_message"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"
	EventMarkRead       EventType = "mark_messages_read"
	EventGetOnlineUsers EventType = "get_online_users"

	// Сервер -> клиент
	EventUserRooms      EventType = "user_rooms"
	EventRoomJoined     EventType = "room_joined"
	EventUserJoinedRoom EventType = "user_joined_room"
	EventUserLeftRoom   EventType = "user_left_room"
	EventNewMessage     EventType = "new_message"
	EventUserTyping     EventType = "user_typing"
	EventMessagesRead   EventType = "messages_read"
	EventOnlineUsers    EventType = "online_users"
	EventUserOnline     EventType = "user_online"
	EventUserOffline    EventType = "user_offline"
	EventError          EventType = "error"

	// Системные
	EventPing EventType = "ping"
	EventPong EventType = "pong"
)

type Message struct {
	Event     EventType       `json:"event"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub владеет картами соединений и комнатных подписок.
// Состояние процесс-локальное: масштабирование на несколько инстансов
// потребует внешнего pub/sub.
type Hub struct {
	// Все соединения по ID клиента
	clients map[uuid.UUID]*Client

	// Соединения по UserID (у пользователя может быть несколько вкладок)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подписки на комнаты
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run гоняет ping всем подключенным, пока не отменен контекст
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Register регистрирует клиента. Возвращает true, если это первое
// соединение пользователя.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	first := false
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
		first = true
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
	return first
}

// Unregister снимает клиента со всех подписок. Возвращает true, если
// у пользователя не осталось соединений.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}

	for _, roomID := range client.GetRooms() {
		h.unsubscribeUnsafe(client, roomID)
	}

	last := false
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			last = true
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
	return last
}

// Subscribe добавляет клиента в комнату без уведомлений:
// кто и что рассылает, решает диспетчер событий
func (h *Hub) Subscribe(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// Unsubscribe убирает клиента из комнаты
func (h *Hub) Unsubscribe(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeUnsafe(client, roomID)
}

func (h *Hub) unsubscribeUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()
}

// SendToRoom отправляет сообщение всем подписчикам комнаты
func (h *Hub) SendToRoom(roomID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.sendToRoomUnsafe(roomID, message, uuid.Nil)
}

// SendToRoomExcept отправляет всем в комнате, кроме одного клиента
func (h *Hub) SendToRoomExcept(roomID uuid.UUID, message []byte, excludeID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.sendToRoomUnsafe(roomID, message, excludeID)
}

func (h *Hub) sendToRoomUnsafe(roomID uuid.UUID, message []byte, excludeID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			if client.ID == excludeID {
				continue
			}
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// SendToUser отправляет сообщение на все соединения пользователя
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// BroadcastExcept отправляет всем соединениям, кроме одного клиента
func (h *Hub) BroadcastExcept(message []byte, excludeID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.ID == excludeID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			log.Printf("Client %s send channel full", client.ID)
		}
	}
}

func (h *Hub) ping() {
	msg := Message{
		Event:     EventPing,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ConnectionCount возвращает число активных соединений пользователя
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.userClients[userID])
}

// GetRoomUsers возвращает пользователей, подписанных на комнату
func (h *Hub) GetRoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
