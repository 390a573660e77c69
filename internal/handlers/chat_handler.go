package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/handlers/dto"
	ws "github.com/nakarin/sociochat/internal/websocket"
)

const historyPageSize = 50

// ChatHandler — диспетчер realtime-событий. Каждое событие над комнатой
// заново проверяет членство в БД: подписка hub'а не доказательство,
// членство могло измениться после подключения.
type ChatHandler struct {
	db       *database.Database
	hub      *ws.Hub
	presence *ws.PresenceTracker
	typing   *ws.TypingCoordinator
}

func NewChatHandler(db *database.Database, hub *ws.Hub, presence *ws.PresenceTracker, typing *ws.TypingCoordinator) *ChatHandler {
	return &ChatHandler{
		db:       db,
		hub:      hub,
		presence: presence,
		typing:   typing,
	}
}

// HandleConnect подключает клиента: presence online, автоподписка на все
// комнаты с активным членством, список комнат себе, user_online остальным
func (h *ChatHandler) HandleConnect(client *ws.Client) {
	socketID := client.ID.String()

	h.presence.SetOnline(client.UserID, client.ID)
	if err := h.db.UpsertOnlineStatus(client.UserID, true, &socketID); err != nil {
		log.Printf("Failed to mirror online status: %v", err)
	}

	roomIDs, err := h.db.ActiveRoomIDs(client.UserID)
	if err != nil {
		log.Printf("Failed to load rooms for %s: %v", client.UserID, err)
		client.SendError("failed to load rooms")
		return
	}
	for _, roomID := range roomIDs {
		h.hub.Subscribe(client, roomID)
	}

	summaries, err := h.db.ListRoomsForUser(client.UserID)
	if err != nil {
		log.Printf("Failed to build room summaries for %s: %v", client.UserID, err)
		client.SendError("failed to load rooms")
		return
	}
	client.SendEvent(ws.EventUserRooms, nil, dto.NewRoomSummaryList(summaries))

	h.broadcastPresence(ws.EventUserOnline, client, true)
}

// HandleDisconnect снимает typing-маркеры и, если это было последнее
// соединение пользователя, переводит его в offline
func (h *ChatHandler) HandleDisconnect(client *ws.Client) {
	h.typing.PurgeUser(client.UserID)

	last := h.hub.Unregister(client)
	h.presence.DropConnection(client.ID)

	if !last {
		return
	}

	h.presence.SetOffline(client.UserID)
	if err := h.db.UpsertOnlineStatus(client.UserID, false, nil); err != nil {
		log.Printf("Failed to mirror offline status: %v", err)
	}

	h.broadcastPresence(ws.EventUserOffline, client, false)
}

// HandleEvent маршрутизирует клиентское событие. Неизвестные события
// игнорируются, а не рвут соединение.
func (h *ChatHandler) HandleEvent(client *ws.Client, msg *ws.Message) error {
	switch msg.Event {
	case ws.EventJoinRoom:
		return h.handleJoinRoom(client, msg)

	case ws.EventLeaveRoom:
		return h.handleLeaveRoom(client, msg)

	case ws.EventSendMessage:
		return h.handleSendMessage(client, msg)

	case ws.EventTypingStart:
		return h.handleTyping(client, msg, true)

	case ws.EventTypingStop:
		return h.handleTyping(client, msg, false)

	case ws.EventMarkRead:
		return h.handleMarkRead(client, msg)

	case ws.EventGetOnlineUsers:
		return h.handleGetOnlineUsers(client)

	default:
		log.Printf("Unknown event from %s: %s", client.UserID, msg.Event)
		return nil
	}
}

func (h *ChatHandler) handleJoinRoom(client *ws.Client, msg *ws.Message) error {
	if msg.RoomID == nil {
		return ws.ErrRoomRequired
	}
	roomID := *msg.RoomID

	if _, err := h.db.EnsureMember(roomID, client.UserID); err != nil {
		return err
	}

	h.hub.Subscribe(client, roomID)

	if err := h.db.MarkMessagesRead(roomID, client.UserID); err != nil {
		return err
	}

	messages, previews, err := h.db.GetRoomMessages(roomID, historyPageSize, 0)
	if err != nil {
		return err
	}
	members, err := h.db.ListRoomMembers(roomID)
	if err != nil {
		return err
	}

	if err := client.SendEvent(ws.EventRoomJoined, &roomID, dto.RoomJoinedPayload{
		RoomID:   roomID,
		Messages: dto.NewMessageList(messages, previews),
		Members:  dto.NewRoomMemberList(members),
	}); err != nil {
		return err
	}

	h.sendToRoomExcept(ws.EventUserJoinedRoom, roomID, client, dto.RoomPresencePayload{
		RoomID: roomID,
		User:   userData(client),
	})
	return nil
}

func (h *ChatHandler) handleLeaveRoom(client *ws.Client, msg *ws.Message) error {
	if msg.RoomID == nil {
		return ws.ErrRoomRequired
	}
	roomID := *msg.RoomID

	// Снимается только подписка соединения: членство деактивируется
	// отдельной операцией над ресурсом участников
	h.hub.Unsubscribe(client, roomID)

	h.sendToRoomExcept(ws.EventUserLeftRoom, roomID, client, dto.RoomPresencePayload{
		RoomID: roomID,
		User:   userData(client),
	})
	return nil
}

func (h *ChatHandler) handleSendMessage(client *ws.Client, msg *ws.Message) error {
	if msg.RoomID == nil {
		return ws.ErrRoomRequired
	}
	roomID := *msg.RoomID

	var payload dto.SendMessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return ws.ErrInvalidMessage
	}

	// Сообщение сначала долетает до БД, и только потом в комнату:
	// оптимистичных броадкастов нет
	message, preview, err := h.db.PostMessage(roomID, client.UserID, payload.Content, payload.MessageType, payload.ReplyTo)
	if err != nil {
		return err
	}

	h.sendToRoom(ws.EventNewMessage, roomID, client.UserID, dto.NewMessageResponse(message, preview))
	return nil
}

func (h *ChatHandler) handleTyping(client *ws.Client, msg *ws.Message, isTyping bool) error {
	if msg.RoomID == nil {
		return ws.ErrRoomRequired
	}
	roomID := *msg.RoomID

	if isTyping {
		if _, err := h.db.EnsureMember(roomID, client.UserID); err != nil {
			return err
		}
		h.typing.Start(roomID, client.UserID)
	} else {
		h.typing.Stop(roomID, client.UserID)
	}

	h.sendToRoomExcept(ws.EventUserTyping, roomID, client, dto.TypingPayload{
		RoomID:   roomID,
		UserID:   client.UserID,
		UserName: client.User.Name,
		IsTyping: isTyping,
	})
	return nil
}

func (h *ChatHandler) handleMarkRead(client *ws.Client, msg *ws.Message) error {
	if msg.RoomID == nil {
		return ws.ErrRoomRequired
	}
	roomID := *msg.RoomID

	if _, err := h.db.EnsureMember(roomID, client.UserID); err != nil {
		return err
	}

	if err := h.db.MarkMessagesRead(roomID, client.UserID); err != nil {
		return err
	}

	h.sendToRoomExcept(ws.EventMessagesRead, roomID, client, dto.MessagesReadPayload{
		RoomID: roomID,
		UserID: client.UserID,
		ReadAt: time.Now(),
	})
	return nil
}

func (h *ChatHandler) handleGetOnlineUsers(client *ws.Client) error {
	presences, err := h.db.ListUsersWithPresence(client.UserID)
	if err != nil {
		return err
	}
	return client.SendEvent(ws.EventOnlineUsers, nil, dto.NewOnlineUserList(presences))
}

// BroadcastNewMessage доставляет в комнату сообщение, созданное через
// HTTP-мост (например, загрузку файла)
func (h *ChatHandler) BroadcastNewMessage(roomID uuid.UUID, message dto.MessageResponse) {
	h.sendToRoom(ws.EventNewMessage, roomID, message.SenderID, message)
}

func (h *ChatHandler) sendToRoom(event ws.EventType, roomID uuid.UUID, userID uuid.UUID, data interface{}) {
	raw, err := marshalEvent(event, &roomID, userID, data)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", event, err)
		return
	}
	h.hub.SendToRoom(roomID, raw)
}

func (h *ChatHandler) sendToRoomExcept(event ws.EventType, roomID uuid.UUID, client *ws.Client, data interface{}) {
	raw, err := marshalEvent(event, &roomID, client.UserID, data)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", event, err)
		return
	}
	h.hub.SendToRoomExcept(roomID, raw, client.ID)
}

func (h *ChatHandler) broadcastPresence(event ws.EventType, client *ws.Client, withData bool) {
	payload := dto.PresencePayload{UserID: client.UserID}
	if withData {
		data := userData(client)
		payload.UserData = &data
	}

	raw, err := marshalEvent(event, nil, client.UserID, payload)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", event, err)
		return
	}
	h.hub.BroadcastExcept(raw, client.ID)
}

func marshalEvent(event ws.EventType, roomID *uuid.UUID, userID uuid.UUID, data interface{}) ([]byte, error) {
	msg := ws.Message{
		Event:     event,
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func userData(client *ws.Client) dto.UserData {
	return dto.UserData{
		ID:           client.User.ID,
		Name:         client.User.Name,
		ProfileImage: client.User.ProfileImage,
	}
}

// IsAccessDenied помогает HTTP-мосту отличать 403 от 500
func IsAccessDenied(err error) bool {
	return errors.Is(err, database.ErrAccessDenied)
}
