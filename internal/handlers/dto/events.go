package dto

import (
	"time"

	"github.com/google/uuid"
)

// Payload события send_message
type SendMessagePayload struct {
	Content     string     `json:"content"`
	MessageType string     `json:"message_type,omitempty"`
	ReplyTo     *uuid.UUID `json:"reply_to,omitempty"`
}

// Payload события room_joined
type RoomJoinedPayload struct {
	RoomID   uuid.UUID            `json:"room_id"`
	Messages []MessageResponse    `json:"messages"`
	Members  []RoomMemberResponse `json:"members"`
}

// Payload события user_typing
type TypingPayload struct {
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	IsTyping bool      `json:"is_typing"`
}

// Payload события messages_read
type MessagesReadPayload struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID uuid.UUID `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Публичные поля пользователя для user_online / user_joined_room
type UserData struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
}

// Payload событий user_online / user_offline
type PresencePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	UserData *UserData `json:"user_data,omitempty"`
}

// Payload событий user_joined_room / user_left_room
type RoomPresencePayload struct {
	RoomID uuid.UUID `json:"room_id"`
	User   UserData  `json:"user"`
}
