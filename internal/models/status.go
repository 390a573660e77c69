package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserOnlineStatus — зеркало presence-состояния для отображения last seen.
// Авторитетная копия живет в памяти шлюза.
type UserOnlineStatus struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsOnline  bool      `gorm:"default:false"`
	LastSeen  time.Time
	SocketID  *string
	UpdatedAt time.Time
}

// TypingIndicator — зеркало typing-маркера, чистится свипером по TTL
type TypingIndicator struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID    uuid.UUID `gorm:"not null;uniqueIndex:idx_typing_room_user"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_typing_room_user"`
	StartedAt time.Time `gorm:"index"`
}

func (t *TypingIndicator) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
