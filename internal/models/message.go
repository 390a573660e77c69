package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeEmoji = "emoji"
)

type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID      uuid.UUID `gorm:"not null;index:idx_room_created"`
	SenderID    uuid.UUID `gorm:"not null"`
	Content     string    `gorm:"not null"`
	MessageType string    `gorm:"default:'text';check:message_type IN ('text','image','file','emoji')"`
	// Ссылка на сообщение в той же комнате, иначе NULL
	ReplyTo   *uuid.UUID
	IsEdited  bool      `gorm:"default:false"`
	IsDeleted bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"index:idx_room_created"`
	UpdatedAt time.Time

	// Связи
	Sender      User         `gorm:"foreignKey:SenderID"`
	Attachments []Attachment `gorm:"foreignKey:MessageID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type MessageRead struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"not null;uniqueIndex:idx_message_user"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_message_user"`
	ReadAt    time.Time
}

func (r *MessageRead) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Attachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID    uuid.UUID `gorm:"not null;index"`
	Filename     string    `gorm:"not null"`
	OriginalName string    `gorm:"not null"`
	FileSize     int64     `gorm:"not null"`
	FileType     string    `gorm:"not null"`
	FilePath     string    `gorm:"not null"`
	CreatedAt    time.Time
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
