package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoomTypePrivate = "private"
	RoomTypeGroup   = "group"
)

type Room struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string
	Type        string `gorm:"not null;check:type IN ('private','group')"`
	Description string
	AvatarURL   string
	// Уникальный ключ пары для private комнат, NULL для group
	// и для private комнат, которые одна из сторон покинула
	PairKey   *string `gorm:"uniqueIndex"`
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time

	// Связи
	Members  []RoomMember `gorm:"foreignKey:RoomID"`
	Messages []Message    `gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type RoomMember struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID     uuid.UUID `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID     uuid.UUID `gorm:"not null;uniqueIndex:idx_room_user"`
	Role       string    `gorm:"default:'member';check:role IN ('admin','member')"`
	JoinedAt   time.Time
	LastSeenAt time.Time
	IsActive   bool `gorm:"default:true"`

	// Связи
	User User `gorm:"foreignKey:UserID"`
}

func (m *RoomMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// PairKey строит детерминированный ключ пары для private комнаты
func PairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
