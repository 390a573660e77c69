package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/database"
)

// RoomSummaryResponse — строка списка комнат: для private комнаты имя
// и аватар берутся у собеседника
type RoomSummaryResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Description       string     `json:"description,omitempty"`
	Avatar            string     `json:"avatar,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastMessage       string     `json:"last_message,omitempty"`
	LastMessageTime   *time.Time `json:"last_message_time,omitempty"`
	LastSenderID      *uuid.UUID `json:"last_sender_id,omitempty"`
	LastSenderName    string     `json:"last_sender_name,omitempty"`
	UnreadCount       int64      `json:"unread_count"`
	MemberCount       int64      `json:"member_count"`
	CounterpartID     *uuid.UUID `json:"counterpart_id,omitempty"`
	CounterpartOnline bool       `json:"online"`
}

func NewRoomSummaryResponse(s database.RoomSummary) RoomSummaryResponse {
	resp := RoomSummaryResponse{
		ID:                s.Room.ID,
		Name:              s.DisplayName,
		Type:              s.Room.Type,
		Description:       s.Room.Description,
		Avatar:            s.AvatarURL,
		CreatedAt:         s.Room.CreatedAt,
		UpdatedAt:         s.Room.UpdatedAt,
		UnreadCount:       s.UnreadCount,
		MemberCount:       s.MemberCount,
		CounterpartID:     s.CounterpartID,
		CounterpartOnline: s.CounterpartOnline,
	}

	if s.LastMessage != nil {
		resp.LastMessage = s.LastMessage.Content
		t := s.LastMessage.CreatedAt
		resp.LastMessageTime = &t
		id := s.LastMessage.SenderID
		resp.LastSenderID = &id
		resp.LastSenderName = s.LastMessage.Sender.Name
	}

	return resp
}

func NewRoomSummaryList(summaries []database.RoomSummary) []RoomSummaryResponse {
	result := make([]RoomSummaryResponse, len(summaries))
	for i, s := range summaries {
		result[i] = NewRoomSummaryResponse(s)
	}
	return result
}

type RoomMemberResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
	IsOnline     bool      `json:"is_online"`
	LastSeen     time.Time `json:"last_seen"`
}

func NewRoomMemberList(members []database.RoomMemberInfo) []RoomMemberResponse {
	result := make([]RoomMemberResponse, len(members))
	for i, m := range members {
		result[i] = RoomMemberResponse{
			UserID:       m.Member.UserID,
			Name:         m.Member.User.Name,
			Email:        m.Member.User.Email,
			ProfileImage: m.Member.User.ProfileImage,
			Role:         m.Member.Role,
			JoinedAt:     m.Member.JoinedAt,
			IsOnline:     m.IsOnline,
			LastSeen:     m.LastSeen,
		}
	}
	return result
}

type OnlineUserResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsOnline     bool      `json:"is_online"`
	LastSeen     time.Time `json:"last_seen"`
}

func NewOnlineUserList(presences []database.UserPresence) []OnlineUserResponse {
	result := make([]OnlineUserResponse, len(presences))
	for i, p := range presences {
		result[i] = OnlineUserResponse{
			ID:           p.User.ID,
			Name:         p.User.Name,
			Email:        p.User.Email,
			ProfileImage: p.User.ProfileImage,
			IsOnline:     p.IsOnline,
			LastSeen:     p.LastSeen,
		}
	}
	return result
}
