package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/models"
)

type AttachmentResponse struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	FilePath     string    `json:"file_path"`
}

// MessageResponse — сообщение, обогащенное данными отправителя
// и превью ответа
type MessageResponse struct {
	ID              uuid.UUID            `json:"id"`
	RoomID          uuid.UUID            `json:"room_id"`
	SenderID        uuid.UUID            `json:"sender_id"`
	SenderName      string               `json:"sender_name"`
	SenderAvatar    string               `json:"sender_avatar,omitempty"`
	Content         string               `json:"content"`
	MessageType     string               `json:"message_type"`
	ReplyTo         *uuid.UUID           `json:"reply_to,omitempty"`
	ReplyContent    string               `json:"reply_content,omitempty"`
	ReplySenderName string               `json:"reply_sender_name,omitempty"`
	IsEdited        bool                 `json:"is_edited"`
	CreatedAt       time.Time            `json:"created_at"`
	Attachments     []AttachmentResponse `json:"attachments,omitempty"`
}

func NewMessageResponse(msg *models.Message, preview *database.ReplyPreview) MessageResponse {
	resp := MessageResponse{
		ID:           msg.ID,
		RoomID:       msg.RoomID,
		SenderID:     msg.SenderID,
		SenderName:   msg.Sender.Name,
		SenderAvatar: msg.Sender.ProfileImage,
		Content:      msg.Content,
		MessageType:  msg.MessageType,
		ReplyTo:      msg.ReplyTo,
		IsEdited:     msg.IsEdited,
		CreatedAt:    msg.CreatedAt,
	}

	if preview != nil {
		resp.ReplyContent = preview.Content
		resp.ReplySenderName = preview.SenderName
	}

	for _, a := range msg.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:           a.ID,
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			FileSize:     a.FileSize,
			FileType:     a.FileType,
			FilePath:     a.FilePath,
		})
	}

	return resp
}

// NewMessageList собирает страницу истории с превью ответов
func NewMessageList(messages []models.Message, previews map[uuid.UUID]database.ReplyPreview) []MessageResponse {
	result := make([]MessageResponse, len(messages))
	for i := range messages {
		var preview *database.ReplyPreview
		if messages[i].ReplyTo != nil {
			if p, ok := previews[*messages[i].ReplyTo]; ok {
				preview = &p
			}
		}
		result[i] = NewMessageResponse(&messages[i], preview)
	}
	return result
}
