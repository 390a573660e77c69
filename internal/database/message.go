package database

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplyPreview — контент и автор сообщения, на которое ответили
type ReplyPreview struct {
	Content    string
	SenderName string
}

// PostMessage проверяет членство, валидирует контент и сохраняет сообщение.
// reply_to на чужую комнату или несуществующее сообщение молча обнуляется.
func (d *Database) PostMessage(roomID, senderID uuid.UUID, content, messageType string, replyTo *uuid.UUID) (*models.Message, *ReplyPreview, error) {
	if _, err := d.EnsureMember(roomID, senderID); err != nil {
		return nil, nil, err
	}

	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if messageType == models.MessageTypeText {
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, nil, ErrEmptyMessage
		}
	}

	replyTo = d.resolveReplyTo(roomID, replyTo)

	now := time.Now()
	message := models.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		ReplyTo:     replyTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := d.db.Create(&message).Error; err != nil {
		return nil, nil, err
	}

	if err := d.db.Preload("Sender").Preload("Attachments").
		First(&message, "id = ?", message.ID).Error; err != nil {
		return nil, nil, err
	}

	preview, err := d.replyPreview(message.ReplyTo)
	if err != nil {
		return nil, nil, err
	}

	if err := d.TouchRoom(roomID); err != nil {
		return nil, nil, err
	}

	return &message, preview, nil
}

func (d *Database) resolveReplyTo(roomID uuid.UUID, replyTo *uuid.UUID) *uuid.UUID {
	if replyTo == nil {
		return nil
	}
	var ref models.Message
	if err := d.db.First(&ref, "id = ?", *replyTo).Error; err != nil {
		return nil
	}
	if ref.RoomID != roomID {
		return nil
	}
	return replyTo
}

func (d *Database) replyPreview(replyTo *uuid.UUID) (*ReplyPreview, error) {
	if replyTo == nil {
		return nil, nil
	}
	var ref models.Message
	err := d.db.Preload("Sender").First(&ref, "id = ?", *replyTo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ReplyPreview{Content: ref.Content, SenderName: ref.Sender.Name}, nil
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.Preload("Sender").Preload("Attachments").
		First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// GetRoomMessages отдает limit свежих неудаленных сообщений со смещением,
// развернутых в хронологический порядок, с вложениями и превью ответов
func (d *Database) GetRoomMessages(roomID uuid.UUID, limit, offset int) ([]models.Message, map[uuid.UUID]ReplyPreview, error) {
	var messages []models.Message

	err := d.db.Preload("Sender").Preload("Attachments").
		Where("room_id = ? AND is_deleted = ?", roomID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, nil, err
	}

	// Старые сообщения первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	previews := make(map[uuid.UUID]ReplyPreview)
	for _, msg := range messages {
		if msg.ReplyTo == nil {
			continue
		}
		if _, ok := previews[*msg.ReplyTo]; ok {
			continue
		}
		preview, err := d.replyPreview(msg.ReplyTo)
		if err != nil {
			return nil, nil, err
		}
		if preview != nil {
			previews[*msg.ReplyTo] = *preview
		}
	}

	return messages, previews, nil
}

// MarkMessagesRead ставит расписки на все непрочитанные чужие сообщения
// комнаты. Идемпотентна: повторные расписки гасятся ON CONFLICT DO NOTHING.
func (d *Database) MarkMessagesRead(roomID, userID uuid.UUID) error {
	var unreadIDs []uuid.UUID
	err := d.db.Model(&models.Message{}).
		Where("room_id = ? AND sender_id <> ? AND is_deleted = ?", roomID, userID, false).
		Where("id NOT IN (?)", d.db.Model(&models.MessageRead{}).
			Select("message_id").
			Where("user_id = ?", userID)).
		Pluck("id", &unreadIDs).Error
	if err != nil {
		return err
	}

	now := time.Now()
	if len(unreadIDs) > 0 {
		reads := make([]models.MessageRead, len(unreadIDs))
		for i, id := range unreadIDs {
			reads[i] = models.MessageRead{MessageID: id, UserID: userID, ReadAt: now}
		}
		if err := d.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&reads).Error; err != nil {
			return err
		}
	}

	return d.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
		Update("last_seen_at", now).Error
}

// UnreadCount — чужие неудаленные сообщения комнаты без расписки пользователя
func (d *Database) UnreadCount(roomID, userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).
		Where("room_id = ? AND sender_id <> ? AND is_deleted = ?", roomID, userID, false).
		Where("id NOT IN (?)", d.db.Model(&models.MessageRead{}).
			Select("message_id").
			Where("user_id = ?", userID)).
		Count(&count).Error
	return count, err
}

// EditMessage меняет контент и поднимает флаг is_edited, только для автора
func (d *Database) EditMessage(messageID, userID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	res := d.db.Model(&models.Message{}).
		Where("id = ? AND sender_id = ? AND is_deleted = ?", messageID, userID, false).
		Updates(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAccessDenied
	}

	return d.GetMessage(messageID.String())
}

// SoftDeleteMessage только поднимает флаг: физическое удаление сломало бы
// цепочки ответов
func (d *Database) SoftDeleteMessage(messageID, userID uuid.UUID) error {
	res := d.db.Model(&models.Message{}).
		Where("id = ? AND sender_id = ?", messageID, userID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccessDenied
	}
	return nil
}

// SaveAttachment пишет метаданные файла, прикрепленного к сообщению
func (d *Database) SaveAttachment(attachment *models.Attachment) error {
	return d.db.Create(attachment).Error
}
