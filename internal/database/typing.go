package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/models"
	"gorm.io/gorm/clause"
)

// Зеркало typing-маркеров. Авторитетная копия — в памяти координатора,
// таблица нужна только для отображения и переживает нечистые дисконнекты
// благодаря свиперу.

func (d *Database) UpsertTyping(roomID, userID uuid.UUID) error {
	marker := models.TypingIndicator{
		RoomID:    roomID,
		UserID:    userID,
		StartedAt: time.Now(),
	}

	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"started_at"}),
	}).Create(&marker).Error
}

func (d *Database) DeleteTyping(roomID, userID uuid.UUID) error {
	return d.db.
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.TypingIndicator{}).Error
}

// DeleteTypingByUser чистит все маркеры пользователя при дисконнекте
func (d *Database) DeleteTypingByUser(userID uuid.UUID) error {
	return d.db.
		Where("user_id = ?", userID).
		Delete(&models.TypingIndicator{}).Error
}

// DeleteTypingBefore удаляет протухшие маркеры, возвращает число удаленных
func (d *Database) DeleteTypingBefore(cutoff time.Time) (int64, error) {
	res := d.db.
		Where("started_at < ?", cutoff).
		Delete(&models.TypingIndicator{})
	return res.RowsAffected, res.Error
}
