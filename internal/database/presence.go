package database

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/models"
	"gorm.io/gorm/clause"
)

// UpsertOnlineStatus перезаписывает зеркальную presence-запись.
// last_seen обновляется на каждом переходе.
func (d *Database) UpsertOnlineStatus(userID uuid.UUID, isOnline bool, socketID *string) error {
	now := time.Now()
	status := models.UserOnlineStatus{
		UserID:    userID,
		IsOnline:  isOnline,
		LastSeen:  now,
		SocketID:  socketID,
		UpdatedAt: now,
	}

	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_online", "last_seen", "socket_id", "updated_at",
		}),
	}).Create(&status).Error
}

// UserPresence — пользователь с его presence-состоянием
type UserPresence struct {
	User     models.User
	IsOnline bool
	LastSeen time.Time
}

// ListUsersWithPresence отдает всех, кроме запрашивающего:
// сначала онлайн, затем по имени
func (d *Database) ListUsersWithPresence(excludeUserID uuid.UUID) ([]UserPresence, error) {
	var users []models.User
	if err := d.db.Where("id <> ?", excludeUserID).Find(&users).Error; err != nil {
		return nil, err
	}

	var rows []models.UserOnlineStatus
	if err := d.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	statuses := make(map[uuid.UUID]models.UserOnlineStatus, len(rows))
	for _, row := range rows {
		statuses[row.UserID] = row
	}

	result := make([]UserPresence, len(users))
	for i, user := range users {
		result[i] = UserPresence{User: user}
		if status, ok := statuses[user.ID]; ok {
			result[i].IsOnline = status.IsOnline
			result[i].LastSeen = status.LastSeen
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsOnline != result[j].IsOnline {
			return result[i].IsOnline
		}
		return result[i].User.Name < result[j].User.Name
	})

	return result, nil
}
