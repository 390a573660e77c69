package database

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/models"
	"gorm.io/gorm"
)

const (
	StatusCreated  = "created"
	StatusExisting = "existing"
)

// EnsureMember — гейт авторизации для всех операций над комнатой.
// Возвращает ErrAccessDenied и для чужой комнаты, и для несуществующей.
func (d *Database) EnsureMember(roomID, userID uuid.UUID) (*models.RoomMember, error) {
	var member models.RoomMember
	err := d.db.
		Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	return &member, nil
}

// GetOrCreatePrivateRoom идемпотентно создает private комнату между двумя
// пользователями. Гонку одновременного создания закрывает уникальный
// pair_key: проигравший ловит duplicate key и повторяет поиск.
func (d *Database) GetOrCreatePrivateRoom(creatorID, otherID uuid.UUID) (*models.Room, string, error) {
	if room, err := d.findActivePrivateRoom(creatorID, otherID); err == nil {
		return room, StatusExisting, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	pairKey := models.PairKey(creatorID, otherID)
	now := time.Now()
	room := models.Room{
		Type:      models.RoomTypePrivate,
		PairKey:   &pairKey,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		members := []models.RoomMember{
			{RoomID: room.ID, UserID: creatorID, Role: models.RoleAdmin, JoinedAt: now, LastSeenAt: now, IsActive: true},
			{RoomID: room.ID, UserID: otherID, Role: models.RoleMember, JoinedAt: now, LastSeenAt: now, IsActive: true},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := d.findActivePrivateRoom(creatorID, otherID)
			if lookupErr != nil {
				return nil, "", lookupErr
			}
			return existing, StatusExisting, nil
		}
		return nil, "", err
	}

	return &room, StatusCreated, nil
}

// findActivePrivateRoom ищет private комнату, в которой активны ровно эти
// два участника. Требование "ровно два активных" отсекает group комнаты
// с той же парой и брошенные private комнаты.
func (d *Database) findActivePrivateRoom(userA, userB uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := d.db.
		Joins("JOIN chat_room_members m1 ON m1.room_id = chat_rooms.id AND m1.user_id = ? AND m1.is_active = ?", userA, true).
		Joins("JOIN chat_room_members m2 ON m2.room_id = chat_rooms.id AND m2.user_id = ? AND m2.is_active = ?", userB, true).
		Where("chat_rooms.type = ?", models.RoomTypePrivate).
		Where("(SELECT COUNT(*) FROM chat_room_members cm WHERE cm.room_id = chat_rooms.id AND cm.is_active = ?) = 2", true).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateGroupRoom создает group комнату, создатель становится админом
func (d *Database) CreateGroupRoom(name, description string, creatorID uuid.UUID, memberIDs []uuid.UUID) (*models.Room, error) {
	now := time.Now()
	room := models.Room{
		Name:        name,
		Type:        models.RoomTypeGroup,
		Description: description,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}

		members := []models.RoomMember{
			{RoomID: room.ID, UserID: creatorID, Role: models.RoleAdmin, JoinedAt: now, LastSeenAt: now, IsActive: true},
		}
		for _, id := range memberIDs {
			if id == creatorID {
				continue
			}
			members = append(members, models.RoomMember{
				RoomID: room.ID, UserID: id, Role: models.RoleMember,
				JoinedAt: now, LastSeenAt: now, IsActive: true,
			})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, err
	}

	return &room, nil
}

// DeactivateMembership мягко отключает участие, историю не трогает.
// У private комнаты освобождает pair_key, чтобы новая пара получила
// новую комнату.
func (d *Database) DeactivateMembership(roomID, userID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RoomMember{}).
			Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccessDenied
		}

		return tx.Model(&models.Room{}).
			Where("id = ? AND type = ?", roomID, models.RoomTypePrivate).
			Update("pair_key", nil).Error
	})
}

// ActiveRoomIDs возвращает комнаты с активным участием пользователя
func (d *Database) ActiveRoomIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.Model(&models.RoomMember{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("room_id", &ids).Error
	return ids, err
}

// TouchRoom обновляет updated_at после нового сообщения
func (d *Database) TouchRoom(roomID uuid.UUID) error {
	return d.db.Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("updated_at", time.Now()).Error
}

// RoomSummary — строка списка комнат пользователя
type RoomSummary struct {
	Room              models.Room
	DisplayName       string
	AvatarURL         string
	LastMessage       *models.Message
	UnreadCount       int64
	MemberCount       int64
	CounterpartID     *uuid.UUID
	CounterpartOnline bool
}

// ListRoomsForUser собирает сводки комнат: имя собеседника для private,
// превью последнего сообщения, непрочитанные, онлайн-статус собеседника.
// Сортировка по времени последнего сообщения, затем по созданию комнаты.
func (d *Database) ListRoomsForUser(userID uuid.UUID) ([]RoomSummary, error) {
	roomIDs, err := d.ActiveRoomIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(roomIDs) == 0 {
		return []RoomSummary{}, nil
	}

	var rooms []models.Room
	if err := d.db.Where("id IN ?", roomIDs).Find(&rooms).Error; err != nil {
		return nil, err
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := RoomSummary{
			Room:        room,
			DisplayName: room.Name,
			AvatarURL:   room.AvatarURL,
		}

		if err := d.db.Model(&models.RoomMember{}).
			Where("room_id = ? AND is_active = ?", room.ID, true).
			Count(&summary.MemberCount).Error; err != nil {
			return nil, err
		}

		if room.Type == models.RoomTypePrivate {
			var counterpart models.RoomMember
			err := d.db.Preload("User").
				Where("room_id = ? AND user_id <> ? AND is_active = ?", room.ID, userID, true).
				First(&counterpart).Error
			if err == nil {
				id := counterpart.UserID
				summary.CounterpartID = &id
				summary.DisplayName = counterpart.User.Name
				summary.AvatarURL = counterpart.User.ProfileImage

				var status models.UserOnlineStatus
				if err := d.db.First(&status, "user_id = ?", counterpart.UserID).Error; err == nil {
					summary.CounterpartOnline = status.IsOnline
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}

		var last models.Message
		err := d.db.Preload("Sender").
			Where("room_id = ? AND is_deleted = ?", room.ID, false).
			Order("created_at DESC").
			First(&last).Error
		if err == nil {
			summary.LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		count, err := d.UnreadCount(room.ID, userID)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = count

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaryActivity(summaries[i]).After(summaryActivity(summaries[j]))
	})

	return summaries, nil
}

func summaryActivity(s RoomSummary) time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.Room.CreatedAt
}

// RoomMemberInfo — участник комнаты с presence-данными
type RoomMemberInfo struct {
	Member   models.RoomMember
	IsOnline bool
	LastSeen time.Time
}

// ListRoomMembers возвращает активных участников: сначала админы, затем по имени
func (d *Database) ListRoomMembers(roomID uuid.UUID) ([]RoomMemberInfo, error) {
	var members []models.RoomMember
	err := d.db.Preload("User").
		Joins("JOIN users ON users.id = chat_room_members.user_id").
		Where("chat_room_members.room_id = ? AND chat_room_members.is_active = ?", roomID, true).
		Order("chat_room_members.role ASC, users.name ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, len(members))
	for i, m := range members {
		userIDs[i] = m.UserID
	}

	statuses := make(map[uuid.UUID]models.UserOnlineStatus)
	if len(userIDs) > 0 {
		var rows []models.UserOnlineStatus
		if err := d.db.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			statuses[row.UserID] = row
		}
	}

	infos := make([]RoomMemberInfo, len(members))
	for i, m := range members {
		infos[i] = RoomMemberInfo{Member: m}
		if status, ok := statuses[m.UserID]; ok {
			infos[i].IsOnline = status.IsOnline
			infos[i].LastSeen = status.LastSeen
		}
	}

	return infos, nil
}
