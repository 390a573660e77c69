package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/handlers/dto"
	"github.com/nakarin/sociochat/internal/middleware"
)

type RoomHandler struct {
	db *database.Database
}

func NewRoomHandler(db *database.Database) *RoomHandler {
	return &RoomHandler{db: db}
}

// GetMyRooms отдает сводки комнат пользователя, свежие сверху
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	summaries, err := h.db.ListRoomsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	c.JSON(http.StatusOK, dto.NewRoomSummaryList(summaries))
}

// CreatePrivateRoom создает или возвращает существующую private комнату
func (h *RoomHandler) CreatePrivateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if otherID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot create private room with yourself"})
		return
	}

	other, err := h.db.GetUser(otherID.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	room, status, err := h.db.GetOrCreatePrivateRoom(userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create private room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         room.ID,
		"type":       room.Type,
		"name":       other.Name,
		"avatar":     other.ProfileImage,
		"created_at": room.CreatedAt,
		"status":     status,
	})
}

// CreateGroupRoom создает group комнату, создатель становится админом
func (h *RoomHandler) CreateGroupRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		MemberIDs   []string `json:"member_ids"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}
		memberIDs = append(memberIDs, id)
	}

	room, err := h.db.CreateGroupRoom(req.Name, req.Description, userID, memberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          room.ID,
		"name":        room.Name,
		"type":        room.Type,
		"description": room.Description,
		"created_by":  room.CreatedBy,
		"created_at":  room.CreatedAt,
	})
}

// GetRoomMembers отдает активных участников комнаты
func (h *RoomHandler) GetRoomMembers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if _, err := h.db.EnsureMember(roomID, userID); err != nil {
		if IsAccessDenied(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	members, err := h.db.ListRoomMembers(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get members"})
		return
	}

	c.JSON(http.StatusOK, dto.NewRoomMemberList(members))
}

// LeaveRoom деактивирует членство (мягко, история остается)
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.db.DeactivateMembership(roomID, userID); err != nil {
		if IsAccessDenied(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

// GetOnlineUsers — HTTP-паритет события get_online_users
func (h *RoomHandler) GetOnlineUsers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	presences, err := h.db.ListUsersWithPresence(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get online users"})
		return
	}

	c.JSON(http.StatusOK, dto.NewOnlineUserList(presences))
}
