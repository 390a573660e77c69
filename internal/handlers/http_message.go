package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/handlers/dto"
	"github.com/nakarin/sociochat/internal/middleware"
	"github.com/nakarin/sociochat/internal/models"
)

const maxUploadSize = 10 << 20 // 10MB

// HTTPMessageHandler — мост для клиентов без realtime-соединения
type HTTPMessageHandler struct {
	db          *database.Database
	chatHandler *ChatHandler
	uploadDir   string
}

func NewHTTPMessageHandler(db *database.Database, chatHandler *ChatHandler) *HTTPMessageHandler {
	return &HTTPMessageHandler{
		db:          db,
		chatHandler: chatHandler,
		uploadDir:   filepath.Join("public", "uploads", "chat"),
	}
}

// GetRoomMessages отдает страницу истории: limit/offset, старые первыми
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
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

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	messages, previews, err := h.db.GetRoomMessages(roomID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageList(messages, previews))
}

// SendMessage отправляет сообщение через HTTP (альтернатива WebSocket)
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req dto.SendMessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, preview, err := h.db.PostMessage(roomID, userID, req.Content, req.MessageType, req.ReplyTo)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}

	resp := dto.NewMessageResponse(message, preview)
	h.chatHandler.BroadcastNewMessage(roomID, resp)

	c.JSON(http.StatusCreated, resp)
}

// UploadFile принимает файл, создает image/file сообщение с вложением
// и рассылает его в комнату
func (h *HTTPMessageHandler) UploadFile(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.PostForm("room_id"))
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

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	filename := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
	storagePath := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, storagePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	messageType := models.MessageTypeFile
	if strings.HasPrefix(contentType, "image/") {
		messageType = models.MessageTypeImage
	}

	message, _, err := h.db.PostMessage(roomID, userID, file.Filename, messageType, nil)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}

	attachment := &models.Attachment{
		MessageID:    message.ID,
		Filename:     filename,
		OriginalName: file.Filename,
		FileSize:     file.Size,
		FileType:     contentType,
		FilePath:     filepath.ToSlash(storagePath),
		CreatedAt:    time.Now(),
	}
	if err := h.db.SaveAttachment(attachment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save attachment"})
		return
	}

	// Перечитываем, чтобы в броадкасте было вложение
	full, err := h.db.GetMessage(message.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.NewMessageResponse(full, nil)
	h.chatHandler.BroadcastNewMessage(roomID, resp)

	c.JSON(http.StatusCreated, resp)
}

// EditMessage правит контент, только автору
func (h *HTTPMessageHandler) EditMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.db.EditMessage(messageID, userID, req.Content)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(message, nil))
}

// DeleteMessage мягко удаляет сообщение автора
func (h *HTTPMessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.db.SoftDeleteMessage(messageID, userID); err != nil {
		h.writeMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}

func (h *HTTPMessageHandler) writeMessageError(c *gin.Context, err error) {
	switch {
	case IsAccessDenied(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, database.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
