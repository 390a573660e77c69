package server

import (
	"github.com/gin-gonic/gin"
	"github.com/nakarin/sociochat/internal/middleware"
)

func APIEndpoints(r *gin.Engine, s *Server) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", s.AuthH.Register)
		auth.POST("/login", s.AuthH.Login)
		auth.POST("/logout", s.AuthH.Logout)
	}

	// Раздача загруженных файлов
	r.Static("/uploads", "./public/uploads")

	// API endpoints
	api := r.Group("/api", middleware.AuthMiddleware(s.JWTManager, s.Redis))
	{
		users := api.Group("/users")
		{
			users.GET("/me", s.UserH.GetMe)
			users.GET("/search", s.UserH.SearchUsers)
			users.GET("/:id", s.UserH.GetUser)
		}

		chat := api.Group("/chat")
		{
			chat.GET("/rooms", s.RoomH.GetMyRooms)
			chat.POST("/rooms/private", s.RoomH.CreatePrivateRoom)
			chat.POST("/rooms/group", s.RoomH.CreateGroupRoom)
			chat.GET("/rooms/:id/messages", s.MessageH.GetRoomMessages)
			chat.POST("/rooms/:id/messages", s.MessageH.SendMessage)
			chat.GET("/rooms/:id/members", s.RoomH.GetRoomMembers)
			chat.DELETE("/rooms/:id/members/me", s.RoomH.LeaveRoom)
			chat.PUT("/messages/:id", s.MessageH.EditMessage)
			chat.DELETE("/messages/:id", s.MessageH.DeleteMessage)
			chat.GET("/online-users", s.RoomH.GetOnlineUsers)
			chat.POST("/upload", s.MessageH.UploadFile)
		}
	}

	// WebSocket endpoint
	r.GET("/ws", middleware.WSAuthMiddleware(s.JWTManager, s.Redis), s.WSH.HandleWebSocket)
}
