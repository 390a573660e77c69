package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/nakarin/sociochat/internal/database"
	"github.com/nakarin/sociochat/internal/handlers"
	ws "github.com/nakarin/sociochat/internal/websocket"
	"github.com/nakarin/sociochat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
	Presence   *ws.PresenceTracker
	Typing     *ws.TypingCoordinator

	AuthH    *handlers.AuthHandler
	UserH    *handlers.UserHandler
	RoomH    *handlers.RoomHandler
	MessageH *handlers.HTTPMessageHandler
	ChatH    *handlers.ChatHandler
	WSH      *handlers.WebSocketHandler

	typingCancel context.CancelFunc
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	hub := ws.NewHub()
	go hub.Run()

	presence := ws.NewPresenceTracker()

	typing := ws.NewTypingCoordinator(dbConn)
	typingCtx, typingCancel := context.WithCancel(context.Background())
	go typing.Run(typingCtx)

	chatH := handlers.NewChatHandler(dbConn, hub, presence, typing)
	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn)
	roomH := handlers.NewRoomHandler(dbConn)
	messageH := handlers.NewHTTPMessageHandler(dbConn, chatH)
	wsH := handlers.NewWebSocketHandler(dbConn, hub, chatH)

	router := gin.Default()

	srv := &Server{
		Router:       router,
		DB:           dbConn,
		Redis:        rdb,
		JWTManager:   jwtMgr,
		Hub:          hub,
		Presence:     presence,
		Typing:       typing,
		AuthH:        authH,
		UserH:        userH,
		RoomH:        roomH,
		MessageH:     messageH,
		ChatH:        chatH,
		WSH:          wsH,
		typingCancel: typingCancel,
	}

	APIEndpoints(router, srv)

	return srv
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}

// Shutdown останавливает фоновые циклы
func (s *Server) Shutdown() {
	s.typingCancel()
	s.Hub.Stop()
}
