package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"sketchxpad-service/internal/api/handlers"
	"sketchxpad-service/internal/api/middleware"
	"sketchxpad-service/internal/repositories/postgres"
	"sketchxpad-service/internal/services"
	"sketchxpad-service/internal/websocket"
)

type Router struct {
	engine      *gin.Engine
	wsHandler   *handlers.WebSocketHandler
	roomHandler *handlers.RoomHandler
	authHandler *handlers.AuthHandler
	userHandler *handlers.UserHandler
	rateLimitMW *middleware.RateLimitMiddleware
	authMW      *middleware.AuthMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	redisService *services.RedisService,
	chatService *services.ChatService,
	db *gorm.DB,
	jwtSecret string,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	userRepo := postgres.NewUserRepository(db)
	roomRepo := postgres.NewRoomRepository(db)

	userService := services.NewUserService(userRepo, jwtSecret)
	roomService := services.NewRoomService(roomRepo)

	return &Router{
		engine:      engine,
		wsHandler:   handlers.NewWebSocketHandler(hub, jwtSecret),
		roomHandler: handlers.NewRoomHandler(roomService, chatService),
		authHandler: handlers.NewAuthHandler(userService),
		userHandler: handlers.NewUserHandler(userService),
		rateLimitMW: middleware.NewRateLimitMiddleware(redisService),
		authMW:      middleware.NewAuthMiddleware(jwtSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// WebSocket handshake does its own identity resolution; invalid
	// tokens still get a guest session, so no auth middleware here.
	api.GET("/ws", r.wsHandler.HandleWebSocket)
	api.GET("/stats", r.wsHandler.GetStats)

	// Public routes
	public := api.Group("/")
	{
		authRoutes := public.Group("/auth")
		authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
		{
			authRoutes.POST("/signup", r.authHandler.Signup)
			authRoutes.POST("/signin", r.authHandler.Signin)
		}

		rooms := public.Group("/rooms")
		rooms.Use(r.rateLimitMW.RateLimitIP(100, time.Minute))
		{
			rooms.GET("/:slug", r.roomHandler.GetRoom)
			rooms.GET("/:slug/chats", r.roomHandler.GetRoomChats)
		}
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		rooms := auth.Group("/rooms")
		rooms.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			rooms.POST("", r.roomHandler.CreateRoom)
		}

		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/profile", r.userHandler.GetProfile)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
