package main

// @title           SketchXpad Service API
// @version         1.0
// @description     Real-time room hub for collaborative drawing and chat
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "sketchxpad-service/docs"
	"sketchxpad-service/internal/adapters/kafka"
	"sketchxpad-service/internal/api/routes"
	"sketchxpad-service/internal/config"
	"sketchxpad-service/internal/database"
	"sketchxpad-service/internal/repositories/postgres"
	"sketchxpad-service/internal/services"
	"sketchxpad-service/internal/websocket"
)

func setupLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting sketchxpad service")

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it presence tracking and rate
	// limiting degrade gracefully.
	var redisService *services.RedisService
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisConnection(cfg.Redis.URL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		redisService = services.NewRedisService(redisClient)
	} else {
		slog.Warn("REDIS_URL not set, running without redis")
	}

	// Kafka archiving is optional too.
	var archiver *kafka.ChatArchiver
	if len(cfg.Kafka.Brokers) > 0 {
		archiver, err = kafka.NewChatArchiver(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			slog.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		defer archiver.Close()
	}

	chatRepo := postgres.NewChatRepository(db)
	chatService := services.NewChatService(chatRepo, archiver)

	var status websocket.StatusTracker
	if redisService != nil {
		status = redisService
	}

	hub := websocket.NewHub(chatService, status)
	go hub.Run()

	router := routes.NewRouter(
		hub,
		redisService,
		chatService,
		db,
		cfg.JWT.Secret,
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
