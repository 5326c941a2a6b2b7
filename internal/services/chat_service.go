package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sketchxpad-service/internal/adapters/kafka"
	"sketchxpad-service/internal/models"
	"sketchxpad-service/internal/repositories/postgres"
)

// ChatService persists chat messages coming off the hub and serves
// room history over HTTP. It satisfies the hub's ChatStore interface.
type ChatService struct {
	repo     *postgres.ChatRepository
	archiver *kafka.ChatArchiver
}

func NewChatService(repo *postgres.ChatRepository, archiver *kafka.ChatArchiver) *ChatService {
	return &ChatService{
		repo:     repo,
		archiver: archiver,
	}
}

func (s *ChatService) SaveChat(ctx context.Context, roomID, userID, message string) error {
	chat := &models.Chat{
		ID:      uuid.New().String(),
		RoomID:  roomID,
		UserID:  userID,
		Message: message,
	}

	if err := s.repo.Create(ctx, chat); err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}

	// Archiving is advisory; a broker outage must not fail the save.
	if s.archiver != nil {
		if err := s.archiver.Archive(chat); err != nil {
			slog.Warn("chat archive failed", "chatId", chat.ID, "error", err)
		}
	}

	return nil
}

func (s *ChatService) GetRoomChats(ctx context.Context, roomID string, limit int) ([]models.ChatResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	chats, err := s.repo.FindByRoomID(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}

	responses := make([]models.ChatResponse, len(chats))
	for i, chat := range chats {
		responses[i] = models.ChatResponse{
			ID:        chat.ID,
			RoomID:    chat.RoomID,
			UserID:    chat.UserID,
			Message:   chat.Message,
			CreatedAt: chat.CreatedAt,
		}
	}
	return responses, nil
}
