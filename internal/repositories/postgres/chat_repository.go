package postgres

import (
	"context"

	"sketchxpad-service/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// FindByRoomID returns the latest limit messages for a room, oldest
// first, so clients seeding their state replay the most recent history
// in order.
func (r *ChatRepository) FindByRoomID(ctx context.Context, roomID string, limit int) ([]*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	reverseChats(chats)
	return chats, nil
}

// reverseChats flips a descending query result back into replay order.
func reverseChats(chats []*models.Chat) {
	for i, j := 0, len(chats)-1; i < j; i, j = i+1, j-1 {
		chats[i], chats[j] = chats[j], chats[i]
	}
}
