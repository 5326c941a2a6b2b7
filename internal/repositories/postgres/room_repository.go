package postgres

import (
	"errors"
	"fmt"

	"sketchxpad-service/internal/models"

	"gorm.io/gorm"
)

var ErrSlugExists = errors.New("room slug already exists")

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Room
		if err := tx.Where("slug = ?", room.Slug).First(&existing).Error; err == nil {
			return ErrSlugExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check slug existence: %w", err)
		}

		if err := tx.Create(room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		return nil
	})
}

func (r *RoomRepository) FindBySlug(slug string) (*models.Room, error) {
	var room models.Room
	if err := r.db.Where("slug = ?", slug).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) FindByID(id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}
