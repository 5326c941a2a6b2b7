package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sketchxpad-service/internal/models"
	"sketchxpad-service/internal/repositories/postgres"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

type RoomService struct {
	repo *postgres.RoomRepository
}

func NewRoomService(repo *postgres.RoomRepository) *RoomService {
	return &RoomService{repo: repo}
}

// slugify turns a display name into the url-safe slug that doubles as
// the hub room id.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}

func (s *RoomService) CreateRoom(adminID uint, req *models.CreateRoomRequest) (*models.RoomResponse, error) {
	room := models.Room{
		Slug:    slugify(req.RoomName),
		AdminID: adminID,
	}

	if err := s.repo.Create(&room); err != nil {
		if errors.Is(err, postgres.ErrSlugExists) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &models.RoomResponse{
		ID:        room.ID,
		Slug:      room.Slug,
		AdminID:   room.AdminID,
		CreatedAt: room.CreatedAt,
	}, nil
}

func (s *RoomService) GetRoomBySlug(slug string) (*models.RoomResponse, error) {
	room, err := s.repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return &models.RoomResponse{
		ID:        room.ID,
		Slug:      room.Slug,
		AdminID:   room.AdminID,
		CreatedAt: room.CreatedAt,
	}, nil
}
