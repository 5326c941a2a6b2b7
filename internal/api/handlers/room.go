package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sketchxpad-service/internal/models"
	"sketchxpad-service/internal/services"
)

type RoomHandler struct {
	roomService *services.RoomService
	chatService *services.ChatService
}

func NewRoomHandler(roomService *services.RoomService, chatService *services.ChatService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		chatService: chatService,
	}
}

// CreateRoom godoc
// @Summary Create a room
// @Description Create a named drawing room owned by the caller
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateRoomRequest true "Room data"
// @Success 201 {object} models.RoomResponse "Room created"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid input data"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 409 {object} models.ErrorResponse "Room already exists"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	adminID, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "Unauthorized",
		})
		return
	}

	room, err := h.roomService.CreateRoom(adminID.(uint), &req)
	if err != nil {
		if errors.Is(err, services.ErrRoomExists) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "Room already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create room",
		})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// GetRoom godoc
// @Summary Resolve a room by slug
// @Tags rooms
// @Produce json
// @Param slug path string true "Room slug"
// @Success 200 {object} models.RoomResponse "Room found"
// @Failure 404 {object} models.ErrorResponse "Room not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /rooms/{slug} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoomBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Room not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load room",
		})
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetRoomChats godoc
// @Summary Chat history for a room
// @Description Persisted chat messages, oldest first
// @Tags rooms
// @Produce json
// @Param slug path string true "Room slug"
// @Param limit query int false "Max messages to return" default(50)
// @Success 200 {array} models.ChatResponse "Messages"
// @Failure 404 {object} models.ErrorResponse "Room not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /rooms/{slug}/chats [get]
func (h *RoomHandler) GetRoomChats(c *gin.Context) {
	slug := c.Param("slug")

	if _, err := h.roomService.GetRoomBySlug(slug); err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Room not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load room",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	chats, err := h.chatService.GetRoomChats(c.Request.Context(), slug, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load chats",
		})
		return
	}

	c.JSON(http.StatusOK, chats)
}
