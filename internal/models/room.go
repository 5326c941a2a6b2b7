package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Room is the durable record behind a room slug. The live hub never
// reads this table; it treats room ids as opaque strings and a room
// "exists" there only while it has members.
type Room struct {
	gorm.Model
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	AdminID uint   `gorm:"not null" json:"adminId"`
	Admin   User   `gorm:"foreignKey:AdminID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateRoomRequest struct {
	RoomName string `json:"roomName" binding:"required,min=3,max=20"`
}

// Response
type RoomResponse struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	AdminID   uint      `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
}
