package models

import "time"

/** --------------------ENTITIES-------------------- */
// Chat is one persisted chat message. RoomID and UserID are strings:
// the hub addresses rooms by opaque id and a sender may be a guest
// identity with no users row.
type Chat struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	RoomID    string    `gorm:"index;not null" json:"roomId"`
	UserID    string    `gorm:"not null" json:"userId"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */
// Response
type ChatResponse struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
