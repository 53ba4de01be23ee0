package models

import "time"

// Message kinds.
const (
	MessageKindText       = "text"
	MessageKindSharedItem = "shared_item"
	MessageKindSystem     = "system"
)

// StrangerMessageTTL is how long a message posted in a stranger room stays
// readable before the sweep reclaims it. Bench messages never expire.
const StrangerMessageTTL = 24 * time.Hour

// ChatMessage is one message in a room. Messages are owned by their room and
// cascade away with it when the sweep hard-deletes the room.
type ChatMessage struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	RoomID string `gorm:"type:uuid;not null;index:idx_room_created" json:"room_id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`

	Kind    string `gorm:"type:text;not null;default:'text'" json:"kind"`
	Content string `gorm:"type:text;not null" json:"content"`

	// SharedItemID and SharedPurchaseID reference the catalog collaborator's
	// records when Kind is shared_item.
	SharedItemID     *uint `json:"shared_item_id,omitempty"`
	SharedPurchaseID *uint `json:"-"`

	CreatedAt time.Time `gorm:"index:idx_room_created" json:"timestamp"`
	// ExpiresAt is set to CreatedAt + StrangerMessageTTL for messages in
	// stranger rooms and left nil for benches.
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	// IsDeleted is a transient tombstone: the sweep marks expired messages
	// before hard-deleting them, and listings filter on it so a message never
	// resurfaces between the two steps.
	IsDeleted bool `gorm:"default:false" json:"-"`
}
