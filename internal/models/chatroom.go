package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room kinds.
const (
	RoomKindStranger = "stranger"
	RoomKindBench    = "bench"
)

const (
	// StrangerRoomTTL is how long a stranger room lives after creation.
	StrangerRoomTTL = time.Hour

	// DefaultMaxParticipants caps room membership.
	DefaultMaxParticipants = 4
)

// ChatRoom is a chat session between users. Stranger rooms are ephemeral and
// always carry an expiry; bench rooms are persistent, named and normally never
// expire. Rooms are deactivated (not deleted) when they empty out or expire;
// the sweep hard-deletes them later together with their messages and invites.
type ChatRoom struct {
	ID uint `gorm:"primaryKey"`
	// RoomID is the opaque public identifier, stable across the room's life.
	RoomID string `gorm:"type:uuid;uniqueIndex;not null" json:"room_id"`

	Kind            string `gorm:"type:text;not null;default:'stranger'" json:"kind"`
	Name            string `gorm:"type:text;not null" json:"name"`
	MaxParticipants int    `gorm:"default:4" json:"max_participants"`

	CreatedByID uint `gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	// ExpiresAt is the single authoritative source for all remaining-time
	// derivations. Always set for stranger rooms, normally nil for benches.
	ExpiresAt *time.Time `json:"expires_at"`
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
}

// BeforeCreate assigns the public RoomID and pins the stranger-room expiry.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.RoomID == "" {
		r.RoomID = uuid.New().String()
	}
	if r.MaxParticipants == 0 {
		r.MaxParticipants = DefaultMaxParticipants
	}
	if r.Kind == RoomKindStranger && r.ExpiresAt == nil {
		expires := time.Now().Add(StrangerRoomTTL)
		r.ExpiresAt = &expires
	}
	return nil
}

// IsExpired reports whether the room is past its expiry.
func (r *ChatRoom) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// TimeRemaining returns the time left before expiry, zero if already expired
// or if the room never expires.
func (r *ChatRoom) TimeRemaining(now time.Time) time.Duration {
	if r.ExpiresAt == nil {
		return 0
	}
	if remaining := r.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// DisplayName renders the user-facing room title.
func (r *ChatRoom) DisplayName(now time.Time) string {
	if r.Kind != RoomKindStranger {
		return r.Name
	}
	if remaining := r.TimeRemaining(now); remaining > 0 {
		return fmt.Sprintf("Stranger Chat (expires in %d min)", int(remaining.Minutes()))
	}
	return "Stranger Chat (expired)"
}

// RoomParticipant is one side of the room membership relation. The composite
// unique index keeps a user from being added to the same room twice and lets
// the participant cap be re-validated with a count inside the joining
// transaction.
type RoomParticipant struct {
	ID       uint   `gorm:"primaryKey"`
	RoomID   string `gorm:"type:uuid;not null;uniqueIndex:idx_room_user"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_room_user;index"`
	JoinedAt time.Time
}
