package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"gorm.io/gorm"
)

// Invite statuses.
const (
	InviteStatusActive  = "active"
	InviteStatusUsed    = "used"
	InviteStatusExpired = "expired"
)

const (
	// InviteTTL is the default lifetime of a bench invite.
	InviteTTL = 7 * 24 * time.Hour

	// InviteMaxUses is the default number of joins one invite allows.
	InviteMaxUses = 10

	// inviteCodeBytes sizes the random invite token. 16 bytes keeps the code
	// unguessable enough to act as an unauthenticated bearer capability.
	inviteCodeBytes = 16
)

// BenchInvite is a shareable join capability for a bench room. The code is a
// random token; whoever presents it may join, so validity is checked on every
// use rather than trusted from the stored status alone.
type BenchInvite struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;not null" json:"code"`

	RoomID      string `gorm:"type:uuid;not null;index" json:"room_id"`
	CreatedByID uint   `gorm:"not null"`

	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	MaxUses     int       `gorm:"default:10" json:"max_uses"`
	CurrentUses int       `gorm:"default:0" json:"current_uses"`
	Status      string    `gorm:"type:text;not null;default:'active'" json:"status"`
}

// BeforeCreate fills in the random code and the default expiry.
func (i *BenchInvite) BeforeCreate(tx *gorm.DB) error {
	if i.Code == "" {
		code, err := generateInviteCode()
		if err != nil {
			return err
		}
		i.Code = code
	}
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = time.Now().Add(InviteTTL)
	}
	if i.MaxUses == 0 {
		i.MaxUses = InviteMaxUses
	}
	if i.Status == "" {
		i.Status = InviteStatusActive
	}
	return nil
}

// IsExhausted reports whether the invite has run out of time or uses.
func (i *BenchInvite) IsExhausted(now time.Time) bool {
	return now.After(i.ExpiresAt) || i.CurrentUses >= i.MaxUses
}

// IsValid reports whether the invite can still be redeemed.
func (i *BenchInvite) IsValid(now time.Time) bool {
	return i.Status == InviteStatusActive && !i.IsExhausted(now)
}

func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
