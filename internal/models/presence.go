package models

import "time"

// UserPresence tracks per-user online/availability state. One row per user,
// created lazily on first authenticated request and never deleted.
//
// IsOnline is a stored flag refreshed by activity touches and flipped off by
// the presence sweep, but callers must never trust it alone: the authoritative
// check is IsCurrentlyOnline, which re-derives the state from LastActivityAt.
type UserPresence struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`

	LastActivityAt        time.Time
	IsOnline              bool `gorm:"default:false"`
	IsAvailableForChat    bool `gorm:"default:true"`
	LookingForStrangerChat bool `gorm:"default:false"`
}

// OnlineWindow is how recently a user must have been active to count as online.
const OnlineWindow = 5 * time.Minute

// IsCurrentlyOnline reports whether the user is online at the given instant:
// the stored flag must be set AND the last activity must fall inside the
// online window. Recomputing on read avoids depending on the sweep running on
// schedule.
func (p *UserPresence) IsCurrentlyOnline(now time.Time) bool {
	if !p.IsOnline {
		return false
	}
	return now.Sub(p.LastActivityAt) < OnlineWindow
}
