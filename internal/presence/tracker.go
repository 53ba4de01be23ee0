// Package presence tracks per-user online and availability state. Online
// status is a derivation over the last activity timestamp, refreshed on every
// authenticated request, so nothing depends on a background flipper running
// exactly on schedule.
package presence

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"log"
	"time"
)

// Tracker records activity and answers presence queries.
type Tracker struct {
	Storage storage.Storage
}

// NewTracker creates a new presence tracker.
func NewTracker(s storage.Storage) *Tracker {
	return &Tracker{Storage: s}
}

// Touch records activity for the user: the durable presence row is refreshed
// and a Redis heartbeat key is set with the online-window TTL. The heartbeat
// is best-effort; the row is what matching trusts.
func (t *Tracker) Touch(userID uint) error {
	if err := t.Storage.TouchPresence(userID); err != nil {
		return err
	}
	if err := t.Storage.HeartbeatPresence(userID); err != nil {
		log.Printf("ERROR: Failed to refresh presence heartbeat for user %d: %v", userID, err)
	}
	return nil
}

// IsCurrentlyOnline re-derives the user's online state from the stored
// activity timestamp.
func (t *Tracker) IsCurrentlyOnline(userID uint) (bool, error) {
	p, err := t.Storage.GetPresence(userID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	return p.IsCurrentlyOnline(time.Now()), nil
}

// Status is the presence poll response.
type Status struct {
	OnlineUsers int64     `json:"online_users"`
	InQueue     bool      `json:"in_queue"`
	Timestamp   time.Time `json:"timestamp"`
}

// CurrentStatus reports how many other users are online and whether the
// caller has an outstanding search.
func (t *Tracker) CurrentStatus(userID uint) (*Status, error) {
	now := time.Now()
	online, err := t.Storage.CountOnlineUsers(now.Add(-models.OnlineWindow), userID)
	if err != nil {
		return nil, err
	}
	entry, err := t.Storage.GetQueueEntry(userID)
	if err != nil {
		return nil, err
	}
	return &Status{
		OnlineUsers: online,
		InQueue:     entry != nil,
		Timestamp:   now,
	}, nil
}

// SetAvailable flips the caller's opt-in flag for stranger matching.
func (t *Tracker) SetAvailable(userID uint, available bool) error {
	return t.Storage.SetAvailableForChat(userID, available)
}

// SweepInactive marks users offline once their activity falls outside the
// online window, clearing any dangling search flags with it. Idempotent.
func (t *Tracker) SweepInactive() (int64, error) {
	return t.Storage.MarkInactiveOffline(time.Now().Add(-models.OnlineWindow))
}
