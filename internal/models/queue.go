package models

import "time"

// QueueEntry is a durable record of a user's outstanding request to be matched
// with a stranger. The unique index on UserID is the hard guarantee that a
// user holds at most one entry; the matcher additionally uses get-or-create
// semantics inside its transaction so a racing request updates the existing
// row instead of failing.
type QueueEntry struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`

	JoinedAt           time.Time
	ConnectionAttempts int `gorm:"default:0"`
	LastAttemptAt      time.Time
}

const (
	// QueueStaleAfter is how old an entry may grow before it is considered a
	// ghost and purged ahead of any matching attempt.
	QueueStaleAfter = 10 * time.Minute

	// MatchCooldown is the minimum age an entry must reach before it becomes
	// eligible for pairing. Two requests racing each other inside this window
	// both land in the queue and both get "waiting".
	MatchCooldown = 30 * time.Second

	// SearchTimeout is the user-facing limit on how long a search may wait
	// before it is reported as timed out and the entry dropped.
	SearchTimeout = 5 * time.Minute
)

// IsStale reports whether the entry is too old to take part in matching.
func (q *QueueEntry) IsStale(now time.Time) bool {
	return now.Sub(q.JoinedAt) > QueueStaleAfter
}

// WaitTime returns how long the user has been waiting in the queue.
func (q *QueueEntry) WaitTime(now time.Time) time.Duration {
	return now.Sub(q.JoinedAt)
}
