// Package match implements the stranger-chat pairing algorithm. All
// coordination runs through store transactions: there is no in-process queue,
// so any number of app servers can match against the same tables.
package match

import (
	"chaikada/backend/internal/chat"
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"fmt"
	"log"
	"time"
)

// Search outcome statuses, surfaced verbatim to polling clients.
const (
	StatusWaiting         = "waiting"
	StatusMatched         = "matched"
	StatusNoUsers         = "no_users"
	StatusConnectionIssue = "connection_issue"
	StatusTimeout         = "timeout"
	StatusCancelled       = "cancelled"
	StatusNotSearching    = "not_searching"
)

// Result is the outcome of a match request or status poll.
type Result struct {
	Status        string `json:"status"`
	RoomID        string `json:"room_id,omitempty"`
	Message       string `json:"message"`
	WaitTime      int    `json:"wait_time,omitempty"`
	OnlineCount   int    `json:"online_count,omitempty"`
	RetryCount    int    `json:"retry_count,omitempty"`
	EstimatedWait string `json:"estimated_wait,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

// MatcherService decides, for a requesting user, whether to pair immediately,
// keep waiting, or report that nobody is around.
type MatcherService struct {
	Storage storage.Storage
}

// NewMatcherService creates a new Matcher.
func NewMatcherService(s storage.Storage) *MatcherService {
	return &MatcherService{Storage: s}
}

// FindMatch runs one matching attempt for the user. The whole sequence of
// stale purge, queue upsert, candidate scan and pairing commits or rolls back
// as one transaction, so two racing requests cannot both claim the same
// peer or create two rooms for the same pair. A conflicting transaction is
// retried once, then the user is simply told to keep waiting; a transient
// store conflict never escapes as a hard error.
func (m *MatcherService) FindMatch(userID uint) (*Result, error) {
	result, err := m.tryMatch(userID)
	if err != nil && storage.IsConflict(err) {
		log.Printf("Match transaction conflict for user %d, retrying once", userID)
		result, err = m.tryMatch(userID)
	}
	if err != nil {
		if storage.IsConflict(err) {
			log.Printf("Match retry for user %d conflicted again, degrading to waiting", userID)
			return &Result{
				Status:  StatusWaiting,
				Message: "Looking for strangers...",
			}, nil
		}
		return nil, err
	}
	return result, nil
}

func (m *MatcherService) tryMatch(userID uint) (*Result, error) {
	now := time.Now()
	var result *Result

	err := m.Storage.WithSerializableTx(func(tx storage.Storage) error {
		// A user already seated in an active stranger room must not be
		// re-enqueued: a second claim on them would break match exclusivity.
		// Re-polls after a match report the existing room instead.
		room, err := tx.ActiveStrangerRoomForUser(userID, time.Time{})
		if err != nil {
			return err
		}
		if room != nil && !room.IsExpired(now) {
			result = &Result{
				Status:  StatusMatched,
				RoomID:  room.RoomID,
				Message: "Match found! Redirecting to chat...",
			}
			return nil
		}
		if room != nil {
			// Expired but not yet swept; release the seat so the user can
			// search again.
			if err := tx.DeactivateRoom(room.RoomID); err != nil {
				return err
			}
		}

		if err := tx.SetLookingForStranger(userID, true); err != nil {
			return err
		}
		if _, err := tx.PurgeStaleQueueEntries(now.Add(-models.QueueStaleAfter)); err != nil {
			return err
		}

		entry, _, err := tx.UpsertQueueEntry(userID)
		if err != nil {
			return err
		}

		available, err := tx.CountAvailableStrangers(userID, now.Add(-models.OnlineWindow))
		if err != nil {
			return err
		}
		if available == 0 {
			result, err = m.classifyEmptyPool(tx, userID, entry, now)
			return err
		}

		peer, err := tx.OldestEligibleQueueEntry(userID, now.Add(-models.MatchCooldown))
		if err != nil {
			return err
		}
		if peer != nil {
			room, err := chat.CreateStrangerRoom(tx, userID, peer.UserID)
			if err != nil {
				return err
			}
			log.Printf("Match found: users %d and %d in room %s", userID, peer.UserID, room.RoomID)
			result = &Result{
				Status:  StatusMatched,
				RoomID:  room.RoomID,
				Message: "Connected with a stranger! Enjoy your chat! ☕",
			}
			return nil
		}

		result, err = m.waitOrTimeOut(tx, userID, entry, int(available), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// classifyEmptyPool tells "nobody is ever here" apart from a probable
// transient problem: accounts active within the last hour mean users exist
// but none is currently reachable.
func (m *MatcherService) classifyEmptyPool(tx storage.Storage, userID uint, entry *models.QueueEntry, now time.Time) (*Result, error) {
	recent, err := tx.CountRecentlyActiveUsers(now.Add(-time.Hour), userID)
	if err != nil {
		return nil, err
	}
	if recent == 0 {
		return &Result{
			Status:     StatusNoUsers,
			Message:    "No one else is online right now",
			Suggestion: "Try creating a private bench and invite friends!",
		}, nil
	}
	return &Result{
		Status:     StatusConnectionIssue,
		Message:    "Having trouble finding users. This might be a connection issue.",
		Suggestion: "Please check your internet connection and try again",
		RetryCount: entry.ConnectionAttempts,
	}, nil
}

// waitOrTimeOut reports the waiting state, transitioning to timeout once the
// wait exceeds the search limit: the entry is dropped and the searching flag
// cleared so the user is cleanly out of the queue.
func (m *MatcherService) waitOrTimeOut(tx storage.Storage, userID uint, entry *models.QueueEntry, onlineCount int, now time.Time) (*Result, error) {
	wait := entry.WaitTime(now)
	if wait > models.SearchTimeout {
		if _, err := tx.DeleteQueueEntry(userID); err != nil {
			return nil, err
		}
		if err := tx.SetLookingForStranger(userID, false); err != nil {
			return nil, err
		}
		return &Result{
			Status:     StatusTimeout,
			Message:    "Search timed out. No strangers found.",
			Suggestion: "Try again or create a private bench",
		}, nil
	}
	return &Result{
		Status:        StatusWaiting,
		Message:       fmt.Sprintf("Looking for strangers... %d users online", onlineCount),
		WaitTime:      int(wait.Seconds()),
		OnlineCount:   onlineCount,
		EstimatedWait: "30-60 seconds",
	}, nil
}

// CancelSearch removes the user's queue entry and clears the searching flag.
// Cancelling when not searching is a successful no-op: a queue entry in
// isolation confers no other resource, so removal is always safe.
func (m *MatcherService) CancelSearch(userID uint) (*Result, error) {
	err := m.Storage.WithTx(func(tx storage.Storage) error {
		if _, err := tx.DeleteQueueEntry(userID); err != nil {
			return err
		}
		return tx.SetLookingForStranger(userID, false)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Status: StatusCancelled, Message: "Search cancelled."}, nil
}

// CheckStatus answers the match-status poll: matched (a stranger room created
// since the search began exists), still waiting, timed out, or not searching
// at all. The timeout is enforced here too; no background job is assumed to
// run on schedule.
func (m *MatcherService) CheckStatus(userID uint) (*Result, error) {
	now := time.Now()
	var result *Result

	err := m.Storage.WithTx(func(tx storage.Storage) error {
		entry, err := tx.GetQueueEntry(userID)
		if err != nil {
			return err
		}
		if entry == nil {
			// The queue entry disappears the moment a match claims it, so a
			// missing entry can still mean "matched moments ago".
			room, err := tx.ActiveStrangerRoomForUser(userID, time.Time{})
			if err != nil {
				return err
			}
			if room != nil {
				result = &Result{
					Status:  StatusMatched,
					RoomID:  room.RoomID,
					Message: "Match found! Redirecting to chat...",
				}
				return nil
			}
			result = &Result{Status: StatusNotSearching, Message: "Not currently searching"}
			return nil
		}

		room, err := tx.ActiveStrangerRoomForUser(userID, entry.JoinedAt)
		if err != nil {
			return err
		}
		if room != nil {
			result = &Result{
				Status:  StatusMatched,
				RoomID:  room.RoomID,
				Message: "Match found! Redirecting to chat...",
			}
			return nil
		}

		online, err := tx.CountAvailableStrangers(userID, now.Add(-models.OnlineWindow))
		if err != nil {
			return err
		}
		result, err = m.waitOrTimeOut(tx, userID, entry, int(online), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
