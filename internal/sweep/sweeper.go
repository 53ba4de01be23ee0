// Package sweep reclaims expired content: tombstoned and expired messages,
// rooms past their expiry, long-empty rooms, stale queue entries and inactive
// presence rows. Every pass is idempotent and safe to run concurrently with
// request handling; failures are logged and retried on the next invocation,
// never blocking the foreground.
package sweep

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/presence"
	"chaikada/backend/internal/storage"
	"context"
	"log"
	"time"
)

// EmptyRoomRetention is how long an empty room lingers before the sweep
// hard-deletes it.
const EmptyRoomRetention = time.Hour

// Service runs the maintenance passes.
type Service struct {
	Storage storage.Storage
	tracker *presence.Tracker
}

// NewService creates a new sweeper.
func NewService(s storage.Storage) *Service {
	return &Service{Storage: s, tracker: presence.NewTracker(s)}
}

// Run executes RunOnce on the given interval until the context is cancelled.
// The passes are also enforced inline on every queue-reading path, so a
// missed tick only delays reclamation, never correctness.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	log.Printf("Sweep service started (interval %s).", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweep service stopped.")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce runs all passes. Each pass fails independently.
func (s *Service) RunOnce() {
	if _, err := s.SweepMessages(); err != nil {
		log.Printf("ERROR: Message sweep failed: %v", err)
	}
	if _, err := s.SweepRooms(); err != nil {
		log.Printf("ERROR: Room sweep failed: %v", err)
	}
	if _, err := s.SweepQueue(); err != nil {
		log.Printf("ERROR: Queue sweep failed: %v", err)
	}
	if _, err := s.SweepPresence(); err != nil {
		log.Printf("ERROR: Presence sweep failed: %v", err)
	}
}

// SweepMessages tombstones messages past their expiry, then hard-deletes
// every tombstoned message. A message created after the pass started is
// simply caught on the next run.
func (s *Service) SweepMessages() (int64, error) {
	var deleted int64
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		now := time.Now()
		marked, err := tx.MarkExpiredMessages(now)
		if err != nil {
			return err
		}
		deleted, err = tx.DeleteTombstonedMessages()
		if err != nil {
			return err
		}
		if marked > 0 || deleted > 0 {
			log.Printf("Swept messages: %d newly expired, %d hard-deleted", marked, deleted)
		}
		return nil
	})
	return deleted, err
}

// SweepRooms deactivates rooms past their expiry, hard-deletes expired rooms
// together with whatever they still own, and reclaims rooms that have sat
// empty beyond the retention window. The retention cutoff keeps the pass from
// racing a room that was only just created; an insert targeting a deleted
// room fails cleanly on the room lookup.
func (s *Service) SweepRooms() (int64, error) {
	var reclaimed int64
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		now := time.Now()
		if _, err := tx.DeactivateExpiredRooms(now); err != nil {
			return err
		}

		expired, err := tx.ExpiredRoomIDs(now)
		if err != nil {
			return err
		}
		empty, err := tx.EmptyRoomIDsOlderThan(now.Add(-EmptyRoomRetention))
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(expired)+len(empty))
		for _, roomID := range append(expired, empty...) {
			if seen[roomID] {
				continue
			}
			seen[roomID] = true
			if err := tx.HardDeleteRoom(roomID); err != nil {
				return err
			}
			reclaimed++
		}
		if reclaimed > 0 {
			log.Printf("Swept rooms: %d hard-deleted (%d expired, %d long empty)", reclaimed, len(expired), len(empty))
		}
		return nil
	})
	return reclaimed, err
}

// SweepQueue purges stale queue entries.
func (s *Service) SweepQueue() (int64, error) {
	return s.Storage.PurgeStaleQueueEntries(time.Now().Add(-models.QueueStaleAfter))
}

// SweepPresence flips inactive users offline, via the same tracker logic the
// presence endpoints use.
func (s *Service) SweepPresence() (int64, error) {
	return s.tracker.SweepInactive()
}
