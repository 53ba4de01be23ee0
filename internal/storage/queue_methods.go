package storage

import (
	"chaikada/backend/internal/models"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// UpsertQueueEntry registers the user's wish to be matched. A fresh entry is
// created on first call; subsequent calls keep the original JoinedAt (so the
// wait clock keeps running) and only bump the attempt bookkeeping. The unique
// index on user_id backs the at-most-one-entry invariant under races.
func (s *Service) UpsertQueueEntry(userID uint) (*models.QueueEntry, bool, error) {
	now := time.Now()
	var entry models.QueueEntry
	result := s.DB.Where("user_id = ?", userID).
		FirstOrCreate(&entry, models.QueueEntry{
			UserID:        userID,
			JoinedAt:      now,
			LastAttemptAt: now,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return &entry, true, nil
	}

	entry.ConnectionAttempts++
	entry.LastAttemptAt = now
	if err := s.DB.Model(&models.QueueEntry{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"connection_attempts": entry.ConnectionAttempts,
			"last_attempt_at":     now,
		}).Error; err != nil {
		return nil, false, err
	}
	return &entry, false, nil
}

// GetQueueEntry returns the user's queue entry, nil if they are not searching.
func (s *Service) GetQueueEntry(userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.DB.Where("user_id = ?", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteQueueEntry removes the user's entry if present. Reports whether a row
// was actually deleted; deleting a missing entry is a successful no-op.
func (s *Service) DeleteQueueEntry(userID uint) (bool, error) {
	result := s.DB.Where("user_id = ?", userID).Delete(&models.QueueEntry{})
	return result.RowsAffected > 0, result.Error
}

// DeleteQueueEntriesFor removes all entries belonging to the given users.
// Used when a match claims both sides in one transaction.
func (s *Service) DeleteQueueEntriesFor(userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.DB.Where("user_id IN ?", userIDs).Delete(&models.QueueEntry{}).Error
}

// PurgeStaleQueueEntries deletes every entry that joined before the cutoff.
// Runs at the top of each matching attempt so a caller is never paired with a
// ghost entry.
func (s *Service) PurgeStaleQueueEntries(cutoff time.Time) (int64, error) {
	result := s.DB.Where("joined_at < ?", cutoff).Delete(&models.QueueEntry{})
	if result.Error != nil {
		log.Printf("ERROR: Failed to purge stale queue entries: %v", result.Error)
	}
	return result.RowsAffected, result.Error
}

// OldestEligibleQueueEntry returns the earliest entry of a different user that
// joined before the cool-down boundary, or nil when nobody is eligible yet.
// FIFO: ordering by joined_at is the tie-break. Users already seated in an
// active stranger room are skipped even if a stale entry of theirs lingers.
func (s *Service) OldestEligibleQueueEntry(excludeUserID uint, joinedBefore time.Time) (*models.QueueEntry, error) {
	inStrangerRoom := s.DB.Model(&models.RoomParticipant{}).
		Select("room_participants.user_id").
		Joins("JOIN chat_rooms ON chat_rooms.room_id = room_participants.room_id").
		Where("chat_rooms.kind = ? AND chat_rooms.is_active = ?", models.RoomKindStranger, true)

	var entry models.QueueEntry
	err := s.DB.Where("user_id <> ?", excludeUserID).
		Where("joined_at <= ?", joinedBefore).
		Where("user_id NOT IN (?)", inStrangerRoom).
		Order("joined_at asc").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
