package storage

import (
	"chaikada/backend/internal/models"
	"log"
	"time"
)

// CreateMessage appends a message to its room.
func (s *Service) CreateMessage(msg *models.ChatMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}
	return nil
}

// ListVisibleMessages returns up to limit of the newest non-deleted,
// non-expired messages in the room, reversed into chronological order so
// callers read oldest-first.
func (s *Service) ListVisibleMessages(roomID string, now time.Time, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.DB.Where("room_id = ?", roomID).
		Where("is_deleted = ?", false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: Failed to list messages for room %s: %v", roomID, err)
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkExpiredMessages tombstones every message past its expiry. The flag
// keeps a marked message out of listings for the short window before
// DeleteTombstonedMessages reclaims it.
func (s *Service) MarkExpiredMessages(now time.Time) (int64, error) {
	result := s.DB.Model(&models.ChatMessage{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Where("is_deleted = ?", false).
		Update("is_deleted", true)
	return result.RowsAffected, result.Error
}

// DeleteTombstonedMessages hard-deletes previously marked messages.
func (s *Service) DeleteTombstonedMessages() (int64, error) {
	result := s.DB.Where("is_deleted = ?", true).Delete(&models.ChatMessage{})
	return result.RowsAffected, result.Error
}
