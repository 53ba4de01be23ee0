package storage

import (
	"chaikada/backend/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

// TouchPresence records activity for the user: refreshes LastActivityAt and
// sets the online flag, creating the presence row on first contact.
func (s *Service) TouchPresence(userID uint) error {
	now := time.Now()
	var presence models.UserPresence
	result := s.DB.Where("user_id = ?", userID).
		FirstOrCreate(&presence, models.UserPresence{
			UserID:             userID,
			LastActivityAt:     now,
			IsOnline:           true,
			IsAvailableForChat: true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		// Row was just created with fresh activity.
		return nil
	}
	return s.DB.Model(&models.UserPresence{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_activity_at": now,
			"is_online":        true,
		}).Error
}

// GetPresence returns the presence row for the user, nil if none exists yet.
func (s *Service) GetPresence(userID uint) (*models.UserPresence, error) {
	var presence models.UserPresence
	err := s.DB.Where("user_id = ?", userID).First(&presence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &presence, nil
}

// SetAvailableForChat flips the user's opt-in flag for stranger matching.
func (s *Service) SetAvailableForChat(userID uint, available bool) error {
	return s.DB.Model(&models.UserPresence{}).
		Where("user_id = ?", userID).
		Update("is_available_for_chat", available).Error
}

// SetLookingForStranger flips the search flag on the user's presence row.
func (s *Service) SetLookingForStranger(userID uint, looking bool) error {
	return s.DB.Model(&models.UserPresence{}).
		Where("user_id = ?", userID).
		Update("looking_for_stranger_chat", looking).Error
}

// CountOnlineUsers counts users online and active since the given instant,
// excluding the caller.
func (s *Service) CountOnlineUsers(activeSince time.Time, excludeUserID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.UserPresence{}).
		Where("is_online = ?", true).
		Where("last_activity_at >= ?", activeSince).
		Where("user_id <> ?", excludeUserID).
		Count(&count).Error
	return count, err
}

// CountRecentlyActiveUsers counts accounts with any activity since the given
// instant, regardless of current online state. The matcher uses it to tell
// "nobody is ever here" apart from "people were here moments ago".
func (s *Service) CountRecentlyActiveUsers(activeSince time.Time, excludeUserID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.UserPresence{}).
		Where("last_activity_at >= ?", activeSince).
		Where("user_id <> ?", excludeUserID).
		Count(&count).Error
	return count, err
}

// CountAvailableStrangers counts users eligible for stranger matching: online
// within the window, opted in, not the caller, and not already sitting in an
// active stranger room.
func (s *Service) CountAvailableStrangers(excludeUserID uint, activeSince time.Time) (int64, error) {
	inStrangerRoom := s.DB.Model(&models.RoomParticipant{}).
		Select("room_participants.user_id").
		Joins("JOIN chat_rooms ON chat_rooms.room_id = room_participants.room_id").
		Where("chat_rooms.kind = ? AND chat_rooms.is_active = ?", models.RoomKindStranger, true)

	var count int64
	err := s.DB.Model(&models.UserPresence{}).
		Where("is_online = ?", true).
		Where("is_available_for_chat = ?", true).
		Where("last_activity_at >= ?", activeSince).
		Where("user_id <> ?", excludeUserID).
		Where("user_id NOT IN (?)", inStrangerRoom).
		Count(&count).Error
	return count, err
}

// MarkInactiveOffline flips the online and searching flags off for every
// presence row whose activity is older than the cutoff. Idempotent.
func (s *Service) MarkInactiveOffline(cutoff time.Time) (int64, error) {
	result := s.DB.Model(&models.UserPresence{}).
		Where("last_activity_at < ?", cutoff).
		Where("is_online = ?", true).
		Updates(map[string]interface{}{
			"is_online":                 false,
			"looking_for_stranger_chat": false,
		})
	return result.RowsAffected, result.Error
}
