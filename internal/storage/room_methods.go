package storage

import (
	"chaikada/backend/internal/models"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// CreateRoom persists a new room. RoomID and stranger expiry are assigned by
// the model's BeforeCreate hook.
func (s *Service) CreateRoom(room *models.ChatRoom) error {
	if err := s.DB.Create(room).Error; err != nil {
		log.Printf("ERROR: Failed to create %s room: %v", room.Kind, err)
		return err
	}
	return nil
}

// GetRoomByID fetches a room by its public identifier. Returns nil without
// error when no such room exists.
func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// AddParticipant inserts the membership row. The composite unique index turns
// a racing double-join into a conflict error the caller can treat as already
// joined.
func (s *Service) AddParticipant(roomID string, userID uint) error {
	return s.DB.Create(&models.RoomParticipant{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}).Error
}

// RemoveParticipant drops the membership row, reporting whether it existed.
func (s *Service) RemoveParticipant(roomID string, userID uint) (bool, error) {
	result := s.DB.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomParticipant{})
	return result.RowsAffected > 0, result.Error
}

// IsParticipant reports whether the user belongs to the room.
func (s *Service) IsParticipant(roomID string, userID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.RoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountParticipants returns the current membership size of the room.
func (s *Service) CountParticipants(roomID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// DeactivateRoom marks the room inactive. The row is kept for the audit
// window; the sweep hard-deletes it later.
func (s *Service) DeactivateRoom(roomID string) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Update("is_active", false).Error
}

// ActiveRoomsForUser lists the active rooms the user participates in, newest
// first.
func (s *Service) ActiveRoomsForUser(userID uint) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.DB.Model(&models.ChatRoom{}).
		Joins("JOIN room_participants ON room_participants.room_id = chat_rooms.room_id").
		Where("room_participants.user_id = ?", userID).
		Where("chat_rooms.is_active = ?", true).
		Order("chat_rooms.created_at desc").
		Find(&rooms).Error
	return rooms, err
}

// ActiveStrangerRoomForUser finds the active stranger room the user sits in,
// optionally restricted to rooms created after a given instant (the match
// poll passes the queue entry's JoinedAt so it only reports rooms created by
// the current search). Returns nil when there is none.
func (s *Service) ActiveStrangerRoomForUser(userID uint, createdAfter time.Time) (*models.ChatRoom, error) {
	query := s.DB.Model(&models.ChatRoom{}).
		Joins("JOIN room_participants ON room_participants.room_id = chat_rooms.room_id").
		Where("room_participants.user_id = ?", userID).
		Where("chat_rooms.kind = ?", models.RoomKindStranger).
		Where("chat_rooms.is_active = ?", true)
	if !createdAfter.IsZero() {
		query = query.Where("chat_rooms.created_at >= ?", createdAfter)
	}

	var room models.ChatRoom
	err := query.First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeactivateExpiredRooms flips the active flag off for rooms past their
// expiry. Idempotent.
func (s *Service) DeactivateExpiredRooms(now time.Time) (int64, error) {
	result := s.DB.Model(&models.ChatRoom{}).
		Where("is_active = ?", true).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// ExpiredRoomIDs lists the public ids of rooms past their expiry.
func (s *Service) ExpiredRoomIDs(now time.Time) ([]string, error) {
	var roomIDs []string
	err := s.DB.Model(&models.ChatRoom{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Pluck("room_id", &roomIDs).Error
	return roomIDs, err
}

// EmptyRoomIDsOlderThan lists rooms created before the cutoff that have no
// participants left. The cutoff is the retention window that keeps the sweep
// from racing a room that was only just created or emptied.
func (s *Service) EmptyRoomIDsOlderThan(cutoff time.Time) ([]string, error) {
	var roomIDs []string
	err := s.DB.Model(&models.ChatRoom{}).
		Where("created_at < ?", cutoff).
		Where("room_id NOT IN (?)", s.DB.Model(&models.RoomParticipant{}).
			Select("room_id")).
		Pluck("room_id", &roomIDs).Error
	return roomIDs, err
}

// HardDeleteRoom tears a room down for good: membership rows, messages,
// invites, then the room itself.
func (s *Service) HardDeleteRoom(roomID string) error {
	if err := s.DB.Where("room_id = ?", roomID).Delete(&models.RoomParticipant{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("room_id = ?", roomID).Delete(&models.ChatMessage{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("room_id = ?", roomID).Delete(&models.BenchInvite{}).Error; err != nil {
		return err
	}
	return s.DB.Where("room_id = ?", roomID).Delete(&models.ChatRoom{}).Error
}
