package storage

import (
	"chaikada/backend/internal/models"
	"errors"

	"gorm.io/gorm"
)

// CreateInvite persists a bench invite. Code, expiry and use limit are filled
// in by the model's BeforeCreate hook.
func (s *Service) CreateInvite(invite *models.BenchInvite) error {
	return s.DB.Create(invite).Error
}

// GetInviteByCode looks an invite up by its bearer code. Returns nil without
// error for unknown codes.
func (s *Service) GetInviteByCode(code string) (*models.BenchInvite, error) {
	var invite models.BenchInvite
	err := s.DB.Where("code = ?", code).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ActiveInviteForRoom returns the room's current active invite, if any.
func (s *Service) ActiveInviteForRoom(roomID string) (*models.BenchInvite, error) {
	var invite models.BenchInvite
	err := s.DB.Where("room_id = ?", roomID).
		Where("status = ?", models.InviteStatusActive).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// UpdateInvite writes back use-count and status changes.
func (s *Service) UpdateInvite(invite *models.BenchInvite) error {
	return s.DB.Save(invite).Error
}
