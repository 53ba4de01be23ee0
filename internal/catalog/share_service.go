// Package catalog is the purchase-side collaborator of the chat core. The
// core consults it when a shared-item message is posted; coin balances and
// purchase records are mutated here and nowhere else.
package catalog

import (
	"chaikada/backend/internal/models"
	"errors"
	"log"

	"gorm.io/gorm"
)

// ErrNothingToShare means the user holds no shareable unit of the item.
var ErrNothingToShare = errors.New("no remaining quantity to share")

// Sharer is the contract the message store consumes.
type Sharer interface {
	// CanShare reports whether the user has at least one unit of the item
	// left to share.
	CanShare(userID, itemID uint) (bool, error)
	// ConsumeShare spends one unit, returning the purchase it was drawn from
	// and the item itself. Returns ErrNothingToShare when nothing is left.
	ConsumeShare(userID, itemID uint) (*models.Purchase, *models.Item, error)
}

// Service is the gorm-backed Sharer.
type Service struct {
	DB *gorm.DB
}

// NewService creates a new catalog service.
func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// CanShare checks for a purchase of the item with remaining quantity.
func (s *Service) CanShare(userID, itemID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Purchase{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Where("remaining_quantity > 0").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ConsumeShare decrements the remaining quantity of the oldest purchase that
// still has units. The decrement is guarded so two concurrent shares cannot
// spend the same last unit.
func (s *Service) ConsumeShare(userID, itemID uint) (*models.Purchase, *models.Item, error) {
	var purchase models.Purchase
	var item models.Item

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).
			Where("remaining_quantity > 0").
			Order("created_at asc").
			First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNothingToShare
		}
		if err != nil {
			return err
		}

		result := tx.Model(&models.Purchase{}).
			Where("id = ? AND remaining_quantity > 0", purchase.ID).
			Updates(map[string]interface{}{
				"remaining_quantity": gorm.Expr("remaining_quantity - 1"),
				"shared_in_chat":     true,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// A concurrent share spent the last unit first.
			return ErrNothingToShare
		}

		if err := tx.First(&purchase, purchase.ID).Error; err != nil {
			return err
		}
		return tx.First(&item, itemID).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNothingToShare) {
			log.Printf("ERROR: Failed to consume share of item %d for user %d: %v", itemID, userID, err)
		}
		return nil, nil, err
	}
	return &purchase, &item, nil
}
