package models

import "time"

// Item is a catalog entry users buy with coins. Catalog CRUD and purchasing
// live outside the chat core; the core only reads these records when a
// shared_item message references them.
type Item struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Price       int    `gorm:"not null" json:"price"`
	Category    string `gorm:"type:text" json:"category"`
	Emoji       string `gorm:"type:text;default:'☕'" json:"emoji"`
	Description string `gorm:"type:text" json:"description"`
	Available   bool   `gorm:"default:true" json:"available"`
	CanBeShared bool   `gorm:"default:true" json:"can_be_shared"`
}

// Purchase records a catalog purchase and how many units remain shareable.
// Only the catalog collaborator mutates these rows.
type Purchase struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	ItemID uint `gorm:"not null;index" json:"item_id"`

	Quantity   int `gorm:"default:1" json:"quantity"`
	TotalPrice int `json:"total_price"`
	// RemainingQuantity counts units not yet shared in chat.
	RemainingQuantity int  `gorm:"default:1" json:"remaining_quantity"`
	SharedInChat      bool `gorm:"default:false" json:"shared_in_chat"`

	CreatedAt time.Time `json:"timestamp"`
}

// CanShare reports whether at least one unit is left to share.
func (p *Purchase) CanShare() bool {
	return p.RemainingQuantity > 0
}
