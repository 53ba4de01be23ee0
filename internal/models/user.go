package models

import "time"

// User represents an account in the system. Accounts are created lazily by the
// session boundary on first contact; the core never deletes them.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Avatar    string `gorm:"type:text;default:'☕'" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	// Coins is owned by the catalog/purchase collaborator. The chat core reads
	// it for display only and never mutates it.
	Coins int `gorm:"default:100" json:"coins"`
}
