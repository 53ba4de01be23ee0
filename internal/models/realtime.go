package models

import "time"

// RoomEvent is the wire payload published to Redis whenever a message lands in
// a room. Delivery is best-effort: polling the message list endpoint remains
// the contract, a subscriber only sees new content sooner.
type RoomEvent struct {
	RoomID    string    `json:"room_id"`
	MessageID uint      `json:"message_id"`
	UserID    uint      `json:"user_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
