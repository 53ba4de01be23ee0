package storage

import (
	"chaikada/backend/internal/models"
	"encoding/json"
	"fmt"
)

// roomChannel names the Redis pub/sub channel for a room.
func roomChannel(roomID string) string {
	return "chat:room:" + roomID
}

// PublishRoomEvent pushes a freshly stored message to the room's Redis
// channel. Best-effort: polling remains the delivery contract, a subscriber
// only learns about new content sooner. No-op without a Redis client.
func (s *Service) PublishRoomEvent(event models.RoomEvent) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, roomChannel(event.RoomID), payload).Err()
}

// HeartbeatPresence refreshes the user's Redis heartbeat key. The key's TTL
// mirrors the online window so EXISTS is a cheap liveness probe for other app
// servers; the relational presence row stays authoritative for matching.
func (s *Service) HeartbeatPresence(userID uint) error {
	if s.Redis == nil {
		return nil
	}
	key := fmt.Sprintf("presence:%d", userID)
	return s.Redis.Set(s.Ctx, key, "1", models.OnlineWindow).Err()
}
