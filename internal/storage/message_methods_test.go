package storage_test

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, s *storage.Service, roomID string, userID uint, content string, createdAt time.Time, expiresAt *time.Time) *models.ChatMessage {
	t.Helper()
	msg := &models.ChatMessage{
		RoomID:  roomID,
		UserID:  userID,
		Kind:    models.MessageKindText,
		Content: content,
	}
	require.NoError(t, s.CreateMessage(msg))
	require.NoError(t, s.DB.Model(msg).Updates(map[string]interface{}{
		"created_at": createdAt,
		"expires_at": expiresAt,
	}).Error)
	return msg
}

// TestListVisibleMessages verifies ordering, the limit window, and that
// expired or tombstoned messages never surface.
func TestListVisibleMessages(t *testing.T) {
	s := newTestStorage(t)
	room := mustCreateRoom(t, s, models.RoomKindBench, 1)
	now := time.Now()

	for i := 0; i < 5; i++ {
		seedMessage(t, s, room.RoomID, 1, fmt.Sprintf("msg-%d", i), now.Add(time.Duration(i)*time.Second), nil)
	}
	past := now.Add(-time.Minute)
	seedMessage(t, s, room.RoomID, 1, "expired", now.Add(-time.Hour), &past)
	tombstoned := seedMessage(t, s, room.RoomID, 1, "tombstoned", now, nil)
	require.NoError(t, s.DB.Model(tombstoned).Update("is_deleted", true).Error)

	// Full window, chronological
	messages, err := s.ListVisibleMessages(room.RoomID, now.Add(time.Minute), 50)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, "msg-0", messages[0].Content, "Oldest first")
	assert.Equal(t, "msg-4", messages[4].Content)

	// Limit keeps the NEWEST messages
	recent, err := s.ListVisibleMessages(room.RoomID, now.Add(time.Minute), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "msg-3", recent[0].Content, "Limit trims from the old end")
	assert.Equal(t, "msg-4", recent[1].Content)
}

// TestListVisibleMessages_ScopedToRoom verifies no cross-room leakage.
func TestListVisibleMessages_ScopedToRoom(t *testing.T) {
	s := newTestStorage(t)
	a := mustCreateRoom(t, s, models.RoomKindBench, 1)
	b := mustCreateRoom(t, s, models.RoomKindBench, 2)
	now := time.Now()

	seedMessage(t, s, a.RoomID, 1, "in-a", now, nil)
	seedMessage(t, s, b.RoomID, 2, "in-b", now, nil)

	messages, err := s.ListVisibleMessages(a.RoomID, now.Add(time.Second), 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "in-a", messages[0].Content)
}

// TestMarkAndDeleteExpiredMessages verifies the two-step reclamation.
func TestMarkAndDeleteExpiredMessages(t *testing.T) {
	s := newTestStorage(t)
	room := mustCreateRoom(t, s, models.RoomKindStranger, 1)
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	seedMessage(t, s, room.RoomID, 1, "old", now.Add(-25*time.Hour), &past)
	seedMessage(t, s, room.RoomID, 1, "fresh", now, &future)
	seedMessage(t, s, room.RoomID, 1, "forever", now, nil)

	marked, err := s.MarkExpiredMessages(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	marked, err = s.MarkExpiredMessages(now)
	assert.NoError(t, err)
	assert.Zero(t, marked, "Already-marked messages are not re-marked")

	deleted, err := s.DeleteTombstonedMessages()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	require.NoError(t, s.DB.Model(&models.ChatMessage{}).Where("room_id = ?", room.RoomID).Count(&count).Error)
	assert.Equal(t, int64(2), count, "Fresh and non-expiring messages survive")
}
