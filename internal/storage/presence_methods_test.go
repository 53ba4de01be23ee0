package storage_test

import (
	"chaikada/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTouchPresence verifies lazy row creation and activity refresh.
func TestTouchPresence(t *testing.T) {
	s := newTestStorage(t)
	user := mustCreateUser(t, s, "toucher")

	// First touch creates the row
	require.NoError(t, s.TouchPresence(user.ID))
	p, err := s.GetPresence(user.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsOnline)
	assert.True(t, p.IsAvailableForChat, "New rows default to available")

	// Age the row, then touch again
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, s.DB.Model(&models.UserPresence{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{"last_activity_at": stale, "is_online": false}).Error)

	require.NoError(t, s.TouchPresence(user.ID))
	p, err = s.GetPresence(user.ID)
	require.NoError(t, err)
	assert.True(t, p.IsOnline, "Touch must flip the flag back on")
	assert.WithinDuration(t, time.Now(), p.LastActivityAt, 2*time.Second)

	var count int64
	require.NoError(t, s.DB.Model(&models.UserPresence{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "One presence row per user")
}

// TestCountAvailableStrangers verifies every exclusion: offline users, opted
// out users, the caller, and users already in an active stranger room.
func TestCountAvailableStrangers(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	seed := func(userID uint, online, available bool, activityAgo time.Duration) {
		require.NoError(t, s.DB.Create(&models.UserPresence{
			UserID:             userID,
			IsOnline:           online,
			IsAvailableForChat: available,
			LastActivityAt:     now.Add(-activityAgo),
		}).Error)
	}

	seed(1, true, true, time.Minute)      // the caller
	seed(2, true, true, time.Minute)      // eligible
	seed(3, false, true, time.Minute)     // offline
	seed(4, true, false, time.Minute)     // opted out
	seed(5, true, true, 10*time.Minute)   // activity aged out
	seed(6, true, true, time.Minute)      // already in a stranger room

	room := mustCreateRoom(t, s, models.RoomKindStranger, 6)
	require.NoError(t, s.AddParticipant(room.RoomID, 6))

	count, err := s.CountAvailableStrangers(1, now.Add(-models.OnlineWindow))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count, "Only user 2 is matchable")
}

// TestCountAvailableStrangers_InactiveRoomDoesNotExclude verifies that a
// deactivated stranger room releases its former participants back into the
// pool.
func TestCountAvailableStrangers_InactiveRoomDoesNotExclude(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	require.NoError(t, s.DB.Create(&models.UserPresence{
		UserID: 2, IsOnline: true, IsAvailableForChat: true, LastActivityAt: now,
	}).Error)

	room := mustCreateRoom(t, s, models.RoomKindStranger, 2)
	require.NoError(t, s.AddParticipant(room.RoomID, 2))
	require.NoError(t, s.DeactivateRoom(room.RoomID))

	count, err := s.CountAvailableStrangers(1, now.Add(-models.OnlineWindow))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestMarkInactiveOffline verifies the sweep flip and that the searching
// flag goes down with it.
func TestMarkInactiveOffline(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	require.NoError(t, s.DB.Create(&models.UserPresence{
		UserID: 1, IsOnline: true, LookingForStrangerChat: true,
		LastActivityAt: now.Add(-time.Hour),
	}).Error)
	require.NoError(t, s.DB.Create(&models.UserPresence{
		UserID: 2, IsOnline: true, LastActivityAt: now,
	}).Error)

	flipped, err := s.MarkInactiveOffline(now.Add(-models.OnlineWindow))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	p, err := s.GetPresence(1)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	assert.False(t, p.LookingForStrangerChat, "A dangling search flag is cleared with the flip")

	active, err := s.GetPresence(2)
	require.NoError(t, err)
	assert.True(t, active.IsOnline)

	flipped, err = s.MarkInactiveOffline(now.Add(-models.OnlineWindow))
	assert.NoError(t, err)
	assert.Zero(t, flipped, "Idempotent on a second pass")
}

// TestHeartbeatPresence_NilRedis verifies the Redis no-op guard.
func TestHeartbeatPresence_NilRedis(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.HeartbeatPresence(1))
	assert.NoError(t, s.PublishRoomEvent(models.RoomEvent{RoomID: "r", Content: "hi"}))
}
