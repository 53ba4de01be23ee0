package sweep_test

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"chaikada/backend/internal/sweep"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStorage opens a migrated in-memory database with no Redis.
func newTestStorage(t *testing.T) *storage.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserPresence{},
		&models.QueueEntry{},
		&models.ChatRoom{},
		&models.RoomParticipant{},
		&models.ChatMessage{},
		&models.BenchInvite{},
	))
	return storage.NewStorageService(db, nil)
}

// TestSweepMessages verifies mark-then-delete in one pass and idempotence.
func TestSweepMessages(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)
	now := time.Now()

	room := &models.ChatRoom{Kind: models.RoomKindStranger, CreatedByID: 1}
	require.NoError(t, s.CreateRoom(room))

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	expired := &models.ChatMessage{RoomID: room.RoomID, UserID: 1, Kind: models.MessageKindText, Content: "old", ExpiresAt: &past}
	require.NoError(t, s.CreateMessage(expired))
	fresh := &models.ChatMessage{RoomID: room.RoomID, UserID: 1, Kind: models.MessageKindText, Content: "new", ExpiresAt: &future}
	require.NoError(t, s.CreateMessage(fresh))

	deleted, err := sweeper.SweepMessages()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	require.NoError(t, s.DB.Model(&models.ChatMessage{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "Only the fresh message survives")

	deleted, err = sweeper.SweepMessages()
	require.NoError(t, err)
	assert.Zero(t, deleted, "Second pass finds nothing")
}

// TestSweepMessages_ReclaimsPreMarked verifies messages tombstoned by an
// earlier partial pass are finished off.
func TestSweepMessages_ReclaimsPreMarked(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)

	room := &models.ChatRoom{Kind: models.RoomKindStranger, CreatedByID: 1}
	require.NoError(t, s.CreateRoom(room))
	marked := &models.ChatMessage{RoomID: room.RoomID, UserID: 1, Kind: models.MessageKindText, Content: "limbo", IsDeleted: true}
	require.NoError(t, s.CreateMessage(marked))

	deleted, err := sweeper.SweepMessages()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// TestSweepRooms_ExpiredRoomTornDown walks the full reclamation: an expired
// room is deactivated and hard-deleted together with its participants,
// messages and invites.
func TestSweepRooms_ExpiredRoomTornDown(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)
	past := time.Now().Add(-time.Minute)

	room := &models.ChatRoom{Kind: models.RoomKindStranger, CreatedByID: 1, ExpiresAt: &past}
	require.NoError(t, s.CreateRoom(room))
	require.NoError(t, s.AddParticipant(room.RoomID, 1))
	require.NoError(t, s.AddParticipant(room.RoomID, 2))
	require.NoError(t, s.CreateMessage(&models.ChatMessage{RoomID: room.RoomID, UserID: 1, Kind: models.MessageKindText, Content: "bye"}))

	reclaimed, err := sweeper.SweepRooms()
	require.NoError(t, err)
	assert.Equal(t, int64(1), reclaimed)

	gone, err := s.GetRoomByID(room.RoomID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var participants, messages int64
	require.NoError(t, s.DB.Model(&models.RoomParticipant{}).Count(&participants).Error)
	require.NoError(t, s.DB.Model(&models.ChatMessage{}).Count(&messages).Error)
	assert.Zero(t, participants)
	assert.Zero(t, messages)
}

// TestSweepRooms_EmptyRoomRetention verifies a freshly emptied room is kept
// until the retention window passes.
func TestSweepRooms_EmptyRoomRetention(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)

	recent := &models.ChatRoom{Kind: models.RoomKindBench, Name: "Fresh", CreatedByID: 1}
	require.NoError(t, s.CreateRoom(recent))

	old := &models.ChatRoom{Kind: models.RoomKindBench, Name: "Abandoned", CreatedByID: 1}
	require.NoError(t, s.CreateRoom(old))
	require.NoError(t, s.DB.Model(old).Update("created_at", time.Now().Add(-2*time.Hour)).Error)

	occupied := &models.ChatRoom{Kind: models.RoomKindBench, Name: "Lived-in", CreatedByID: 2}
	require.NoError(t, s.CreateRoom(occupied))
	require.NoError(t, s.DB.Model(occupied).Update("created_at", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, s.AddParticipant(occupied.RoomID, 2))

	reclaimed, err := sweeper.SweepRooms()
	require.NoError(t, err)
	assert.Equal(t, int64(1), reclaimed)

	kept, err := s.GetRoomByID(recent.RoomID)
	require.NoError(t, err)
	assert.NotNil(t, kept, "An empty room inside the retention window survives")

	lived, err := s.GetRoomByID(occupied.RoomID)
	require.NoError(t, err)
	assert.NotNil(t, lived, "An occupied room is never reclaimed")

	gone, err := s.GetRoomByID(old.RoomID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

// TestSweepQueue verifies stale entries are purged.
func TestSweepQueue(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)
	now := time.Now()

	require.NoError(t, s.DB.Create(&models.QueueEntry{UserID: 1, JoinedAt: now.Add(-15 * time.Minute)}).Error)
	require.NoError(t, s.DB.Create(&models.QueueEntry{UserID: 2, JoinedAt: now}).Error)

	purged, err := sweeper.SweepQueue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

// TestSweepPresence verifies inactive users flip offline.
func TestSweepPresence(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)
	now := time.Now()

	require.NoError(t, s.DB.Create(&models.UserPresence{UserID: 1, IsOnline: true, LastActivityAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, s.DB.Create(&models.UserPresence{UserID: 2, IsOnline: true, LastActivityAt: now}).Error)

	flipped, err := sweeper.SweepPresence()
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)
}

// TestRunOnce verifies the combined pass completes over a mixed data set.
func TestRunOnce(t *testing.T) {
	s := newTestStorage(t)
	sweeper := sweep.NewService(s)
	past := time.Now().Add(-time.Minute)

	room := &models.ChatRoom{Kind: models.RoomKindStranger, CreatedByID: 1, ExpiresAt: &past}
	require.NoError(t, s.CreateRoom(room))
	require.NoError(t, s.DB.Create(&models.QueueEntry{UserID: 1, JoinedAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, s.DB.Create(&models.UserPresence{UserID: 1, IsOnline: true, LastActivityAt: time.Now().Add(-time.Hour)}).Error)

	sweeper.RunOnce()

	var rooms, queued int64
	require.NoError(t, s.DB.Model(&models.ChatRoom{}).Count(&rooms).Error)
	require.NoError(t, s.DB.Model(&models.QueueEntry{}).Count(&queued).Error)
	assert.Zero(t, rooms)
	assert.Zero(t, queued)

	p, err := s.GetPresence(1)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
}
