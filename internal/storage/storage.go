package storage

import (
	"chaikada/backend/internal/catalog"
	"chaikada/backend/internal/models"
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the persistence boundary of the chat core. Every method is safe
// to call from concurrent request handlers; cross-entity invariants are
// upheld by composing methods inside WithTx rather than by in-memory locks.
type Storage interface {
	// WithTx runs fn against a Storage bound to a single database
	// transaction. The Redis side is shared as-is; only relational state is
	// transactional.
	WithTx(fn func(tx Storage) error) error

	// WithSerializableTx is WithTx at serializable isolation. The matcher
	// runs its claim sequence here so a symmetric race surfaces as a
	// serialization failure (SQLSTATE 40001) that IsConflict classifies,
	// instead of silently interleaving under read committed.
	WithSerializableTx(fn func(tx Storage) error) error

	// Users
	GetOrCreateUser(username string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)

	// Presence
	TouchPresence(userID uint) error
	GetPresence(userID uint) (*models.UserPresence, error)
	SetAvailableForChat(userID uint, available bool) error
	SetLookingForStranger(userID uint, looking bool) error
	CountOnlineUsers(activeSince time.Time, excludeUserID uint) (int64, error)
	CountRecentlyActiveUsers(activeSince time.Time, excludeUserID uint) (int64, error)
	CountAvailableStrangers(excludeUserID uint, activeSince time.Time) (int64, error)
	MarkInactiveOffline(cutoff time.Time) (int64, error)

	// Stranger queue
	UpsertQueueEntry(userID uint) (entry *models.QueueEntry, created bool, err error)
	GetQueueEntry(userID uint) (*models.QueueEntry, error)
	DeleteQueueEntry(userID uint) (bool, error)
	DeleteQueueEntriesFor(userIDs []uint) error
	PurgeStaleQueueEntries(cutoff time.Time) (int64, error)
	OldestEligibleQueueEntry(excludeUserID uint, joinedBefore time.Time) (*models.QueueEntry, error)

	// Rooms
	CreateRoom(room *models.ChatRoom) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	AddParticipant(roomID string, userID uint) error
	RemoveParticipant(roomID string, userID uint) (bool, error)
	IsParticipant(roomID string, userID uint) (bool, error)
	CountParticipants(roomID string) (int64, error)
	DeactivateRoom(roomID string) error
	ActiveRoomsForUser(userID uint) ([]models.ChatRoom, error)
	ActiveStrangerRoomForUser(userID uint, createdAfter time.Time) (*models.ChatRoom, error)
	DeactivateExpiredRooms(now time.Time) (int64, error)
	ExpiredRoomIDs(now time.Time) ([]string, error)
	EmptyRoomIDsOlderThan(cutoff time.Time) ([]string, error)
	HardDeleteRoom(roomID string) error

	// Messages
	CreateMessage(msg *models.ChatMessage) error
	ListVisibleMessages(roomID string, now time.Time, limit int) ([]models.ChatMessage, error)
	MarkExpiredMessages(now time.Time) (int64, error)
	DeleteTombstonedMessages() (int64, error)

	// Bench invites
	CreateInvite(invite *models.BenchInvite) error
	GetInviteByCode(code string) (*models.BenchInvite, error)
	ActiveInviteForRoom(roomID string) (*models.BenchInvite, error)
	UpdateInvite(invite *models.BenchInvite) error

	// Realtime plumbing (best-effort, Redis-backed)
	PublishRoomEvent(event models.RoomEvent) error
	HeartbeatPresence(userID uint) error

	// Sharer returns the catalog collaborator bound to the same database
	// handle, so a shared-item consumption inside WithTx commits or rolls
	// back with the caller's transaction.
	Sharer() catalog.Sharer
}

// Service is the gorm + Redis implementation of Storage. The Redis client may
// be nil (maintenance CLI, tests); Redis-backed methods then become no-ops.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// WithTx wraps fn in a database transaction and hands it a transaction-bound
// Service. Nested calls reuse the same transaction (gorm savepoints).
func (s *Service) WithTx(fn func(tx Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	})
}

// WithSerializableTx is WithTx with the isolation level raised to
// serializable. On SQLite this is the native level; on Postgres it makes
// competing claim transactions abort with SQLSTATE 40001.
func (s *Service) WithSerializableTx(fn func(tx Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// Sharer returns a catalog service on this Service's database handle. Called
// on a transaction-bound Service it yields a transaction-bound collaborator.
func (s *Service) Sharer() catalog.Sharer {
	return catalog.NewService(s.DB)
}

// GetOrCreateUser looks a user up by username, creating the account (and its
// presence row) on first contact.
func (s *Service) GetOrCreateUser(username string) (*models.User, error) {
	var user models.User
	result := s.DB.Where("username = ?", username).
		FirstOrCreate(&user, models.User{Username: username})
	if result.Error != nil {
		log.Printf("ERROR: Failed to get or create user %q: %v", username, result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("INFO: New user %q created (ID: %d).", username, user.ID)
	}
	return &user, nil
}

// GetUserByID fetches a user by primary key. Returns nil without error when
// the user does not exist.
func (s *Service) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsConflict reports whether err looks like a store-level write conflict: a
// unique-index violation or a serialization failure. The matcher uses this to
// decide whether a failed transaction is worth one retry.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "deadlock")
}
