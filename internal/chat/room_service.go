package chat

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"fmt"
	"log"
	"strings"
	"time"
)

// RoomService manages room lifecycle: creation, membership and deactivation.
// Every mutating operation revalidates the room's state inside a transaction;
// nothing is assumed from a prior read.
type RoomService struct {
	Storage storage.Storage
}

// NewRoomService creates a new room service.
func NewRoomService(s storage.Storage) *RoomService {
	return &RoomService{Storage: s}
}

// Summary is the room digest attached to poll responses.
type Summary struct {
	RoomID           string `json:"room_id"`
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	ParticipantCount int64  `json:"participant_count"`
	TimeRemaining    int    `json:"time_remaining_seconds,omitempty"`
	IsActive         bool   `json:"is_active"`
}

// Summarize builds the poll digest for a room.
func Summarize(st storage.Storage, room *models.ChatRoom, now time.Time) (*Summary, error) {
	count, err := st.CountParticipants(room.RoomID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		RoomID:           room.RoomID,
		Name:             room.DisplayName(now),
		Kind:             room.Kind,
		ParticipantCount: count,
		TimeRemaining:    int(room.TimeRemaining(now).Seconds()),
		IsActive:         room.IsActive,
	}, nil
}

// CreateStrangerRoom pairs two users into a fresh stranger room: both become
// participants, both queue entries disappear, both searching flags clear, and
// one system message announces the connection. Callers run it inside the
// match transaction so the pairing is atomic with the queue claim.
func CreateStrangerRoom(st storage.Storage, creatorID, matchedID uint) (*models.ChatRoom, error) {
	room := &models.ChatRoom{
		Kind:        models.RoomKindStranger,
		Name:        fmt.Sprintf("Stranger Chat %s", time.Now().Format("15:04")),
		CreatedByID: creatorID,
	}
	if err := st.CreateRoom(room); err != nil {
		return nil, err
	}

	for _, userID := range []uint{creatorID, matchedID} {
		if err := st.AddParticipant(room.RoomID, userID); err != nil {
			return nil, err
		}
		if err := st.SetLookingForStranger(userID, false); err != nil {
			return nil, err
		}
	}
	if err := st.DeleteQueueEntriesFor([]uint{creatorID, matchedID}); err != nil {
		return nil, err
	}

	matched, err := st.GetUserByID(matchedID)
	if err != nil {
		return nil, err
	}
	content := "Connected with a stranger! Say hello! 👋"
	if matched != nil {
		content = fmt.Sprintf("Connected with %s! Say hello! 👋", matched.Username)
	}
	if err := st.CreateMessage(newRoomMessage(room, creatorID, models.MessageKindSystem, content)); err != nil {
		return nil, err
	}
	return room, nil
}

// CreateBench creates a persistent named room with the creator as its sole
// participant. Benches carry no expiry.
func (s *RoomService) CreateBench(creatorID uint, name string) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: bench name cannot be empty", ErrValidation)
	}

	room := &models.ChatRoom{
		Kind:        models.RoomKindBench,
		Name:        name,
		CreatedByID: creatorID,
	}
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		if err := tx.CreateRoom(room); err != nil {
			return err
		}
		return tx.AddParticipant(room.RoomID, creatorID)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Bench %q created by user %d (room %s)", name, creatorID, room.RoomID)
	return room, nil
}

// Join adds the user to the room with a system message, atomically with the
// cap and state checks. Joining a room the user already belongs to succeeds
// without side effects.
func (s *RoomService) Join(roomID string, userID uint) (*models.ChatRoom, error) {
	var joined *models.ChatRoom
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		room, err := tx.GetRoomByID(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
		}
		joined = room

		already, err := tx.IsParticipant(roomID, userID)
		if err != nil {
			return err
		}
		if already {
			return nil
		}

		now := time.Now()
		if !room.IsActive {
			return fmt.Errorf("%w: room is no longer active", ErrStateConflict)
		}
		if room.IsExpired(now) {
			return fmt.Errorf("%w: room has expired", ErrStateConflict)
		}
		count, err := tx.CountParticipants(roomID)
		if err != nil {
			return err
		}
		if count >= int64(room.MaxParticipants) {
			return fmt.Errorf("%w: room is full", ErrStateConflict)
		}

		if err := tx.AddParticipant(roomID, userID); err != nil {
			return err
		}
		return s.systemMessage(tx, room, userID, "%s joined the chat")
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// Leave removes the user from the room with a system message. The last
// participant out deactivates the room in the same transaction; the row is
// kept for the audit/expiry sweep, never hard-deleted here.
func (s *RoomService) Leave(roomID string, userID uint) error {
	return s.Storage.WithTx(func(tx storage.Storage) error {
		room, err := tx.GetRoomByID(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
		}

		removed, err := tx.RemoveParticipant(roomID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: you are not a participant in this room", ErrUnauthorized)
		}

		if err := s.systemMessage(tx, room, userID, "%s left the chat"); err != nil {
			return err
		}

		count, err := tx.CountParticipants(roomID)
		if err != nil {
			return err
		}
		if count == 0 {
			return tx.DeactivateRoom(roomID)
		}
		return nil
	})
}

// UserRooms lists the caller's active rooms.
func (s *RoomService) UserRooms(userID uint) ([]models.ChatRoom, error) {
	return s.Storage.ActiveRoomsForUser(userID)
}

// GetRoomForUser fetches a room the caller participates in.
func (s *RoomService) GetRoomForUser(roomID string, userID uint) (*models.ChatRoom, error) {
	room, err := s.Storage.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	member, err := s.Storage.IsParticipant(roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, fmt.Errorf("%w: you are not a participant in this room", ErrUnauthorized)
	}
	return room, nil
}

func (s *RoomService) systemMessage(tx storage.Storage, room *models.ChatRoom, userID uint, format string) error {
	user, err := tx.GetUserByID(userID)
	if err != nil {
		return err
	}
	name := "Someone"
	if user != nil {
		name = user.Username
	}
	return tx.CreateMessage(newRoomMessage(room, userID, models.MessageKindSystem, fmt.Sprintf(format, name)))
}
