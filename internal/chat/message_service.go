package chat

import (
	"chaikada/backend/internal/catalog"
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// MessageService appends and lists chat messages. Posting revalidates the
// author's membership and the room's state inside the writing transaction.
type MessageService struct {
	Storage storage.Storage
}

// NewMessageService creates a new message service.
func NewMessageService(s storage.Storage) *MessageService {
	return &MessageService{Storage: s}
}

// DefaultListLimit bounds how many messages one poll returns.
const DefaultListLimit = 50

// newRoomMessage builds a message for the room, stamping the 24-hour expiry
// when the room is a stranger chat. Bench messages never expire.
func newRoomMessage(room *models.ChatRoom, userID uint, kind, content string) *models.ChatMessage {
	msg := &models.ChatMessage{
		RoomID:  room.RoomID,
		UserID:  userID,
		Kind:    kind,
		Content: content,
	}
	if room.Kind == models.RoomKindStranger {
		expires := time.Now().Add(models.StrangerMessageTTL)
		msg.ExpiresAt = &expires
	}
	return msg
}

// Post appends a message to the room. Text messages must carry content;
// shared_item messages go through the catalog collaborator, which rejects the
// share before anything is written when the user has no units left.
func (s *MessageService) Post(roomID string, userID uint, kind, content string, sharedItemID *uint) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if kind == "" {
		kind = models.MessageKindText
	}
	if kind == models.MessageKindText && content == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}

	var created *models.ChatMessage
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		room, err := tx.GetRoomByID(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
		}
		member, err := tx.IsParticipant(roomID, userID)
		if err != nil {
			return err
		}
		if !member {
			return fmt.Errorf("%w: you are not in this chat room", ErrUnauthorized)
		}
		if !room.IsActive {
			return fmt.Errorf("%w: room is no longer active", ErrStateConflict)
		}
		if room.IsExpired(time.Now()) {
			return fmt.Errorf("%w: room has expired", ErrStateConflict)
		}

		msg := newRoomMessage(room, userID, kind, content)
		if kind == models.MessageKindSharedItem {
			if sharedItemID == nil {
				return fmt.Errorf("%w: shared_item_id is required", ErrValidation)
			}
			purchase, item, err := consumeShare(tx, userID, *sharedItemID)
			if err != nil {
				return err
			}
			msg.SharedItemID = &item.ID
			msg.SharedPurchaseID = &purchase.ID
			msg.Content = fmt.Sprintf("shared %s %s", item.Name, item.Emoji)
		}

		if err := tx.CreateMessage(msg); err != nil {
			return err
		}
		created = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Storage.PublishRoomEvent(models.RoomEvent{
		RoomID:    created.RoomID,
		MessageID: created.ID,
		UserID:    created.UserID,
		Kind:      created.Kind,
		Content:   created.Content,
		Timestamp: created.CreatedAt,
	}); err != nil {
		log.Printf("ERROR: Failed to publish message %d for room %s: %v", created.ID, created.RoomID, err)
	}
	return created, nil
}

// consumeShare asks the catalog collaborator for one unit of the item. The
// collaborator is bound to the posting transaction, so a failed insert rolls
// the spent unit back too. Exhaustion surfaces as a state conflict before any
// message exists.
func consumeShare(tx storage.Storage, userID, itemID uint) (*models.Purchase, *models.Item, error) {
	sharer := tx.Sharer()
	ok, err := sharer.CanShare(userID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: you don't have this item to share or you've used all of them", ErrStateConflict)
	}
	purchase, item, err := sharer.ConsumeShare(userID, itemID)
	if errors.Is(err, catalog.ErrNothingToShare) {
		return nil, nil, fmt.Errorf("%w: you don't have this item to share or you've used all of them", ErrStateConflict)
	}
	if err != nil {
		return nil, nil, err
	}
	return purchase, item, nil
}

// RoomMessages is the poll response: chronological messages plus the room
// digest.
type RoomMessages struct {
	Messages []models.ChatMessage `json:"messages"`
	Room     *Summary             `json:"room_info"`
}

// ListVisible returns the newest visible messages in chronological order,
// together with the room summary. Non-participants are rejected.
func (s *MessageService) ListVisible(roomID string, userID uint, limit int) (*RoomMessages, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

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
		return nil, fmt.Errorf("%w: access denied", ErrUnauthorized)
	}

	now := time.Now()
	summary, err := Summarize(s.Storage, room, now)
	if err != nil {
		return nil, err
	}

	// An expired room stays readable as a summary, but its messages are
	// already past their useful life even if their own TTL has not elapsed.
	if room.IsExpired(now) {
		return &RoomMessages{Messages: []models.ChatMessage{}, Room: summary}, nil
	}

	messages, err := s.Storage.ListVisibleMessages(roomID, now, limit)
	if err != nil {
		return nil, err
	}
	return &RoomMessages{Messages: messages, Room: summary}, nil
}
