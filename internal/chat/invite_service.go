package chat

import (
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"fmt"
	"log"
	"time"
)

// CreateInvite returns the room's valid active invite, creating one when none
// exists. Only the creator of a bench may issue invites; stranger rooms never
// have them.
func (s *RoomService) CreateInvite(roomID string, userID uint) (*models.BenchInvite, error) {
	var invite *models.BenchInvite
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		room, err := tx.GetRoomByID(roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
		}
		if room.Kind != models.RoomKindBench {
			return fmt.Errorf("%w: only benches can be shared by invite", ErrStateConflict)
		}
		if room.CreatedByID != userID {
			return fmt.Errorf("%w: only the bench creator can issue invites", ErrUnauthorized)
		}
		if !room.IsActive {
			return fmt.Errorf("%w: room is no longer active", ErrStateConflict)
		}

		existing, err := tx.ActiveInviteForRoom(roomID)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsValid(time.Now()) {
			invite = existing
			return nil
		}

		invite = &models.BenchInvite{RoomID: roomID, CreatedByID: userID}
		return tx.CreateInvite(invite)
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// JoinByInvite redeems an invite code: the bearer joins the bench and the use
// counter advances, in one transaction. Codes past their expiry or use limit
// are rejected and their status written back so later lookups fail fast.
func (s *RoomService) JoinByInvite(code string, userID uint) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := s.Storage.WithTx(func(tx storage.Storage) error {
		invite, err := tx.GetInviteByCode(code)
		if err != nil {
			return err
		}
		if invite == nil {
			return fmt.Errorf("%w: invite code", ErrNotFound)
		}

		now := time.Now()
		if !invite.IsValid(now) {
			if invite.Status == models.InviteStatusActive {
				invite.Status = models.InviteStatusExpired
				if err := tx.UpdateInvite(invite); err != nil {
					return err
				}
			}
			return fmt.Errorf("%w: invite is no longer valid", ErrStateConflict)
		}

		target, err := tx.GetRoomByID(invite.RoomID)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("%w: room %s", ErrNotFound, invite.RoomID)
		}
		room = target

		already, err := tx.IsParticipant(target.RoomID, userID)
		if err != nil {
			return err
		}
		if already {
			return nil
		}

		if !target.IsActive {
			return fmt.Errorf("%w: room is no longer active", ErrStateConflict)
		}
		count, err := tx.CountParticipants(target.RoomID)
		if err != nil {
			return err
		}
		if count >= int64(target.MaxParticipants) {
			return fmt.Errorf("%w: room is full", ErrStateConflict)
		}
		if err := tx.AddParticipant(target.RoomID, userID); err != nil {
			return err
		}
		if err := s.systemMessage(tx, target, userID, "%s joined the chat"); err != nil {
			return err
		}

		invite.CurrentUses++
		if invite.CurrentUses >= invite.MaxUses {
			invite.Status = models.InviteStatusUsed
		}
		return tx.UpdateInvite(invite)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: User %d joined bench %s via invite", userID, room.RoomID)
	return room, nil
}
