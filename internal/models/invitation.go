package models

import (
	"fmt"

	"github.com/google/uuid"
)

// FriendInvitation is a pending friend request. The id is a UUIDv7, so ids
// generated later sort after earlier ones; within a process ties are broken
// by generation order. Rows are immutable once written and are deleted on
// accept or deny.
type FriendInvitation struct {
	ID       uuid.UUID `json:"id"`
	Inviter  uuid.UUID `json:"inviter"`
	Receiver uuid.UUID `json:"receiver"`
}

// NewFriendInvitation builds an invitation with a freshly generated
// time-sortable id.
func NewFriendInvitation(inviter, receiver uuid.UUID) (FriendInvitation, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return FriendInvitation{}, fmt.Errorf("failed to generate invitation id: %w", err)
	}
	return FriendInvitation{ID: id, Inviter: inviter, Receiver: receiver}, nil
}
