// internal/models/invitation_test.go
package models

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestNewFriendInvitation(t *testing.T) {
	inviter := uuid.New()
	receiver := uuid.New()

	inv, err := NewFriendInvitation(inviter, receiver)
	if err != nil {
		t.Fatalf("NewFriendInvitation failed: %v", err)
	}
	if inv.Inviter != inviter || inv.Receiver != receiver {
		t.Fatalf("participants not preserved: %+v", inv)
	}
	if inv.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
	if inv.ID.Version() != 7 {
		t.Fatalf("expected a time-sortable UUIDv7 id, got version %d", inv.ID.Version())
	}
}

func TestInvitationIDsAreStrictlyIncreasing(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	var prev FriendInvitation
	for i := 0; i < 1000; i++ {
		inv, err := NewFriendInvitation(a, b)
		if err != nil {
			t.Fatalf("NewFriendInvitation failed: %v", err)
		}
		if i > 0 && bytes.Compare(inv.ID[:], prev.ID[:]) <= 0 {
			t.Fatalf("id %v does not sort after %v", inv.ID, prev.ID)
		}
		prev = inv
	}
}
