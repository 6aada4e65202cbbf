// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pwalczyk/amici/internal/models"
)

// ErrNotFound indicates the requested record does not exist. Callers that
// mask failures into empty/false defaults can still tell absence apart from
// infrastructure errors by checking for this sentinel.
var ErrNotFound = errors.New("store: not found")

// UserStore is the identity-record adapter. Set mutations report an
// "applied" verdict: true means the single-row update took effect. A row
// update is atomic on its own; there is no transaction spanning two rows,
// so the two sides of a friendship edge are always written independently.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	SearchBySurname(ctx context.Context, surname string, limit int) ([]models.User, error)
	SearchByName(ctx context.Context, given, surname string, limit int) ([]models.User, error)
	ScanAll(ctx context.Context, limit int) ([]models.User, error)
	AddToFriendSet(ctx context.Context, id uuid.UUID, others []uuid.UUID) (bool, error)
	RemoveFromFriendSet(ctx context.Context, id uuid.UUID, others []uuid.UUID) (bool, error)
}

// InvitationStore is the invitation-record adapter. Rows are immutable:
// they are inserted once and deleted on accept/deny.
type InvitationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FriendInvitation, error)
	GetByReceiver(ctx context.Context, receiver uuid.UUID, limit int) ([]models.FriendInvitation, error)
	Insert(ctx context.Context, inv models.FriendInvitation) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
}
