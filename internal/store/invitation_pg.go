// internal/store/invitation_pg.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pwalczyk/amici/internal/models"
)

// PGInvitationStore implements InvitationStore over the friend_invitations
// table. Insert and delete report whether the write actually took effect,
// so the service layer can fold verdicts without re-reading.
type PGInvitationStore struct {
	pool *pgxpool.Pool
}

func NewPGInvitationStore(pool *pgxpool.Pool) *PGInvitationStore {
	return &PGInvitationStore{pool: pool}
}

func (s *PGInvitationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.FriendInvitation, error) {
	var inv models.FriendInvitation
	q := `SELECT id, inviter, receiver FROM friend_invitations WHERE id=$1`
	err := s.pool.QueryRow(ctx, q, id).Scan(&inv.ID, &inv.Inviter, &inv.Receiver)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *PGInvitationStore) GetByReceiver(ctx context.Context, receiver uuid.UUID, limit int) ([]models.FriendInvitation, error) {
	q := `SELECT id, inviter, receiver FROM friend_invitations WHERE receiver=$1 ORDER BY id LIMIT $2`
	rows, err := s.pool.Query(ctx, q, receiver, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []models.FriendInvitation
	for rows.Next() {
		var inv models.FriendInvitation
		if err := rows.Scan(&inv.ID, &inv.Inviter, &inv.Receiver); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (s *PGInvitationStore) Insert(ctx context.Context, inv models.FriendInvitation) (bool, error) {
	q := `INSERT INTO friend_invitations (id, inviter, receiver)
	      VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
	ct, err := s.pool.Exec(ctx, q, inv.ID, inv.Inviter, inv.Receiver)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PGInvitationStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	q := `DELETE FROM friend_invitations WHERE id=$1`
	ct, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
