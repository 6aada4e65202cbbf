// internal/store/user_pg.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pwalczyk/amici/internal/models"
)

const userColumns = `id, email, password, username, given_name, surname, friends`

// PGUserStore implements UserStore over a Postgres users table whose
// friends column is a uuid[] treated as a set. Every mutation touches
// exactly one row; the set add/remove is atomic within that row.
type PGUserStore struct {
	pool *pgxpool.Pool
}

func NewPGUserStore(pool *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.GivenName, &u.Surname, &u.Friends)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()
	var us []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.GivenName, &u.Surname, &u.Friends); err != nil {
			return nil, err
		}
		us = append(us, u)
	}
	return us, rows.Err()
}

func (s *PGUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}
	q := `INSERT INTO users (id, email, password, username, given_name, surname, friends)
	      VALUES ($1, $2, $3, $4, $5, $6, '{}')`
	_, err := s.pool.Exec(ctx, q,
		user.ID, user.Email, user.Password, user.Username, user.GivenName, user.Surname,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PGUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *PGUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *PGUserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *PGUserStore) SearchBySurname(ctx context.Context, surname string, limit int) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE surname ILIKE $1 || '%' ORDER BY surname LIMIT $2`
	rows, err := s.pool.Query(ctx, q, surname, limit)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *PGUserStore) SearchByName(ctx context.Context, given, surname string, limit int) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
	      WHERE given_name ILIKE $1 || '%' AND surname ILIKE $2 || '%'
	      ORDER BY surname LIMIT $3`
	rows, err := s.pool.Query(ctx, q, given, surname, limit)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *PGUserStore) ScanAll(ctx context.Context, limit int) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// AddToFriendSet appends others to the row's friends set, deduplicating in
// place. The owner's own id is filtered out so the set never contains it.
// Applied is false when the row does not exist.
func (s *PGUserStore) AddToFriendSet(ctx context.Context, id uuid.UUID, others []uuid.UUID) (bool, error) {
	q := `UPDATE users SET friends = (
	        SELECT COALESCE(array_agg(DISTINCT f), '{}') FROM unnest(friends || $2::uuid[]) AS f
	        WHERE f <> $1
	      ) WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, id, others)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// RemoveFromFriendSet removes others from the row's friends set. Removing
// ids that are not present still counts as applied, mirroring set-remove
// semantics; only a missing row yields false.
func (s *PGUserStore) RemoveFromFriendSet(ctx context.Context, id uuid.UUID, others []uuid.UUID) (bool, error) {
	q := `UPDATE users SET friends = (
	        SELECT COALESCE(array_agg(f), '{}') FROM unnest(friends) AS f
	        WHERE NOT (f = ANY($2::uuid[]))
	      ) WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, id, others)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
