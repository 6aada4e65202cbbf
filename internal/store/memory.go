// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pwalczyk/amici/internal/models"
)

// MemUserStore is an in-memory UserStore used by tests and dev mode.
// Map iteration gives the unordered-scan behavior of the real store.
type MemUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{users: make(map[uuid.UUID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Friends = append([]uuid.UUID(nil), u.Friends...)
	return &c
}

func (s *MemUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %v already exists", user.ID)
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %q already taken", user.Email)
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemUserStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var us []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			us = append(us, *cloneUser(u))
		}
	}
	return us, nil
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func (s *MemUserStore) SearchBySurname(_ context.Context, surname string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var us []models.User
	for _, u := range s.users {
		if hasPrefixFold(u.Surname, surname) {
			us = append(us, *cloneUser(u))
		}
	}
	sort.Slice(us, func(i, j int) bool { return us[i].Surname < us[j].Surname })
	if len(us) > limit {
		us = us[:limit]
	}
	return us, nil
}

func (s *MemUserStore) SearchByName(_ context.Context, given, surname string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var us []models.User
	for _, u := range s.users {
		if hasPrefixFold(u.GivenName, given) && hasPrefixFold(u.Surname, surname) {
			us = append(us, *cloneUser(u))
		}
	}
	sort.Slice(us, func(i, j int) bool { return us[i].Surname < us[j].Surname })
	if len(us) > limit {
		us = us[:limit]
	}
	return us, nil
}

func (s *MemUserStore) ScanAll(_ context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var us []models.User
	for _, u := range s.users {
		if len(us) >= limit {
			break
		}
		us = append(us, *cloneUser(u))
	}
	return us, nil
}

func (s *MemUserStore) AddToFriendSet(_ context.Context, id uuid.UUID, others []uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	for _, o := range others {
		if o == id || u.HasFriend(o) {
			continue
		}
		u.Friends = append(u.Friends, o)
	}
	return true, nil
}

func (s *MemUserStore) RemoveFromFriendSet(_ context.Context, id uuid.UUID, others []uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	kept := u.Friends[:0]
	for _, f := range u.Friends {
		remove := false
		for _, o := range others {
			if f == o {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, f)
		}
	}
	u.Friends = kept
	return true, nil
}

// MemInvitationStore is the in-memory InvitationStore counterpart.
type MemInvitationStore struct {
	mu          sync.RWMutex
	invitations map[uuid.UUID]models.FriendInvitation
}

func NewMemInvitationStore() *MemInvitationStore {
	return &MemInvitationStore{invitations: make(map[uuid.UUID]models.FriendInvitation)}
}

func (s *MemInvitationStore) GetByID(_ context.Context, id uuid.UUID) (*models.FriendInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (s *MemInvitationStore) GetByReceiver(_ context.Context, receiver uuid.UUID, limit int) ([]models.FriendInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var invs []models.FriendInvitation
	for _, inv := range s.invitations {
		if inv.Receiver == receiver {
			invs = append(invs, inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool {
		return invs[i].ID.String() < invs[j].ID.String()
	})
	if len(invs) > limit {
		invs = invs[:limit]
	}
	return invs, nil
}

func (s *MemInvitationStore) Insert(_ context.Context, inv models.FriendInvitation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invitations[inv.ID]; exists {
		return false, nil
	}
	s.invitations[inv.ID] = inv
	return true, nil
}

func (s *MemInvitationStore) DeleteByID(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invitations[id]; !exists {
		return false, nil
	}
	delete(s.invitations, id)
	return true, nil
}
