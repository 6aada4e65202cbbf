// internal/friends/service.go
package friends

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pwalczyk/amici/internal/events"
	"github.com/pwalczyk/amici/internal/models"
	"github.com/pwalczyk/amici/internal/store"
)

const (
	// opTimeout bounds every externally observable operation. On expiry the
	// operation resolves to its empty/false default instead of an error.
	opTimeout = 8 * time.Second

	maxSampledFriends  = 4
	maxProposals       = 8
	searchLimit        = 20
	invitationPageSize = 100
)

// Service implements the friendship core: the invitation lifecycle, the
// two-sided edge mutation, and the suggestion/search fallback chain.
//
// Mutating operations return a bare verdict: true means every underlying
// store write reported applied. Not-found, precondition violations and
// transient store failures all collapse into false/empty at this boundary;
// the distinction is logged but deliberately not exposed. Retrying a false
// verdict is always safe because set add/remove and row deletes are
// idempotent.
type Service struct {
	users       store.UserStore
	invitations store.InvitationStore
	events      *events.Publisher
	log         *logrus.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService wires the core against its two store adapters. The event
// publisher is optional.
func NewService(users store.UserStore, invitations store.InvitationStore, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		users:       users,
		invitations: invitations,
		log:         log,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithEvents attaches a best-effort event publisher and returns s.
func (s *Service) WithEvents(p *events.Publisher) *Service {
	s.events = p
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// maskErr records a store failure that is about to be collapsed into the
// operation's empty/false default.
func (s *Service) maskErr(op string, err error) {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return
	}
	s.log.WithError(err).WithField("op", op).Warn("store failure masked to default result")
}

func (s *Service) publish(eventType string, actor, subject uuid.UUID) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.events.Publish(ctx, events.FriendEventRecord{
		Type:      eventType,
		ActorID:   actor,
		SubjectID: subject,
	})
}

func (s *Service) takeRandomIDs(ids []uuid.UUID, n int) []uuid.UUID {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return takeRandom(s.rng, ids, n)
}

// FriendsOf returns the friend set of id, or an empty set when the user is
// unknown or the read fails.
func (s *Service) FriendsOf(ctx context.Context, id uuid.UUID) []uuid.UUID {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.maskErr("friends_of", err)
		return nil
	}
	return u.Friends
}

// FriendshipList returns the full identity records of id's friends.
func (s *Service) FriendshipList(ctx context.Context, id uuid.UUID) []models.User {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.maskErr("friendship_list", err)
		return nil
	}
	if len(u.Friends) == 0 {
		return nil
	}
	recs, err := s.users.GetByIDs(ctx, u.Friends)
	if err != nil {
		s.maskErr("friendship_list", err)
		return nil
	}
	return recs
}

// InvitationByID returns the pending invitation with the given id, or nil
// when it does not exist or the read fails.
func (s *Service) InvitationByID(ctx context.Context, id uuid.UUID) *models.FriendInvitation {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		s.maskErr("invitation_by_id", err)
		return nil
	}
	return inv
}

// Invitations returns the pending invitations addressed to id.
func (s *Service) Invitations(ctx context.Context, id uuid.UUID) []models.FriendInvitation {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	invs, err := s.invitations.GetByReceiver(ctx, id, invitationPageSize)
	if err != nil {
		s.maskErr("invitations", err)
		return nil
	}
	return invs
}

// SendInvitation creates a pending invitation from inviter to receiver.
// It fails without writing unless both users exist, neither already has
// the other in its friend set, and no invitation is pending between the
// pair in either direction. The checks are read-then-write: two senders
// racing on the same pair can still both succeed.
func (s *Service) SendInvitation(ctx context.Context, inviter, receiver uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if inviter == receiver {
		return false
	}

	recs, err := s.users.GetByIDs(ctx, []uuid.UUID{inviter, receiver})
	if err != nil {
		s.maskErr("send_invitation", err)
		return false
	}
	if len(recs) != 2 {
		return false
	}
	for i := range recs {
		other := receiver
		if recs[i].ID == receiver {
			other = inviter
		}
		if recs[i].HasFriend(other) {
			return false
		}
	}

	pending, err := s.pendingBetween(ctx, inviter, receiver)
	if err != nil {
		s.maskErr("send_invitation", err)
		return false
	}
	if pending {
		return false
	}

	inv, err := models.NewFriendInvitation(inviter, receiver)
	if err != nil {
		s.maskErr("send_invitation", err)
		return false
	}
	applied, err := s.invitations.Insert(ctx, inv)
	if err != nil {
		s.maskErr("send_invitation", err)
		return false
	}
	if applied {
		s.publish(events.TypeInvitationSent, inviter, receiver)
	}
	return applied
}

// pendingBetween reports whether a live invitation exists for the
// unordered pair in either direction.
func (s *Service) pendingBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	toB, err := s.invitations.GetByReceiver(ctx, b, invitationPageSize)
	if err != nil {
		return false, err
	}
	for _, inv := range toB {
		if inv.Inviter == a {
			return true, nil
		}
	}
	toA, err := s.invitations.GetByReceiver(ctx, a, invitationPageSize)
	if err != nil {
		return false, err
	}
	for _, inv := range toA {
		if inv.Inviter == b {
			return true, nil
		}
	}
	return false, nil
}

// AcceptInvitation accepts the pending invitation from inviter to
// receiver. The invitation row is only deleted after the edge mutation
// succeeds on both sides; a transient edge failure leaves it pending so
// the accept can be retried.
func (s *Service) AcceptInvitation(ctx context.Context, inviter, receiver uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inv := s.findPending(ctx, inviter, receiver)
	if inv == nil {
		return false
	}
	return s.completeAccept(ctx, *inv)
}

// AcceptInvitationByID is AcceptInvitation keyed by invitation id.
func (s *Service) AcceptInvitationByID(ctx context.Context, id uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		s.maskErr("accept_invitation", err)
		return false
	}
	return s.completeAccept(ctx, *inv)
}

func (s *Service) completeAccept(ctx context.Context, inv models.FriendInvitation) bool {
	if !s.addEdge(ctx, inv.Inviter, inv.Receiver) {
		return false
	}
	applied, err := s.invitations.DeleteByID(ctx, inv.ID)
	if err != nil {
		s.maskErr("accept_invitation", err)
		return false
	}
	if applied {
		s.publish(events.TypeInvitationAccepted, inv.Receiver, inv.Inviter)
	}
	return applied
}

// DenyInvitation deletes the pending invitation from inviter to receiver
// without creating an edge.
func (s *Service) DenyInvitation(ctx context.Context, inviter, receiver uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inv := s.findPending(ctx, inviter, receiver)
	if inv == nil {
		return false
	}
	return s.completeDeny(ctx, *inv)
}

// DenyInvitationByID is DenyInvitation keyed by invitation id.
func (s *Service) DenyInvitationByID(ctx context.Context, id uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		s.maskErr("deny_invitation", err)
		return false
	}
	return s.completeDeny(ctx, *inv)
}

func (s *Service) completeDeny(ctx context.Context, inv models.FriendInvitation) bool {
	applied, err := s.invitations.DeleteByID(ctx, inv.ID)
	if err != nil {
		s.maskErr("deny_invitation", err)
		return false
	}
	if applied {
		s.publish(events.TypeInvitationDenied, inv.Receiver, inv.Inviter)
	}
	return applied
}

func (s *Service) findPending(ctx context.Context, inviter, receiver uuid.UUID) *models.FriendInvitation {
	invs, err := s.invitations.GetByReceiver(ctx, receiver, invitationPageSize)
	if err != nil {
		s.maskErr("find_pending", err)
		return nil
	}
	for i := range invs {
		if invs[i].Inviter == inviter {
			return &invs[i]
		}
	}
	return nil
}

// RemoveFriend removes the edge between id and friendID. It first reads
// both rows and requires the edge to exist symmetrically; a half-formed or
// absent edge yields false with no writes.
func (s *Service) RemoveFriend(ctx context.Context, id, friendID uuid.UUID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	recs, err := s.users.GetByIDs(ctx, []uuid.UUID{id, friendID})
	if err != nil {
		s.maskErr("remove_friend", err)
		return false
	}
	if len(recs) != 2 {
		return false
	}
	for i := range recs {
		other := friendID
		if recs[i].ID == friendID {
			other = id
		}
		if !recs[i].HasFriend(other) {
			return false
		}
	}

	if !s.removeEdge(ctx, id, friendID) {
		return false
	}
	s.publish(events.TypeFriendRemoved, id, friendID)
	return true
}

// addEdge makes the friendship symmetric: b into a's set and a into b's.
// The two single-row updates run concurrently and the verdicts fold with
// AND. No rollback happens when only one side applies; the edge is then
// transiently asymmetric and the caller may retry, which is safe because
// set-add is idempotent.
func (s *Service) addEdge(ctx context.Context, a, b uuid.UUID) bool {
	return s.mutateEdge(ctx, a, b, s.users.AddToFriendSet, "add_edge")
}

// removeEdge is the symmetric removal counterpart of addEdge.
func (s *Service) removeEdge(ctx context.Context, a, b uuid.UUID) bool {
	return s.mutateEdge(ctx, a, b, s.users.RemoveFromFriendSet, "remove_edge")
}

func (s *Service) mutateEdge(ctx context.Context, a, b uuid.UUID,
	op func(context.Context, uuid.UUID, []uuid.UUID) (bool, error), name string) bool {

	verdicts := make(chan bool, 2)
	mutate := func(row, member uuid.UUID) {
		applied, err := op(ctx, row, []uuid.UUID{member})
		if err != nil {
			s.maskErr(name, err)
			applied = false
		}
		verdicts <- applied
	}
	go mutate(a, b)
	go mutate(b, a)
	return <-verdicts && <-verdicts
}

// Propose computes up to maxProposals suggested users for clientID.
// Friends-of-friends are preferred; when that yields nothing the chain
// falls back to a surname search and finally to a bounded unordered scan.
// The result never contains clientID or any current friend reached via
// the relational path.
func (s *Service) Propose(ctx context.Context, clientID uuid.UUID) []models.User {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		s.maskErr("propose", err)
		return nil
	}

	if recs := s.proposeFromGraph(ctx, client); len(recs) > 0 {
		return recs
	}
	return s.proposeFallback(ctx, client)
}

// proposeFromGraph samples friends-of-friends two hops out.
func (s *Service) proposeFromGraph(ctx context.Context, client *models.User) []models.User {
	if len(client.Friends) == 0 {
		return nil
	}
	sampled := s.takeRandomIDs(client.Friends, maxSampledFriends)

	friendRecs, err := s.users.GetByIDs(ctx, sampled)
	if err != nil {
		s.maskErr("propose", err)
		return nil
	}

	exclude := make(map[uuid.UUID]struct{}, len(client.Friends)+1)
	exclude[client.ID] = struct{}{}
	for _, f := range client.Friends {
		exclude[f] = struct{}{}
	}

	var pool []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for i := range friendRecs {
		for _, cand := range friendRecs[i].Friends {
			if _, skip := exclude[cand]; skip {
				continue
			}
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			pool = append(pool, cand)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	picked := s.takeRandomIDs(pool, maxProposals)
	recs, err := s.users.GetByIDs(ctx, picked)
	if err != nil {
		s.maskErr("propose", err)
		return nil
	}
	return recs
}

// proposeFallback is the non-relational tail of the chain: surname match
// first, then a bounded scan. Without a surname there is nothing further
// to try.
func (s *Service) proposeFallback(ctx context.Context, client *models.User) []models.User {
	if client.Surname == "" {
		return nil
	}

	recs, err := s.users.SearchBySurname(ctx, client.Surname, maxProposals)
	if err != nil {
		s.maskErr("propose", err)
		return nil
	}
	out := recs[:0]
	for i := range recs {
		if recs[i].ID != client.ID {
			out = append(out, recs[i])
		}
	}
	if len(out) > 0 {
		return out
	}

	scanned, err := s.users.ScanAll(ctx, maxProposals)
	if err != nil {
		s.maskErr("propose", err)
		return nil
	}
	var result []models.User
	for i := range scanned {
		if scanned[i].ID == client.ID || client.HasFriend(scanned[i].ID) {
			continue
		}
		result = append(result, scanned[i])
	}
	return result
}

// Search looks up users by full name. The query must contain at least two
// non-blank tokens; the first is the given name, the last the surname.
// The caller id is accepted for parity with the HTTP surface but does not
// filter the result.
func (s *Service) Search(ctx context.Context, query string, caller *uuid.UUID) []models.User {
	_ = caller

	tokens := strings.Fields(query)
	if len(tokens) < 2 {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	recs, err := s.users.SearchByName(ctx, tokens[0], tokens[len(tokens)-1], searchLimit)
	if err != nil {
		s.maskErr("search", err)
		return nil
	}
	return recs
}
