// internal/handlers/friend_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pwalczyk/amici/internal/auth"
	"github.com/pwalczyk/amici/internal/friends"
	"github.com/pwalczyk/amici/internal/models"
	"github.com/pwalczyk/amici/internal/store"
)

func newTestFriendServer(t *testing.T) (*FriendServer, *store.MemUserStore) {
	t.Helper()
	if err := auth.Init(); err != nil {
		t.Fatalf("auth init failed: %v", err)
	}
	users := store.NewMemUserStore()
	invitations := store.NewMemInvitationStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := friends.NewService(users, invitations, logger)
	return NewFriendServer(svc, nil, logger), users
}

func createTestUser(t *testing.T, users *store.MemUserStore, given, surname string) models.User {
	t.Helper()
	u := models.User{
		Email:     given + "@example.com",
		Password:  "irrelevant",
		Username:  given,
		GivenName: given,
		Surname:   surname,
	}
	if err := users.Create(context.Background(), &u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return u
}

func authedRequest(t *testing.T, method, target string, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	token, err := auth.CreateJWT(userID.String())
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}
	r.Header.Set("Cookie", auth.CookieName+"="+token)
	return r
}

// TestFriendFlow drives the whole invite/accept/list/remove cycle over the
// HTTP handlers.
func TestFriendFlow(t *testing.T) {
	srv, users := newTestFriendServer(t)

	alice := createTestUser(t, users, "Alice", "Nowak")
	bob := createTestUser(t, users, "Bob", "Kowalski")

	// alice invites bob
	req := authedRequest(t, "POST", "/friends/invite", `{"friend_id":"`+bob.ID.String()+`"}`, alice.ID)
	w := httptest.NewRecorder()
	srv.InviteHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// bob sees the pending invitation
	req = authedRequest(t, "GET", "/friends/invitations", "", bob.ID)
	w = httptest.NewRecorder()
	srv.InvitationsHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var invs []models.FriendInvitation
	if err := json.Unmarshal(w.Body.Bytes(), &invs); err != nil {
		t.Fatalf("failed to decode invitations: %v", err)
	}
	if len(invs) != 1 || invs[0].Inviter != alice.ID {
		t.Fatalf("expected one invitation from alice, got %v", invs)
	}

	// bob accepts by inviter id
	req = authedRequest(t, "POST", "/friends/invitations/accept", `{"inviter_id":"`+alice.ID.String()+`"}`, bob.ID)
	w = httptest.NewRecorder()
	srv.AcceptHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// bob's friend list now contains alice, password scrubbed
	req = authedRequest(t, "GET", "/friends/list", "", bob.ID)
	w = httptest.NewRecorder()
	srv.ListHandler(w, req)
	var list []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode friend list: %v", err)
	}
	if len(list) != 1 || list[0].ID != alice.ID {
		t.Fatalf("expected alice in bob's list, got %v", list)
	}
	if list[0].Password != "" {
		t.Fatal("password must not leak through the friend list")
	}

	// inviting again conflicts: they are already friends
	req = authedRequest(t, "POST", "/friends/invite", `{"friend_id":"`+bob.ID.String()+`"}`, alice.ID)
	w = httptest.NewRecorder()
	srv.InviteHandler(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	// remove the edge
	req = authedRequest(t, "POST", "/friends/remove", `{"friend_id":"`+alice.ID.String()+`"}`, bob.ID)
	w = httptest.NewRecorder()
	srv.RemoveHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// removing again conflicts
	w = httptest.NewRecorder()
	srv.RemoveHandler(w, authedRequest(t, "POST", "/friends/remove", `{"friend_id":"`+alice.ID.String()+`"}`, bob.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestDenyFlow(t *testing.T) {
	srv, users := newTestFriendServer(t)

	alice := createTestUser(t, users, "Alice", "Nowak")
	bob := createTestUser(t, users, "Bob", "Kowalski")

	w := httptest.NewRecorder()
	srv.InviteHandler(w, authedRequest(t, "POST", "/friends/invite", `{"friend_id":"`+bob.ID.String()+`"}`, alice.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.DenyHandler(w, authedRequest(t, "POST", "/friends/invitations/deny", `{"inviter_id":"`+alice.ID.String()+`"}`, bob.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// denying twice conflicts
	w = httptest.NewRecorder()
	srv.DenyHandler(w, authedRequest(t, "POST", "/friends/invitations/deny", `{"inviter_id":"`+alice.ID.String()+`"}`, bob.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	// no edge was formed
	w = httptest.NewRecorder()
	srv.ListHandler(w, authedRequest(t, "GET", "/friends/list", "", bob.ID))
	var list []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode friend list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty friend list, got %v", list)
	}
}

// Acting on an invitation by id is restricted to its receiver.
func TestAcceptByIDRequiresReceiver(t *testing.T) {
	srv, users := newTestFriendServer(t)

	alice := createTestUser(t, users, "Alice", "Nowak")
	bob := createTestUser(t, users, "Bob", "Kowalski")
	carol := createTestUser(t, users, "Carol", "Wojcik")

	w := httptest.NewRecorder()
	srv.InviteHandler(w, authedRequest(t, "POST", "/friends/invite", `{"friend_id":"`+bob.ID.String()+`"}`, alice.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.InvitationsHandler(w, authedRequest(t, "GET", "/friends/invitations", "", bob.ID))
	var invs []models.FriendInvitation
	if err := json.Unmarshal(w.Body.Bytes(), &invs); err != nil {
		t.Fatalf("failed to decode invitations: %v", err)
	}
	if len(invs) != 1 {
		t.Fatalf("expected one pending invitation, got %d", len(invs))
	}
	invID := invs[0].ID.String()

	// carol is neither inviter nor receiver
	w = httptest.NewRecorder()
	srv.AcceptHandler(w, authedRequest(t, "POST", "/friends/invitations/accept", `{"invitation_id":"`+invID+`"}`, carol.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign invitation, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	srv.DenyHandler(w, authedRequest(t, "POST", "/friends/invitations/deny", `{"invitation_id":"`+invID+`"}`, carol.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign invitation, got %d", w.Code)
	}

	// the invitation is still pending and the receiver can accept it
	w = httptest.NewRecorder()
	srv.AcceptHandler(w, authedRequest(t, "POST", "/friends/invitations/accept", `{"invitation_id":"`+invID+`"}`, bob.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for receiver accept, got %d, body=%s", w.Code, w.Body.String())
	}

	// a made-up id resolves to a conflict, not a 403
	w = httptest.NewRecorder()
	srv.AcceptHandler(w, authedRequest(t, "POST", "/friends/invitations/accept", `{"invitation_id":"`+uuid.NewString()+`"}`, bob.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unknown invitation id, got %d", w.Code)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	srv, _ := newTestFriendServer(t)

	req := httptest.NewRequest("GET", "/friends/list", nil)
	w := httptest.NewRecorder()
	srv.ListHandler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/friends/propose", nil)
	req.Header.Set("Cookie", auth.CookieName+"=not-a-jwt")
	w = httptest.NewRecorder()
	srv.ProposeHandler(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with bogus token, got %d", w.Code)
	}
}

func TestSearchHandler(t *testing.T) {
	srv, users := newTestFriendServer(t)

	caller := createTestUser(t, users, "Zofia", "Lis")
	createTestUser(t, users, "Jan", "Kowalski")

	// one token: not a full name, empty result
	w := httptest.NewRecorder()
	srv.SearchHandler(w, authedRequest(t, "GET", "/friends/search?q=Jan", "", caller.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var recs []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("failed to decode search result: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty result for single token, got %v", recs)
	}

	w = httptest.NewRecorder()
	srv.SearchHandler(w, authedRequest(t, "GET", "/friends/search?q=Jan+Kowalski", "", caller.ID))
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("failed to decode search result: %v", err)
	}
	if len(recs) == 0 || recs[0].Surname != "Kowalski" {
		t.Fatalf("expected Kowalski in search result, got %v", recs)
	}
}

func TestProposeHandlerEmptyForLoner(t *testing.T) {
	srv, users := newTestFriendServer(t)

	loner := createTestUser(t, users, "Ludwik", "")

	w := httptest.NewRecorder()
	srv.ProposeHandler(w, authedRequest(t, "GET", "/friends/propose", "", loner.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var recs []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("failed to decode propose result: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no proposals for a user with no friends and no surname, got %v", recs)
	}
}
