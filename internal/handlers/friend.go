// internal/handlers/friend.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pwalczyk/amici/internal/events"
	"github.com/pwalczyk/amici/internal/friends"
)

// FriendServer exposes the friendship core over HTTP. Every endpoint
// resolves the caller from the session cookie before touching the service;
// domain verdicts map to 200 (true) or 409 (false), mirroring the single
// positive/negative signal of the service layer.
type FriendServer struct {
	Service *friends.Service
	Events  *events.Publisher
	Log     *logrus.Logger
}

func NewFriendServer(service *friends.Service, ev *events.Publisher, log *logrus.Logger) *FriendServer {
	return &FriendServer{Service: service, Events: ev, Log: log}
}

type friendIDRequest struct {
	FriendID string `json:"friend_id"`
}

type invitationActionRequest struct {
	InviterID    string `json:"inviter_id,omitempty"`
	InvitationID string `json:"invitation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeVerdict(w http.ResponseWriter, ok bool) {
	if !ok {
		http.Error(w, "operation was not applied", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func decodeFriendID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req friendIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.FriendID)
	if err != nil {
		http.Error(w, "invalid friend_id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// ListHandler returns the caller's friends as identity records.
func (fs *FriendServer) ListHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	list := fs.Service.FriendshipList(r.Context(), callerID)
	for i := range list {
		list[i].Password = ""
	}
	writeJSON(w, list)
}

// InviteHandler sends a friend invitation from the caller.
//
// Payload: { "friend_id": "uuid" }
func (fs *FriendServer) InviteHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	friendID, ok := decodeFriendID(w, r)
	if !ok {
		return
	}
	writeVerdict(w, fs.Service.SendInvitation(r.Context(), callerID, friendID))
}

// RemoveHandler removes an existing friendship edge.
//
// Payload: { "friend_id": "uuid" }
func (fs *FriendServer) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	friendID, ok := decodeFriendID(w, r)
	if !ok {
		return
	}
	writeVerdict(w, fs.Service.RemoveFriend(r.Context(), callerID, friendID))
}

// InvitationsHandler returns the caller's pending invitations.
func (fs *FriendServer) InvitationsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	writeJSON(w, fs.Service.Invitations(r.Context(), callerID))
}

// AcceptHandler accepts a pending invitation addressed to the caller,
// keyed either by the inviter's id or by the invitation id.
//
// Payload: { "inviter_id": "uuid" } or { "invitation_id": "uuid" }
func (fs *FriendServer) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	fs.invitationAction(w, r,
		fs.Service.AcceptInvitation, fs.Service.AcceptInvitationByID)
}

// DenyHandler denies a pending invitation; same payload as AcceptHandler.
func (fs *FriendServer) DenyHandler(w http.ResponseWriter, r *http.Request) {
	fs.invitationAction(w, r,
		fs.Service.DenyInvitation, fs.Service.DenyInvitationByID)
}

func (fs *FriendServer) invitationAction(w http.ResponseWriter, r *http.Request,
	byPair func(ctx context.Context, inviter, receiver uuid.UUID) bool,
	byID func(ctx context.Context, id uuid.UUID) bool,
) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req invitationActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch {
	case req.InvitationID != "":
		id, err := uuid.Parse(req.InvitationID)
		if err != nil {
			http.Error(w, "invalid invitation_id", http.StatusBadRequest)
			return
		}
		inv := fs.Service.InvitationByID(r.Context(), id)
		if inv == nil {
			writeVerdict(w, false)
			return
		}
		// only the receiver may act on an invitation addressed to them
		if inv.Receiver != callerID {
			http.Error(w, "not the invitation receiver", http.StatusForbidden)
			return
		}
		writeVerdict(w, byID(r.Context(), id))
	case req.InviterID != "":
		inviterID, err := uuid.Parse(req.InviterID)
		if err != nil {
			http.Error(w, "invalid inviter_id", http.StatusBadRequest)
			return
		}
		writeVerdict(w, byPair(r.Context(), inviterID, callerID))
	default:
		http.Error(w, "inviter_id or invitation_id required", http.StatusBadRequest)
	}
}

// ProposeHandler returns suggested new friends for the caller.
func (fs *FriendServer) ProposeHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	recs := fs.Service.Propose(r.Context(), callerID)
	for i := range recs {
		recs[i].Password = ""
	}
	writeJSON(w, recs)
}

// SearchHandler looks up users by "<given> <surname>" query string.
//
// Query parameter: q
func (fs *FriendServer) SearchHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	recs := fs.Service.Search(r.Context(), r.URL.Query().Get("q"), &callerID)
	for i := range recs {
		recs[i].Password = ""
	}
	writeJSON(w, recs)
}
