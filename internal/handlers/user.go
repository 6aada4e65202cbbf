// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pwalczyk/amici/internal/auth"
	"github.com/pwalczyk/amici/internal/models"
	"github.com/pwalczyk/amici/internal/store"
)

// UserServer exposes account creation and login. Profile management
// beyond that lives outside this service.
type UserServer struct {
	Users store.UserStore
	Log   *logrus.Logger
}

func NewUserServer(users store.UserStore, log *logrus.Logger) *UserServer {
	return &UserServer{Users: users, Log: log}
}

type createUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
}

// CreateUserHandler registers a new user and returns the stored record
// (password omitted).
func (us *UserServer) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		http.Error(w, "email, password and username are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		us.Log.WithError(err).Error("failed to hash password")
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	u := models.User{
		Email:     req.Email,
		Password:  hash,
		Username:  req.Username,
		GivenName: req.GivenName,
		Surname:   req.Surname,
	}
	if err := us.Users.Create(r.Context(), &u); err != nil {
		us.Log.WithError(err).Warn("failed to insert user")
		http.Error(w, "failed to create user", http.StatusConflict)
		return
	}

	u.Password = ""
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and sets the session cookie.
func (us *UserServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	u, err := us.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			us.Log.WithError(err).Warn("login lookup failed")
		}
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}
	match, err := auth.VerifyPassword(req.Password, u.Password)
	if err != nil || !match {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	token, err := auth.CreateJWT(u.ID.String())
	if err != nil {
		us.Log.WithError(err).Error("failed to create jwt")
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("logged in"))
}
