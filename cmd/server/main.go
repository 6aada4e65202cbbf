// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/pwalczyk/amici/internal/auth"
	"github.com/pwalczyk/amici/internal/events"
	"github.com/pwalczyk/amici/internal/friends"
	"github.com/pwalczyk/amici/internal/handlers"
	"github.com/pwalczyk/amici/internal/middleware"
	"github.com/pwalczyk/amici/internal/store"
)

func main() {
	devMode := false
	for _, arg := range os.Args[1:] {
		if arg == "-dev" {
			devMode = true
		}
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	ctx := context.Background()

	var users store.UserStore
	var invitations store.InvitationStore
	if devMode {
		logger.Info("dev mode: using in-memory stores")
		users = store.NewMemUserStore()
		invitations = store.NewMemInvitationStore()
	} else {
		pool, err := store.Connect(ctx)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := store.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("failed to provision schema: %v", err)
		}
		users = store.NewPGUserStore(pool)
		invitations = store.NewPGInvitationStore(pool)
	}

	var publisher *events.Publisher
	if devMode {
		publisher = events.NewInProcessPublisher(logger)
	} else {
		p, err := events.NewPublisher(logger)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, friend events stay in-process only")
			p = events.NewInProcessPublisher(logger)
		}
		publisher = p
	}
	defer publisher.Close()

	service := friends.NewService(users, invitations, logger).WithEvents(publisher)

	friendSrv := handlers.NewFriendServer(service, publisher, logger)
	userSrv := handlers.NewUserServer(users, logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", userSrv.CreateUserHandler)
	mux.HandleFunc("/user/login", userSrv.LoginHandler)

	// friend endpoints
	mux.HandleFunc("/friends/list", friendSrv.ListHandler)
	mux.HandleFunc("/friends/invite", friendSrv.InviteHandler)
	mux.HandleFunc("/friends/remove", friendSrv.RemoveHandler)
	mux.HandleFunc("/friends/invitations", friendSrv.InvitationsHandler)
	mux.HandleFunc("/friends/invitations/accept", friendSrv.AcceptHandler)
	mux.HandleFunc("/friends/invitations/deny", friendSrv.DenyHandler)
	mux.HandleFunc("/friends/propose", friendSrv.ProposeHandler)
	mux.HandleFunc("/friends/search", friendSrv.SearchHandler)
	mux.HandleFunc("/friends/notify", friendSrv.NotifyHandler)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(mux)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
