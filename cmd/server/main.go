package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rosterbase/chat/internal/config"
	"github.com/rosterbase/chat/internal/database"
	"github.com/rosterbase/chat/internal/notify"
	"github.com/rosterbase/chat/internal/repository"
	memoryrepo "github.com/rosterbase/chat/internal/repository/memory"
	postgresrepo "github.com/rosterbase/chat/internal/repository/postgres"
	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/handlers"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		threadRepo   repository.ThreadRepository
		messageRepo  repository.MessageRepository
		reactionRepo repository.ReactionRepository
		accessRepo   repository.AccessRepository
		userRepo     repository.UserRepository
	)

	switch cfg.DBDriver {
	case "memory":
		// In-process store for local development. The module gate still
		// applies; admin tokens bypass it.
		store := memoryrepo.NewStore()
		store.EnableModule(service.ModuleKeyChat)
		threadRepo = store.Threads()
		messageRepo = store.Messages()
		reactionRepo = store.Reactions()
		accessRepo = store.Access()
		userRepo = store.Users()
		log.Println("Using in-memory store")
	default:
		pool, err := database.Connect(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatal(err)
		}
		threadRepo = postgresrepo.NewThreadRepo(pool)
		messageRepo = postgresrepo.NewMessageRepo(pool)
		reactionRepo = postgresrepo.NewReactionRepo(pool)
		accessRepo = postgresrepo.NewAccessRepo(pool)
		userRepo = postgresrepo.NewUserRepo(pool)
		log.Println("Connected to database")
	}

	// Long-poll wakeups
	broker := notify.NewBroker()

	// Services
	accessService := service.NewAccessService(accessRepo)
	threadService := service.NewThreadService(threadRepo, messageRepo, reactionRepo, userRepo)
	messageService := service.NewMessageService(threadRepo, messageRepo)
	messageService.SetBroker(broker)
	reactionService := service.NewReactionService(threadRepo, messageRepo, reactionRepo)
	pollService := service.NewPollService(threadRepo, messageRepo, reactionRepo, userRepo, broker, cfg.PollInterval, cfg.PollDeadline)

	// Handlers
	threadHandler := handlers.NewThreadHandler(threadService)
	messageHandler := handlers.NewMessageHandler(messageService)
	reactionHandler := handlers.NewReactionHandler(reactionService)
	pollHandler := handlers.NewPollHandler(pollService)

	// Per-route middleware: authenticate, throttle, then gate on the
	// chat module entitlement.
	auth := middleware.Auth(cfg.JWTSecret)
	limit := middleware.RateLimit(cfg.RateRPS, cfg.RateBurst)
	gate := middleware.Module(accessService, service.ModuleKeyChat)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(limit(gate(h)))
	}

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Protected - Threads
	mux.Handle("GET /api/v1/threads", protected(threadHandler.List))
	mux.Handle("POST /api/v1/threads", protected(threadHandler.Create))
	mux.Handle("GET /api/v1/threads/{id}", protected(threadHandler.Get))
	mux.Handle("DELETE /api/v1/threads/{id}", protected(threadHandler.Delete))

	// Protected - Membership
	mux.Handle("POST /api/v1/threads/{id}/members", protected(threadHandler.AddMembers))
	mux.Handle("DELETE /api/v1/threads/{id}/members/{uid}", protected(threadHandler.RemoveMember))
	mux.Handle("POST /api/v1/threads/{id}/subscribe", protected(threadHandler.Subscribe))
	mux.Handle("POST /api/v1/threads/{id}/unsubscribe", protected(threadHandler.Unsubscribe))

	// Protected - Messages
	mux.Handle("POST /api/v1/threads/{id}/messages", protected(messageHandler.Send))
	mux.Handle("GET /api/v1/threads/{id}/poll", protected(pollHandler.Poll))
	mux.Handle("PATCH /api/v1/messages/{id}", protected(messageHandler.Edit))
	mux.Handle("DELETE /api/v1/messages/{id}", protected(messageHandler.Delete))
	mux.Handle("POST /api/v1/messages/{id}/react", protected(reactionHandler.React))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: middleware.CORS(middleware.RequestID(middleware.Metrics(mux))),
		// Long polls hold the connection up to the poll deadline.
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.PollDeadline + 10*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
