package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slackpulse-backend/internal/activity"
	"slackpulse-backend/internal/cache"
	"slackpulse-backend/internal/config"
	"slackpulse-backend/internal/database"
	"slackpulse-backend/internal/handlers"
	"slackpulse-backend/internal/middleware"
	"slackpulse-backend/internal/repository"
	"slackpulse-backend/internal/router"
	"slackpulse-backend/internal/services"
	"slackpulse-backend/internal/websocket"
	"slackpulse-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting SlackPulse Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	workspaceRepo := repository.NewWorkspaceRepo(pool)
	statusRepo := repository.NewUserStatusRepo(pool)
	logRepo := repository.NewPresenceLogRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)

	// ──── Initialize Services ────
	loc := cfg.Location()
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	slackService := services.NewSlackService()
	meetService := services.NewMeetService(
		cfg.GoogleOAuthClientID,
		cfg.GoogleOAuthClientSecret,
		cfg.GoogleRedirectURL,
		cfg.GoogleRefreshToken,
	)
	if meetService.Configured() {
		log.Println("✓ Google Meet service configured")
	} else {
		log.Println("  Google Meet service not configured, /meeting will post fallback messages")
	}

	activityCache := cache.NewRedis(redisClients.Cache)
	activityService := activity.NewService(
		logRepo,
		activityCache,
		loc,
		time.Duration(cfg.CacheTTLHours)*time.Hour,
	)

	// ──── Step 5: Start Presence Poller ────
	poller := services.NewPresencePoller(
		workspaceRepo,
		statusRepo,
		logRepo,
		sessionRepo,
		slackService,
		redisClients.PubSub,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
	)
	poller.Start()

	// ──── Step 6: Start Meeting Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		slackService,
		meetService,
		workspaceRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Meeting worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(jwtAuth, cfg.AdminEmail, cfg.AdminPasswordHash)
	workspaceHandler := handlers.NewWorkspaceHandler(
		workspaceRepo,
		statusRepo,
		activityService,
		slackService,
		cfg.SlackClientID,
		cfg.SlackClientSecret,
		cfg.FrontendURL,
		loc,
	)
	activityHandler := handlers.NewActivityHandler(activityService, sessionRepo, loc)
	webhookHandler := handlers.NewWebhookHandler(cfg.SlackSigningSecret, worker.NewQueue(redisClients.Queue))
	googleHandler := handlers.NewGoogleOAuthHandler(meetService)
	pollerHandler := handlers.NewPollerHandler(poller)

	loginThrottle := middleware.NewThrottle(cfg.LoginRatePerMinute, time.Minute)
	webhookThrottle := middleware.NewThrottle(cfg.WebhookRatePerMinute, time.Minute)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		workspaceHandler,
		activityHandler,
		webhookHandler,
		googleHandler,
		pollerHandler,
		wsHub,
		loginThrottle,
		webhookThrottle,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		poller.Stop()
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ SlackPulse Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
