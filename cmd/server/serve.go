package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quizzer-backend/internal/cache"
	"quizzer-backend/internal/config"
	"quizzer-backend/internal/database"
	"quizzer-backend/internal/handlers"
	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/repository"
	"quizzer-backend/internal/router"
	"quizzer-backend/internal/services"
	"quizzer-backend/internal/websocket"
	"quizzer-backend/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, websocket hub and notification workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log.Println("🚀 Starting Quizzer Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("✗ Invalid configuration: %w", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("✗ PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("✗ Redis connection failed: %w", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	applied, err := database.RunMigrations(ctx, pool, database.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("✗ Database migration failed: %w", err)
	}
	log.Printf("✓ Database migrations applied (%d new)", applied)

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)

	jsonCache := cache.NewJSONCache(redisClients.Cache)
	revocations := cache.NewTokenRevocations(redisClients.Cache)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTTTL, revocations)

	// ──── Step 5: Initialize LLM Provider ────
	retry := llm.DefaultRetryConfig()
	retry.MaxAttempts = cfg.LLMMaxAttempts
	provider, closeProvider, err := llm.NewProvider(ctx, llm.Config{
		Provider:       cfg.LLMProvider,
		APIKey:         cfg.LLMAPIKey,
		Model:          cfg.LLMModel,
		BaseURL:        cfg.LLMBaseURL,
		Timeout:        cfg.LLMTimeout,
		ConcurrentReqs: cfg.LLMConcurrentReqs,
		Retry:          retry,
	})
	if err != nil {
		return fmt.Errorf("✗ LLM provider initialization failed: %w", err)
	}
	defer closeProvider()
	log.Printf("✓ LLM provider initialized (%s, %s)", cfg.LLMProvider, provider.ModelID())

	// ──── Initialize Services ────
	generator := services.NewQuestionGenerator(provider)
	advisor := services.NewRemediationAdvisor(provider)
	publisher := websocket.NewPublisher(redisClients.PubSub)
	queue := worker.NewQueue(redisClients.Queue)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)

	quizService := services.NewQuizService(quizRepo, submissionRepo, generator, jsonCache, publisher, cfg.QuizCacheTTL)
	submissionService := services.NewSubmissionService(quizService, submissionRepo, advisor, publisher, queue)
	hintService := services.NewHintService(quizService, provider)
	leaderboardService := services.NewLeaderboardService(submissionRepo, jsonCache, cfg.LeaderboardCacheTTL)
	authService := services.NewAuthService(userRepo, jwtAuth, revocations)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService, hintService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, leaderboardService)

	// ──── Step 6: Start Notification Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, userRepo, emailService, cfg.NotifyWorkers)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.NotifyWorkers)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(router.Deps{
		JWTAuth:           jwtAuth,
		AuthLimitCounter:  cache.NewWindowCounter(redisClients.Cache),
		AuthHandler:       authHandler,
		QuizHandler:       quizHandler,
		SubmissionHandler: submissionHandler,
		WebSocket:         wsHub.HandleWebSocket,
		FrontendURL:       cfg.FrontendURL,
	})

	// Quiz generation can hold a request for the full LLM timeout plus a retry.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		wsHub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	log.Printf("✓ Quizzer Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
