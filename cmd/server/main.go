package main

// @title           Votes Service API
// @version         1.0
// @description     Vote casting and duplicate prevention service
// @host            localhost:8084
// @BasePath        /api/v1
// @schemes         http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	_ "votes-service/docs"
	"votes-service/internal/candidate"
	"votes-service/internal/config"
	"votes-service/internal/database"
	"votes-service/internal/events"
	"votes-service/internal/routes"
	"votes-service/internal/voting"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting votes service")

	defaultElection, err := uuid.Parse(cfg.Election.DefaultElectionID)
	if err != nil {
		slog.Error("Invalid default election id", "error", err)
		os.Exit(1)
	}

	// PostgreSQL backs the voting status gate and the candidate registry.
	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Cassandra backs the append-only vote ledger.
	session, err := database.NewCassandraSession(&cfg.Cassandra)
	if err != nil {
		slog.Error("Failed to connect to Cassandra", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// The redis cache and kafka publisher are best-effort collaborators;
	// the service runs without them.
	var statusCache voting.StatusCache
	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without status cache", "error", err)
	} else {
		defer redisClient.Close()
		statusCache = voting.NewRedisStatusCache(redisClient)
	}

	publisher := events.NewVotePublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	statusRepo := voting.NewStatusRepository(db)
	ledgerRepo := voting.NewLedgerRepository(session)
	votingService := voting.NewVotingService(statusRepo, ledgerRepo, statusCache, publisher, defaultElection)
	votingHandler := voting.NewVotingHandler(votingService)

	candidateRepo := candidate.NewCandidateRepository(db)
	candidateService := candidate.NewCandidateService(candidateRepo)
	candidateHandler := candidate.NewCandidateHandler(candidateService)

	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	if cfg.Reconciler.Enabled {
		reconciler := voting.NewReconciler(statusRepo, ledgerRepo,
			cfg.Reconciler.Interval, cfg.Reconciler.Grace, cfg.Reconciler.BatchSize)
		go reconciler.Run(reconcilerCtx)
	}

	router := gin.Default()
	routes.SetupRoutes(router, votingHandler, candidateHandler, cfg.JWT.Secret)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	stopReconciler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
