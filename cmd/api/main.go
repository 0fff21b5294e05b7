package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"github.com/primedraws/primedraws-backend/api/routes"
	"github.com/primedraws/primedraws-backend/internal/config"
	"github.com/primedraws/primedraws-backend/internal/handlers"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	mongorepo "github.com/primedraws/primedraws-backend/internal/repositories/mongodb"
	"github.com/primedraws/primedraws-backend/internal/services"
	"github.com/primedraws/primedraws-backend/pkg/cache"
	"github.com/primedraws/primedraws-backend/pkg/mongodb"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	ticketRepoImpl := mongorepo.NewTicketRepository(db)
	fulfillmentRepoImpl := mongorepo.NewFulfillmentRepository(db)
	userRepoImpl := mongorepo.NewUserRepository(db)

	for _, ensure := range []func(context.Context) error{
		ticketRepoImpl.EnsureIndexes,
		fulfillmentRepoImpl.EnsureIndexes,
		userRepoImpl.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	var competitionRepo repositories.CompetitionRepository = mongorepo.NewCompetitionRepository(db)
	var prizeRepo repositories.PrizeRepository = mongorepo.NewPrizeRepository(db)
	var ticketRepo repositories.TicketRepository = ticketRepoImpl
	var orderRepo repositories.OrderRepository = mongorepo.NewOrderRepository(db)
	var fulfillmentRepo repositories.FulfillmentRepository = fulfillmentRepoImpl
	var userRepo repositories.UserRepository = userRepoImpl
	var walletTxRepo repositories.WalletTransactionRepository = mongorepo.NewWalletTransactionRepository(db)

	// Stats cache. A dead Redis only costs the caching, not the feature.
	var statsCache services.StatsCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewService(redisClient)
	if err := cacheService.Ping(ctx); err != nil {
		slog.Warn("Redis unavailable, pool stats caching disabled", "error", err)
	} else {
		statsCache = cacheService
	}

	// Services
	poolService := services.NewPoolService(competitionRepo, prizeRepo, ticketRepo, cfg.Pool.TicketCodeLength)
	allocationService := services.NewAllocationService(
		competitionRepo, ticketRepo, orderRepo, prizeRepo, fulfillmentRepo,
		cfg.Pool.ClaimMaxAttempts,
		time.Duration(cfg.Pool.ClaimBackoffMs)*time.Millisecond,
		time.Duration(cfg.Pool.ClaimWindowDays)*24*time.Hour,
	)
	statsService := services.NewStatsService(
		competitionRepo, ticketRepo, prizeRepo,
		statsCache, time.Duration(cfg.Pool.StatsCacheSeconds)*time.Second,
	)
	fulfillmentService := services.NewFulfillmentService(fulfillmentRepo, userRepo, walletTxRepo)
	authService := services.NewAuthService(userRepo, cfg)

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:        handlers.NewAuthHandler(authService),
		PoolHandler:        handlers.NewPoolHandler(poolService, statsService),
		AllocationHandler:  handlers.NewAllocationHandler(allocationService),
		FulfillmentHandler: handlers.NewFulfillmentHandler(fulfillmentService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	slog.Info("Server exited")
}

// setupLogger installs a JSON slog handler at the configured level
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
