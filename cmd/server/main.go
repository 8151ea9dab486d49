package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/safebank/bank-api/internal/command"
	"github.com/safebank/bank-api/internal/config"
	"github.com/safebank/bank-api/internal/handler"
	"github.com/safebank/bank-api/internal/query"
	"github.com/safebank/bank-api/internal/repository"
	"github.com/safebank/bank-api/internal/scheduler"
	"github.com/safebank/bank-api/shared/events"
	"github.com/safebank/bank-api/shared/middleware"
	redisClient "github.com/safebank/bank-api/shared/redis"
)

// streamMaxLen caps every event stream (approximate trimming).
const streamMaxLen = 10000

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, db, cfg.RateTableID); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}

	gormDB, err := repository.OpenGorm(db)
	if err != nil {
		log.Fatalf("Failed to open reference store: %v", err)
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	sessions, err := middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, cfg.CookieSecure)
	if err != nil {
		log.Fatalf("Failed to configure sessions: %v", err)
	}

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client, streamMaxLen)

	accountWriteRepo := repository.NewAccountWriteRepository(db, cfg.RateTableID)
	accountReadRepo := repository.NewAccountReadRepository(db, redis.Client, cfg.ViewCacheTTL)
	customerWriteRepo := repository.NewCustomerWriteRepository(db)
	customerReadRepo := repository.NewCustomerReadRepository(db, redis.Client, cfg.ViewCacheTTL)
	rateRepo := repository.NewGormRateRepo(gormDB)
	universityRepo := repository.NewGormUniversityRepo(gormDB)
	insurerRepo := repository.NewGormInsuranceCompanyRepo(gormDB)

	accountCmd := command.NewAccountCommandService(accountWriteRepo, accountReadRepo, publisher, cfg.TxTimeout)
	customerCmd := command.NewCustomerCommandService(customerWriteRepo, customerReadRepo, publisher)
	referenceCmd := command.NewReferenceCommandService(rateRepo, universityRepo, insurerRepo, publisher, cfg.RateTableID)

	router := handler.NewRouter(handler.Handlers{
		Auth:      handler.NewAuthHandler(customerCmd, query.NewAuthQueryService(customerReadRepo, sessions), sessions),
		Customers: handler.NewCustomerHandler(customerCmd, query.NewCustomerQueryService(customerReadRepo)),
		Accounts:  handler.NewAccountHandler(accountCmd, query.NewAccountQueryService(accountReadRepo)),
		Reference: handler.NewReferenceHandler(referenceCmd, query.NewReferenceQueryService(rateRepo, universityRepo, insurerRepo, cfg.RateTableID)),
	}, sessions.AuthMiddleware())

	// Customer views track which account types are open.
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "customer-view-group",
			Consumer: "customer-view-consumer-1",
			Stream:   events.AccountEventsStream,
			Handler:  customerCmd.HandleAccountEvent,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	audits := scheduler.NewScheduler(repository.NewAccountIntegrityRepository(db), cfg.IntegrityAuditSchedule)
	if err := audits.Start(); err != nil {
		log.Fatalf("Failed to schedule integrity audit: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("SAFE bank API starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down...")

	cancel()
	<-audits.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
