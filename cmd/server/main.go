package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kimanzi/sacco-ledger/internal/config"
	"github.com/kimanzi/sacco-ledger/internal/db"
	"github.com/kimanzi/sacco-ledger/internal/handler"
	"github.com/kimanzi/sacco-ledger/internal/repository"
	"github.com/kimanzi/sacco-ledger/internal/service"
	"github.com/kimanzi/sacco-ledger/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	// Apply schema migrations
	if err := db.Migrate(cfg.Database.URL); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize database
	database, err := initDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	memberRepo := repository.NewMemberRepository()
	depositRepo := repository.NewDepositRepository()
	loanRepo := repository.NewLoanRepository()
	paymentRepo := repository.NewPaymentRepository()
	statsRepo := repository.NewStatsRepository()

	// Initialize service and handlers
	ledgerService := service.NewLedgerService(
		database, memberRepo, depositRepo, loanRepo, paymentRepo, statsRepo,
		redisClient, logger, cfg,
	)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, logger)
	healthHandler := handler.NewHealthHandler(database, redisClient)

	// Setup routes
	router := setupRoutes(ledgerHandler, healthHandler, logger)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	database.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	database.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return database, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/members", ledgerHandler.RegisterMember).Methods("POST")
	api.HandleFunc("/members/{memberId}", ledgerHandler.GetMember).Methods("GET")
	api.HandleFunc("/members/{memberId}/deposits", ledgerHandler.RecordDeposit).Methods("POST")
	api.HandleFunc("/members/{memberId}/deposits", ledgerHandler.ListDeposits).Methods("GET")
	api.HandleFunc("/members/{memberId}/savings", ledgerHandler.GetSavings).Methods("GET")
	api.HandleFunc("/members/{memberId}/loans", ledgerHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/members/{memberId}/loans/eligibility", ledgerHandler.CheckEligibility).Methods("POST")
	api.HandleFunc("/loans/{loanId}", ledgerHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}", ledgerHandler.DeleteLoan).Methods("DELETE")
	api.HandleFunc("/loans/{loanId}/preview", ledgerHandler.PreviewPayment).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", ledgerHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", ledgerHandler.ListPayments).Methods("GET")
	api.HandleFunc("/payments/{paymentId}", ledgerHandler.DeletePayment).Methods("DELETE")
	api.HandleFunc("/deposits/{depositId}", ledgerHandler.DeleteDeposit).Methods("DELETE")
	api.HandleFunc("/dashboard/stats", ledgerHandler.GetDashboardStats).Methods("GET")

	return router
}
