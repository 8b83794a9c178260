package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/kimanzi/sacco-ledger/internal/config"
	"github.com/kimanzi/sacco-ledger/internal/repository"
	"github.com/kimanzi/sacco-ledger/internal/service"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	logger.Info("Starting ledger scheduler...")

	database, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ledgerService := service.NewLedgerService(
		database,
		repository.NewMemberRepository(),
		repository.NewDepositRepository(),
		repository.NewLoanRepository(),
		repository.NewPaymentRepository(),
		repository.NewStatsRepository(),
		nil, // the scheduler does not serve the dashboard, no cache needed
		logger,
		cfg,
	)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Schedule tasks
	setupCronJobs(c, cfg, ledgerService, logger)

	// Start the scheduler
	c.Start()
	logger.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	logger.Info("Scheduler stopped")
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

func setupCronJobs(c *cron.Cron, cfg *config.Config, svc *service.LedgerService, logger *logrus.Logger) {
	// Daily sweep advancing interest and late fees on active loans
	_, err := c.AddFunc(cfg.Scheduler.AccrualSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		logger.Info("Running accrual sweep...")
		if _, err := svc.AccrueLoans(ctx, time.Now().UTC()); err != nil {
			logger.WithError(err).Error("Accrual sweep failed")
		}
	})
	if err != nil {
		logger.Fatalf("Error scheduling accrual sweep: %v", err)
	}

	// Daily report of loans with an installment due soon. Delivery of the
	// reminders is owned by the notification system, this job only reports.
	_, err = c.AddFunc(cfg.Scheduler.DueSoonSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		loans, err := svc.DueSoonLoans(ctx, cfg.Scheduler.DueSoonDays)
		if err != nil {
			logger.WithError(err).Error("Due-soon report failed")
			return
		}

		if len(loans) == 0 {
			logger.Infof("No loans due within the next %d days", cfg.Scheduler.DueSoonDays)
			return
		}

		for _, l := range loans {
			logger.WithFields(logrus.Fields{
				"loan_id":    l.ID,
				"member_id":  l.MemberID,
				"amount_due": l.MonthlyPayment.Add(l.AccumulatedLateFees),
				"due_date":   l.NextDueDate.Format("2006-01-02"),
			}).Warn("loan installment due soon")
		}
	})
	if err != nil {
		logger.Fatalf("Error scheduling due-soon report: %v", err)
	}

	logger.Info("Cron jobs scheduled successfully")
}
