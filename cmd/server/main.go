package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/database"
	"github.com/clawearning/backend/internal/handlers"
	"github.com/clawearning/backend/internal/jobs"
	"github.com/clawearning/backend/internal/logging"
	"github.com/clawearning/backend/internal/middleware"
	"github.com/clawearning/backend/internal/queue"
	"github.com/clawearning/backend/internal/routes"
	"github.com/clawearning/backend/internal/services/accounts"
	"github.com/clawearning/backend/internal/services/actions"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/progression"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/clawearning/backend/internal/services/withdrawal"
	"github.com/gin-gonic/gin"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.New(cfg.Environment, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	calendar, err := ledger.LoadCalendar(clock, cfg.Ledger.Timezone)
	if err != nil {
		log.WithError(err).Fatal("Failed to load ledger calendar")
	}

	store, db, err := openStore(cfg, clock, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize ledger store")
	}
	if db != nil {
		defer database.Close(db)
	}

	jobQueue, locker, closeRedis, err := openRedis(ctx, cfg, clock, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer closeRedis()

	// Services
	publisher := notify.NewQueuePublisher(jobQueue)
	engine := rewards.NewEngine(store, calendar, progression.NewEvaluator(nil), cfg.Economy, publisher, log)
	accountManager := accounts.NewManager(store, engine, publisher, cfg.BotUsername, log)
	authorizer := withdrawal.NewAuthorizer(engine, publisher, log)
	dispatcher := actions.NewDispatcher(accountManager, engine, authorizer, log)

	// Background work
	workers := jobs.RegisterWorkers(ctx, jobQueue, jobs.NewNotificationJob(newNotifier(cfg, log), log), cfg.Notify.Workers, log)

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.SweepEnabled {
		sweep := jobs.NewDailyResetJob(store, calendar, publisher, locker, log)
		scheduler, err = jobs.ScheduleRecurringJobs(ctx, calendar.Location(), cfg.Scheduler.DailySweepAt, sweep, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to schedule recurring jobs")
		}
	}

	// HTTP
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer rateLimiter.Stop()

	router := routes.NewRouter(cfg, routes.Handlers{
		Ledger:  handlers.NewLedgerHandler(store, engine),
		Account: handlers.NewAccountHandler(accountManager, authorizer),
		Action:  handlers.NewActionHandler(dispatcher),
		Health:  handlers.NewHealthHandler(store),
	}, rateLimiter, log)

	srv := startServer(router, cfg.Server, log)

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	for _, w := range workers {
		w.Stop()
	}

	log.Info("Server exiting")
}

// openStore picks the ledger backend. The memory store is for local runs only.
func openStore(cfg *config.Config, clock clockwork.Clock, log logrus.FieldLogger) (ledger.Store, *gorm.DB, error) {
	if cfg.Database.Driver == "memory" {
		if cfg.IsProduction() {
			return nil, nil, errors.New("memory store is not allowed in production")
		}
		log.Warn("Using in-memory ledger store; balances are lost on restart")
		return ledger.NewMemoryStore(clock), nil, nil
	}

	db, err := database.InitDB(cfg.Database, cfg.IsProduction(), log)
	if err != nil {
		return nil, nil, err
	}
	return ledger.NewGormStore(db), db, nil
}

// openRedis returns the notification queue and the sweep locker. Without
// REDIS_URL both fall back to process-local implementations.
func openRedis(ctx context.Context, cfg *config.Config, clock clockwork.Clock, log logrus.FieldLogger) (queue.Queue, jobs.Locker, func(), error) {
	if cfg.Redis.URL == "" {
		log.Warn("REDIS_URL not set; using in-process queue and locks")
		return queue.NewMemoryQueue(clock), jobs.NewLocalLocker(clock), func() {}, nil
	}

	queueOpts, err := redisv8.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	lockOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.Redis.Password != "" {
		queueOpts.Password = cfg.Redis.Password
		lockOpts.Password = cfg.Redis.Password
	}
	queueOpts.DB = cfg.Redis.DB
	lockOpts.DB = cfg.Redis.DB

	queueClient := redisv8.NewClient(queueOpts)
	if err := queueClient.Ping(ctx).Err(); err != nil {
		queueClient.Close()
		return nil, nil, nil, err
	}
	lockClient := redis.NewClient(lockOpts)

	closeAll := func() {
		queueClient.Close()
		lockClient.Close()
	}
	return queue.NewRedisQueue(queueClient), jobs.NewRedisLocker(lockClient), closeAll, nil
}

func newNotifier(cfg *config.Config, log logrus.FieldLogger) notify.Notifier {
	if cfg.Notify.WebhookURL == "" {
		return notify.NewLogNotifier(log)
	}
	return notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret, cfg.Notify.Timeout)
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, cfg config.ServerConfig, log logrus.FieldLogger) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Infof("Server started on port %s", cfg.Port)
	return srv
}
