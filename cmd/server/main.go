package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"laundry_manager/internal/config"
	"laundry_manager/internal/database"
	"laundry_manager/internal/handlers"
	"laundry_manager/internal/logger"
	"laundry_manager/internal/middleware"
	"laundry_manager/internal/migrations"
	"laundry_manager/internal/redis"
	"laundry_manager/internal/repository"
	"laundry_manager/internal/scheduler"
	"laundry_manager/internal/services"
	"laundry_manager/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := services.ParseRecurrenceMode(cfg.RecurrenceMode)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return err
	}
	seed := migrations.Seed{OwnerEmail: cfg.OwnerEmail, OwnerPassword: cfg.OwnerPassword}
	if err := migrations.RunMigrations(ctx, db, seed, zl); err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	frequencyRepo := repository.NewFrequencyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	counter, closeCounter, err := orderCounter(ctx, cfg, counterRepo, zl)
	if err != nil {
		return err
	}
	defer closeCounter()

	var sender services.MessageSender
	if wa := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath); wa.Configured() {
		sender = wa
	}

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, sender, zl.Named("notify"))
	deps := services.Deps{
		Orders:      orderRepo,
		Users:       userRepo,
		Frequencies: frequencyRepo,
		Pricing:     pricingRepo,
		Numbers:     services.NewOrderNumberGenerator(counter),
		Notifier:    notificationService,
		Lock:        services.NewLockPolicy(loc, cfg.LockMargin()),
		Mode:        mode,
		Location:    loc,
		Logger:      zl.Named("orders"),
	}
	recurrence := services.NewRecurrenceEngine(deps)
	orderService := services.NewOrderService(deps, recurrence)
	userService := services.NewUserService(userRepo, orderRepo, zl.Named("users"))
	frequencyService := services.NewFrequencyService(frequencyRepo)
	jobs := services.NewJobs(orderService, recurrence, zl.Named("jobs"))

	sched := scheduler.New(loc, zl.Named("scheduler"))
	if err := sched.Register(scheduler.Job{Name: "lock_orders", Schedule: cfg.LockSweepSchedule, Run: jobs.LockOrdersJob}); err != nil {
		return err
	}
	if mode == services.ModeTemplateInstances {
		if err := sched.Register(scheduler.Job{Name: "generate_recurring_orders", Schedule: cfg.GenerationSchedule, Run: jobs.GenerateRecurringOrdersJob}); err != nil {
			return err
		}
	}

	// Setup routes
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zl.Named("http")))
	auth := middleware.NewAuth(cfg.JWTSecret)
	handlers.Router{
		Auth:        handlers.NewAuthHandler(userService, auth, zl),
		Orders:      handlers.NewOrderHandler(orderService, zl),
		Frequencies: handlers.NewFrequencyHandler(frequencyService, zl),
		Users:       handlers.NewUserHandler(userService, notificationService, zl),
	}.Setup(router, auth)

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("recurrence_mode", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		zl.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// orderCounter picks the order-number counter backend. The Redis counter is
// raised to the database value first so numbers never repeat.
func orderCounter(ctx context.Context, cfg *config.Config, dbCounter repository.CounterRepository, zl *zap.Logger) (services.Counter, func(), error) {
	if cfg.CounterBackend != "redis" {
		zl.Info("using database order counter")
		return dbCounter, func() {}, nil
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	current, err := dbCounter.Current(ctx, services.OrderNumberKey)
	if err != nil {
		redisClient.Close()
		return nil, nil, err
	}
	if err := redisClient.Seed(ctx, services.OrderNumberKey, current); err != nil {
		redisClient.Close()
		return nil, nil, err
	}
	zl.Info("using redis order counter", zap.Int64("seeded_from", current))
	return redisClient, func() { redisClient.Close() }, nil
}
