package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/config"
	"github.com/stagebook/stagebook/internal/metrics"
	"github.com/stagebook/stagebook/internal/payment"
	"github.com/stagebook/stagebook/internal/postgres"
	"github.com/stagebook/stagebook/internal/redis"
	postgresrepo "github.com/stagebook/stagebook/internal/repository/postgres"
	redisrepo "github.com/stagebook/stagebook/internal/repository/redis"
	"github.com/stagebook/stagebook/internal/service"
	"github.com/stagebook/stagebook/internal/service/booking"
	"github.com/stagebook/stagebook/internal/service/slots"
	httpgin "github.com/stagebook/stagebook/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewBookingsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "order", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	draftStore := redisrepo.NewDraftStore(rdb, 7*24*time.Hour)

	// Initialize the payment provider client
	pay := payment.NewClient(
		cfg.Payment.BaseURL,
		cfg.Payment.KeyID,
		cfg.Payment.KeySecret,
		cfg.Payment.Timeout,
	)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, draftStore, pay, clock.NewRealClock(), service.Config{
		Slots:   slots.Config{AvailabilityTTL: cfg.Booking.AvailabilityTTL},
		Booking: booking.Config{AdvanceCents: cfg.Booking.AdvanceCents},
	})

	// Initialize Gin router
	m := metrics.New("stagebook")
	router := httpgin.NewRouter(services, idempotencyStore, m, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
