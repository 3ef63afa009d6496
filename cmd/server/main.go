package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/lodging-booking/internal/config"
	"github.com/iliyamo/lodging-booking/internal/database"
	"github.com/iliyamo/lodging-booking/internal/logging"
	"github.com/iliyamo/lodging-booking/internal/maptoken"
	"github.com/iliyamo/lodging-booking/internal/notify"
	"github.com/iliyamo/lodging-booking/internal/payment"
	"github.com/iliyamo/lodging-booking/internal/queue"
	"github.com/iliyamo/lodging-booking/internal/repository"
	"github.com/iliyamo/lodging-booking/internal/repository/memory"
	"github.com/iliyamo/lodging-booking/internal/router"
	"github.com/iliyamo/lodging-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logging.Error("storage unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Redis is optional: nil disables rate limiting and caching.
	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logging.Warn("redis unavailable, rate limiting and response cache disabled", "addr", cfg.Redis.Address())
	} else {
		defer func() { _ = rdb.Close() }()
	}

	mailer := notify.NewMailer(cfg.SMTP)

	var events service.EventPublisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL)
		defer func() { _ = pub.Close() }()
		events = pub
	}
	if cfg.EventsConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, notify.BookingEventHandler(store.Users(), mailer))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("booking event consumer stopped", "error", err)
			}
		}()
	}

	var maps *maptoken.Cache
	if cfg.Mappls.ClientID != "" {
		maps = maptoken.NewCache(maptoken.NewOAuthFetcher(cfg.Mappls), cfg.Mappls.ClientID)
	}

	e := router.New(router.Deps{
		Cfg:      cfg,
		Store:    store,
		Redis:    rdb,
		Ledger:   service.NewLedger(store, events),
		Listings: service.NewListings(store),
		Reviews:  service.NewReviews(store),
		Gateway:  payment.NewClient(cfg.Razorpay, &http.Client{Timeout: 10 * time.Second}),
		Maps:     maps,
		Mailer:   mailer,
	})

	addr := ":" + cfg.Port
	go func() {
		logging.Info("listening", "addr", addr, "env", cfg.Env, "storage", cfg.Storage)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error("server forced to shutdown", "error", err)
	}
	logging.Info("server stopped")
}

// openStore returns the configured DataStore and a func that releases it.
func openStore(ctx context.Context, cfg config.Config) (repository.DataStore, func(), error) {
	if cfg.Storage == "memory" {
		logging.Warn("using in-memory storage, data is lost on restart")
		return memory.NewDataStore(), func() {}, nil
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := database.MigrateUp(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logging.Info("migrations applied")
	}
	return repository.NewSQLDataStore(db), func() { _ = db.Close() }, nil
}
