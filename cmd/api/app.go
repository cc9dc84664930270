package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lpotracker/internal/auth"
	"lpotracker/internal/config"
	"lpotracker/internal/database"
	"lpotracker/internal/events"
	"lpotracker/internal/metrics"
	"lpotracker/internal/repository/memory"
	"lpotracker/internal/seed"
	"lpotracker/internal/server"
	"lpotracker/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func loadConfig(flags globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.storage != "" {
		cfg.Storage = flags.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStorage returns the repositories for the configured backend. db is
// nil for the memory backend.
func openStorage(cfg *config.Config, logger *slog.Logger) (server.Repositories, *gorm.DB, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return server.MemoryRepositories(memory.NewStore()), nil, nil
	}

	db, err := database.NewConnection(cfg.Database.DSN(), logger)
	if err != nil {
		return server.Repositories{}, nil, fmt.Errorf("database connection failed: %w", err)
	}
	logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Name)
	return server.PostgresRepositories(db), db, nil
}

func serve(ctx context.Context, flags globalFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		logger.Warn("JWT_SECRET is not set; using the development secret")
	}

	repos, db, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	var healthCheck func(context.Context) error
	if db == nil {
		// an empty memory store has no accounts to log in with
		catalog, err := seed.Load("")
		if err != nil {
			return err
		}
		seeder := &seed.Seeder{Users: repos.Users, Products: repos.Products, Suppliers: repos.Suppliers, Logger: logger}
		if _, err := seeder.Run(ctx, catalog); err != nil {
			return fmt.Errorf("seed memory store: %w", err)
		}
	} else {
		if err := database.Migrate(db); err != nil {
			return err
		}
		healthCheck = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger, cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	publishers := []events.Publisher{hub}
	if cfg.NATS.URL != "" {
		nats, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer nats.Close()
		publishers = append(publishers, nats)
		logger.Info("publishing change events to NATS", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	gin.SetMode(cfg.Server.Mode)
	router := server.NewRouter(server.Options{
		Repos:          repos,
		Tokens:         auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		Publisher:      events.Multi(publishers...),
		Hub:            hub,
		Metrics:        metrics.New(),
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HealthCheck:    healthCheck,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(_ context.Context, flags globalFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("migrate needs postgres storage, got %q", cfg.Storage)
	}
	_, db, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("schema is up to date")
	return nil
}

func seedDatabase(ctx context.Context, flags globalFlags, file string) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("seed needs postgres storage, got %q", cfg.Storage)
	}

	catalog, err := seed.Load(file)
	if err != nil {
		return err
	}
	repos, db, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	seeder := &seed.Seeder{Users: repos.Users, Products: repos.Products, Suppliers: repos.Suppliers, Logger: logger}
	res, err := seeder.Run(ctx, catalog)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d users, %d products, %d suppliers\n", res.Users, res.Products, res.Suppliers)
	return nil
}
