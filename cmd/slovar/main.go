package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/slovar/slovar/migrations"
	"github.com/slovar/slovar/pkg/api"
	"github.com/slovar/slovar/pkg/audit"
	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/config"
	"github.com/slovar/slovar/pkg/migrate"
	"github.com/slovar/slovar/pkg/observability"
	"github.com/slovar/slovar/pkg/rbac"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.WithError(err).Fatal("failed to reach database")
	}

	if err := checkMigrations(ctx, db, logger); err != nil {
		logger.WithError(err).Fatal("database schema is not up to date; run slovar-migrate up")
	}

	cache, redisClient, err := buildPermissionCache(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up permission cache")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	resolver := rbac.NewResolver(rbac.NewStore(db), cache, logger.WithField("component", "rbac"))
	users := auth.NewUserStore(db)
	tokens := auth.NewTokenManager([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)

	trail := audit.NewLogger(db, logger)
	server := api.NewServer(users, tokens, resolver, trail, logger)
	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		observability.CollectDBStats(db, cfg.Database.ConnTimeout, groupCtx.Done())
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
	logger.Info("shutdown complete")
}

// checkMigrations refuses startup while migrations are pending, instead of
// applying them implicitly.
func checkMigrations(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	local, err := migrations.Load(logger)
	if err != nil {
		return err
	}

	engine := migrate.NewEngine(db, local, logger)
	if err := engine.Initialize(ctx); err != nil {
		return err
	}
	status, err := engine.Status(ctx)
	if err != nil {
		return err
	}
	for _, migration := range status {
		if migration.Status == migrate.StatusPending {
			return &pendingMigrationError{identifier: migration.Identifier}
		}
	}
	return nil
}

type pendingMigrationError struct {
	identifier migrate.Identifier
}

func (e *pendingMigrationError) Error() string {
	return "migration " + e.identifier.String() + " has not been applied"
}

func buildPermissionCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (rbac.PermissionCache, *redis.Client, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return rbac.NewRedisPermissionCache(client, cfg.Cache.TTL, logger.WithField("component", "permission-cache")), client, nil
	default:
		return rbac.NewLRUPermissionCache(cfg.Cache.Size, cfg.Cache.TTL), nil, nil
	}
}
