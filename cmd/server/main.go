package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/nlsql/internal/api"
	customMiddleware "github.com/Rrens/nlsql/internal/api/middleware"
	"github.com/Rrens/nlsql/internal/config"
	"github.com/Rrens/nlsql/internal/logging"
	"github.com/Rrens/nlsql/internal/repository/redis"
	"github.com/Rrens/nlsql/internal/service"
	"github.com/Rrens/nlsql/internal/source"
	"github.com/Rrens/nlsql/internal/source/mongo"
	"github.com/Rrens/nlsql/internal/source/mysql"
	"github.com/Rrens/nlsql/internal/source/postgres"
	"github.com/Rrens/nlsql/internal/source/sqlite"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logCloser, err := logging.Setup(cfg.Logging, os.Getenv("ENV") == "production")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Server exited")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	opts, err := cfg.Export.Options()
	if err != nil {
		return err
	}

	adapter, err := newSourceRouter().Open(ctx, cfg.Database.Driver, connectionConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Database.Driver, err)
	}
	defer adapter.Close()

	executor := source.NewExecutor(adapter, cfg.Security.QueryTimeout, cfg.Export.MaxRows)
	exportService := service.NewExportService(executor, opts, cfg.Export.FlushInterval)

	var limiter customMiddleware.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, exportService, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info().
		Str("addr", server.Addr).
		Str("database", cfg.Database.Driver).
		Bool("auth", cfg.Auth.Enabled).
		Bool("rate_limit", limiter != nil).
		Msg("Starting CSV export server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newSourceRouter() *source.Router {
	r := source.NewRouter()
	r.RegisterAdapter("sqlite", sqlite.NewAdapter)
	r.RegisterAdapter("postgres", postgres.NewAdapter)
	r.RegisterAdapter("mysql", mysql.NewAdapter)
	r.RegisterAdapter("mongodb", mongo.NewAdapter)
	return r
}

func connectionConfig(cfg *config.Config) source.ConnectionConfig {
	db := cfg.Database
	return source.ConnectionConfig{
		Host:     db.Host,
		Port:     db.Port,
		Database: db.Database,
		Username: db.User,
		Password: db.Password,
		SSLMode:  db.SSLMode,
		Path:     db.Path,
		Schema:   db.Schema,
		ReadOnly: db.ReadOnly,
		MaxConns: db.MaxConns,
		Timeout:  cfg.Security.QueryTimeout,
	}
}
