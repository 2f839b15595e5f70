package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shortlink/internal/accounting"
	"shortlink/internal/accounts"
	"shortlink/internal/api"
	"shortlink/internal/auth"
	"shortlink/internal/cache"
	"shortlink/internal/config"
	"shortlink/internal/db"
	"shortlink/internal/logging"
	"shortlink/internal/shortener"

	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "addr", cfg.ServerPort, "base_url", cfg.BaseURL)

	logger.Info("connecting to database", "driver", cfg.DatabaseDriver, "dsn", redactDBURL(cfg.DatabaseURL))
	conn, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("database connection successful and schema migrated")

	linkStore := db.NewLinkStore(conn)
	var links cache.Backend = linkStore

	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			defer rdb.Close()
			links = cache.NewLinkCache(linkStore, rdb, cfg.CacheTTL, logger)
			logger.Info("redis cache enabled", "ttl", cfg.CacheTTL)
		}
	}

	queue := accounting.NewQueue(linkStore, accounting.Options{
		Workers:  cfg.ClickWorkerCount,
		Capacity: cfg.ClickQueueSize,
		Timeout:  cfg.ClickTimeout,
	}, logger)

	generator := shortener.NewGenerator(cfg.ShortCodeLength)
	allocator := shortener.NewAllocator(generator, links, cfg.ShortCodeMaxAttempts, logger)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	router := api.SetupRouter(api.Dependencies{
		Shortener:      shortener.NewShortenService(links, allocator, cfg.BaseURL, logger),
		Resolver:       shortener.NewResolveService(links, queue),
		Links:          shortener.NewOwnershipService(links, cfg.BaseURL, logger),
		Accounts:       accounts.NewDirectory(db.NewAccountStore(conn), bcrypt.DefaultCost, logger),
		Tokens:         tokens,
		Status:         queue,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			_ = queue.Shutdown(context.Background())
			return err
		}
	case sig := <-stop:
		logger.Info("shutting down gracefully", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	if err := queue.Shutdown(ctx); err != nil {
		logger.Warn("click accounting did not drain", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// redactDBURL masks the password of a URL-style DSN so it can be logged.
// Key/value DSNs and URLs without a password are returned unchanged.
func redactDBURL(dbURL string) string {
	schemeEnd := strings.Index(dbURL, "://")
	if schemeEnd == -1 {
		return dbURL
	}
	prefix, rest := dbURL[:schemeEnd+3], dbURL[schemeEnd+3:]

	authority := rest
	if end := strings.IndexAny(rest, "/?"); end != -1 {
		authority = rest[:end]
	}
	at := strings.LastIndex(authority, "@")
	if at == -1 {
		return dbURL
	}
	colon := strings.Index(authority[:at], ":")
	if colon == -1 {
		return dbURL
	}
	return prefix + authority[:colon+1] + "********" + authority[at:] + rest[len(authority):]
}
