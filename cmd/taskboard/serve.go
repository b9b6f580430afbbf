package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/api"
	"taskboard/board"
	"taskboard/config"
	"taskboard/outbox"
	"taskboard/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newAuth(c *config.Config) (*api.Auth, error) {
	if c.Auth0TestMode {
		return api.NewTestAuth([]byte(c.TestJWTSecret)), nil
	}
	return api.NewAuthFromDomain(c.Auth0Domain, c.Auth0Audience)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	logger := log.StandardLogger()

	store, err := storage.New(cfg.StorageConnectionString, cfg.TasksTable, cfg.ChangesQueue)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	redisOpts, err := parseRedisOptions(cfg.RedisConnectionString)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	rc := redis.NewClient(redisOpts)
	defer rc.Close()
	cache := storage.NewCache(store, rc, cfg.CacheTTL)

	auth, err := newAuth(cfg)
	if err != nil {
		return err
	}

	box := outbox.New(outbox.Config{
		Workers:        cfg.OutboxWorkers,
		Buffer:         cfg.OutboxBuffer,
		Timeout:        cfg.OutboxTimeout,
		HandoffTimeout: cfg.OutboxHandoffTimeout,
	}, cache, logger)

	sessions := api.NewSessions(func(userID string) *board.Board {
		return board.New(board.Options{
			UserID:      userID,
			Preferences: storage.NewRedisPreferences(rc, userID),
			Loader:      cache,
			Sink:        box,
			Logger:      logger,
		})
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := cache.SubscribeChanges(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to board changes: %w", err)
	}
	go sessions.Follow(ctx, changes)
	go sessions.Sweep(ctx, time.Minute, cfg.SessionIdleTimeout)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(echoprometheus.NewMiddleware("taskboard"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, api.Deps{
		Sessions: sessions,
		Auth:     auth,
		Deduper:  api.NewRedisDeduper(rc, cfg.DeduperTTL),
		Updates:  cache,
		Stats:    func() any { return box.Stats() },
		Log:      logger,
	})

	listenAddr := cfg.ListenAddr
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", listenAddr).Info("taskboard api listening")
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	box.Shutdown()
	if serveErr != nil {
		return fmt.Errorf("listen: %w", serveErr)
	}
	return nil
}
