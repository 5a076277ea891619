package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunex/cache"
	"tunex/config"
	"tunex/core/account"
	"tunex/core/audio"
	"tunex/core/auth"
	"tunex/core/library"
	"tunex/core/lyrics"
	"tunex/core/moderation"
	"tunex/core/notification"
	"tunex/core/playlist"
	"tunex/db"
	"tunex/logger"
	"tunex/repository"
	"tunex/storage"

	"github.com/go-redis/redis/v8"
)

// BuildHandler wires the domain services over an open database and returns
// the API handler. rdb may be nil; logout then does not revoke tokens and
// lyrics are only deduplicated in-process.
func BuildHandler(cfg *config.Config, store *repository.Store, sink storage.Sink, rdb *redis.Client) *APIHandler {
	var denylist account.Denylist
	var locker lyrics.Locker
	if rdb != nil {
		denylist = cache.NewTokenDenylist(rdb)
		locker = cache.NewLocker(rdb)
	}

	notifications := notification.NewService(store, notification.NewHub())
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	transcriber := lyrics.NewGeminiTranscriber(lyrics.GeminiConfig{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
	})

	return NewAPIHandler(Services{
		Accounts:      account.NewService(store, tokens, denylist),
		Library:       library.NewService(store, sink, audio.NewFFprobe(cfg.FFprobePath), cfg.MaxUploadBytes),
		Playlists:     playlist.NewService(store, playlist.Options{StrictReorder: cfg.StrictReorder}),
		Moderation:    moderation.NewService(store, notifications, sink),
		Lyrics:        lyrics.NewService(store, sink, transcriber, locker),
		Notifications: notifications,
		Sink:          sink,
		MaxUpload:     cfg.MaxUploadBytes,
	})
}

// Start initializes dependencies and serves HTTP until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	ctx := context.Background()

	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()

	if err := db.Seed(ctx, db.GormDB, db.AdminAccount{
		Email:    cfg.AdminEmail,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	if cfg.RedisEnabled() {
		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	} else {
		logger.Warn("REDIS_HOST not set, token revocation and cross-process lyrics locking are disabled")
	}

	sink, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	handler := BuildHandler(cfg, repository.NewStore(db.GormDB), sink, db.RedisClient)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-stop:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
