package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wareease/wareease-web/internal/wareease/authapi"
	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/config"
	"github.com/wareease/wareease-web/internal/wareease/httpserver"
	"github.com/wareease/wareease-web/internal/wareease/observability"
	appsession "github.com/wareease/wareease-web/internal/wareease/session"
	"github.com/wareease/wareease-web/internal/wareease/signin"
	"github.com/wareease/wareease-web/internal/wareease/token"
	"github.com/wareease/wareease-web/internal/wareease/userstore"
)

// userInfoRetention keeps stored user info around briefly after the token
// lapses so the expiry check can still tell "expired" from "never signed in".
const userInfoRetention = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger level comes from config, so fall back to a default one.
		logger, _ := observability.NewLogger("")
		logger.Fatal("load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeUsers := buildUserStore(ctx, cfg, logger)
	defer closeUsers()

	authClient, err := authapi.NewClient(cfg.AuthAPI.BaseURL, &http.Client{Timeout: cfg.AuthAPI.Timeout})
	if err != nil {
		logger.Fatal("auth api client", zap.Error(err))
	}

	scheduler := autologout.NewScheduler(userstore.Revoker{Store: users})
	defer scheduler.Close()

	sessions, err := appsession.NewManager(appsession.Config{
		HashKey:      sessionKey(cfg.Session.HashKey, 32, logger),
		BlockKey:     cfg.Session.BlockKey,
		CookieSecure: cfg.Session.CookieSecure,
		Lifetime:     cfg.Session.Lifetime,
	})
	if err != nil {
		logger.Fatal("session manager", zap.Error(err))
	}

	workflow := signin.NewWorkflow(authClient, token.NewDecoder(), scheduler)

	srv := httpserver.New(httpserver.Config{
		Address:     cfg.Server.Address,
		Environment: cfg.Server.Environment,
		Logger:      logger,
		Sessions:    sessions,
		Users:       users,
		Workflow:    workflow,
		Scheduler:   scheduler,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("wareease server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("environment", cfg.Server.Environment),
		zap.String("authAPI", cfg.AuthAPI.BaseURL),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}

func buildUserStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (userstore.Store, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set; keeping user info in memory")
		return userstore.NewMemoryStore(userInfoRetention), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	logger.Info("user info stored in redis", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Redis.Prefix))
	return userstore.NewRedisStore(client, cfg.Redis.Prefix, userInfoRetention), func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close", zap.Error(err))
		}
	}
}

// sessionKey returns key, or a random one when it is empty. Config validation
// only lets an empty key through in development, where cookies need not
// survive a restart.
func sessionKey(key []byte, length int, logger *zap.Logger) []byte {
	if len(key) > 0 {
		return key
	}
	logger.Warn("SESSION_HASH_KEY not set; generated an ephemeral key")
	return securecookie.GenerateRandomKey(length)
}
