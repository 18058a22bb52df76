package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billing-tracker/internal/config"
	"billing-tracker/internal/db"
	apihttp "billing-tracker/internal/http"
	"billing-tracker/internal/oauth"
	"billing-tracker/internal/repository"
	"billing-tracker/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	itemRepo := repository.NewPgItemRepository(pool)

	var (
		sessionStore = service.NewMemorySessionStore()
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginRateWindow, cfg.LoginRateLimit)
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory session store", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient)
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateLimit)
		}
		cancel()
		defer redisClient.Close()
	}

	google, err := oauth.NewGoogle(ctx, oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		IssuerURL:    cfg.GoogleIssuerURL,
		Timeout:      cfg.OAuthTimeout,
	})
	if err != nil {
		logger.Fatal("oidc discovery", zap.Error(err))
	}

	sessionSvc := service.NewSessionTokenService(cfg.SessionSecret, cfg.SessionTTL, sessionStore)
	broker := service.NewIdentityBroker(logger, google, sessionSvc, cfg.OAuthTimeout)
	itemSvc := service.NewItemService(logger, itemRepo)

	authHandler := apihttp.NewAuthHandler(logger, broker, apihttp.CookieOptions{Secure: cfg.CookieSecure})
	itemHandler := apihttp.NewItemHandler(logger, itemSvc)
	router := apihttp.NewRouter(logger, broker, authHandler, itemHandler, apihttp.RouterOptions{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		LoginLimiter:       loginLimiter,
		Readiness:          db.Readiness(pool),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
