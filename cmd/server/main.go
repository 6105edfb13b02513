package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"portal/authgate/internal/cache"
	"portal/authgate/internal/config"
	"portal/authgate/internal/gate"
	internalhttp "portal/authgate/internal/http"
	"portal/authgate/internal/identity"
	"portal/authgate/internal/model"
	"portal/authgate/internal/offline"
	"portal/authgate/internal/profile"
	"portal/authgate/internal/routes"
	"portal/authgate/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := profile.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	var profileCache cache.Store[model.Profile]
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		profileCache = cache.NewRedis[model.Profile](redisClient, "profiles")
	} else {
		profileCache = cache.NewMemory[model.Profile]("profiles")
	}

	provider := identity.NewClient(identity.ClientOptions{
		BaseURL:   cfg.IdentityBaseURL,
		AnonKey:   cfg.IdentityAnonKey,
		JWTSecret: cfg.JWTSecret,
		JWTIssuer: cfg.JWTIssuer,
		Timeout:   cfg.RequestTimeout,
	})

	manager := offline.NewManager(provider.HealthCheck, cfg.HealthInterval)
	go manager.Run(ctx)

	g := &gate.Gate{
		Validator: session.Validator{
			Provider:   provider,
			MaxRetries: cfg.ValidateRetries,
			RetryDelay: cfg.RetryDelay,
			Grace:      cfg.SessionGrace,
		},
		Resolver: profile.Resolver{
			Store: profile.NewPostgres(pool),
			Cache: profileCache,
			TTL:   cfg.ProfileCacheTTL,
		},
		Table:        routes.Default(),
		Policy:       gate.DefaultPolicy(),
		CookiePrefix: cfg.CookiePrefix,
		Metrics:      gate.NewMetrics(prometheus.DefaultRegisterer),
	}

	server, err := internalhttp.NewServer(cfg, g, provider, profileCache, manager)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("authgate listening on %s, upstream %s", cfg.HTTPAddr, cfg.UpstreamURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
