package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baryonic/aida/pkg/api"
	"github.com/Baryonic/aida/pkg/cart"
	"github.com/Baryonic/aida/pkg/catalog"
	"github.com/Baryonic/aida/pkg/circuitbreaker"
	"github.com/Baryonic/aida/pkg/contact"
	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rootOpts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	cfg, log := opts.Config, opts.Log

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var notifier contact.Notifier
	if cfg.Notify.AMQPURL != "" {
		notifier = contact.NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.Queue)
		log.Info("contact notifications enabled", "queue", cfg.Notify.Queue)
	}

	contactSvc := contact.NewService(db, notifier, log)
	defer contactSvc.Wait()

	deps := api.Deps{
		DB:          db,
		Catalog:     catalog.NewService(db),
		Cart:        cart.NewService(db),
		Contact:     contactSvc,
		Log:         log,
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
	}

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.PerWindow(cfg.RateLimit.Max, cfg.RateLimit.Window)
		defer limiter.Stop()
		deps.RateLimiter = limiter
		deps.RateLimitMax = cfg.RateLimit.Max
	}

	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis not reachable, cache will start degraded", "addr", cfg.Cache.RedisAddr, "error", err)
		}
		cancel()

		deps.Cache = api.NewRedisCache(rdb)
		deps.CacheBreaker = circuitbreaker.NewCircuitBreakerWithWindow(5, 30*time.Second, time.Minute)
		deps.CachePrefix = cfg.Cache.Prefix
		deps.CacheTTL = cfg.Cache.TTL
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewServer(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
