package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbook/config"
	"tourbook/internal/database"
	"tourbook/internal/logger"
	"tourbook/internal/middleware"
	"tourbook/internal/router"
	"tourbook/pkg/cloudinary"
	"tourbook/pkg/lock"
	"tourbook/pkg/payment"
	"tourbook/pkg/queue"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	database.SeedAdmin(db, cfg.Admin, log)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.WithError(err).Fatal("cloudinary")
	}
	if cfg.Cloudinary.CloudName == "" {
		log.Warn("cloudinary not configured, catalog image uploads are rejected")
	}

	deps := router.Deps{Cloud: cloud}

	if cfg.Paystack.SecretKey != "" {
		deps.Gateway = payment.NewPaystackProvider(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout, log)
	} else {
		if cfg.Server.IsProduction() {
			log.Fatal("PAYSTACK_SECRET_KEY is required in production")
		}
		log.Warn("PAYSTACK_SECRET_KEY not set, using stub payment provider")
		deps.Gateway = payment.NewStubProvider("sk_test_stub")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis ping failed, continuing")
		}
		cancel()
		deps.Locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		deps.Limiter = middleware.NewRedisRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		log.Info("REDIS_ADDR not set, using in-process locks and rate limiting")
		deps.Locker = lock.NewLocal()
		deps.Limiter = middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	if cfg.RabbitMQ.URL != "" {
		deps.Events = queue.NewAMQPPublisher(cfg.RabbitMQ.URL, log)
	} else {
		log.Info("RABBITMQ_URL not set, domain events are not published")
		deps.Events = queue.Discard{}
	}

	engine := router.Setup(cfg, db, deps, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	closeAll(log, deps.Events, rdb)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}

func closeAll(log *logrus.Logger, events queue.Publisher, rdb *redis.Client) {
	if err := events.Close(); err != nil {
		log.WithError(err).Warn("close event publisher")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}
}
