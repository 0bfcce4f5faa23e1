package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"tourbook/config"
	"tourbook/internal/logger"
	"tourbook/internal/worker"
	"tourbook/pkg/queue"
)

// The worker consumes booking and payment events and sends customer messages.
func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	if cfg.RabbitMQ.URL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := worker.NewDispatcher(worker.LogSender{Log: log.WithField("component", "sender")}, log)
	log.WithField("queues", worker.Queues).Info("worker started")
	if err := queue.Consume(ctx, cfg.RabbitMQ.URL, worker.Queues, d.Handle, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("consume")
	}
	log.Info("worker stopped")
}
