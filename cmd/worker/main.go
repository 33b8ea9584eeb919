package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/db"
	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/repositories"
	"github.com/fluxapay/backend/internal/services"
	"go.uber.org/zap"
)

// The worker sweeps overdue pending payments into the expired state. The
// cancel guard in the service makes the sweep safe to run at any cadence:
// a payment that has not passed its expiry can never be cancelled.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	paymentRepo := repositories.NewPaymentRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	publisher := events.NewRedisPublisher(rdb, log)
	paymentService := services.NewPaymentService(paymentRepo, auditRepo, publisher, log)

	log.Info("worker started", zap.Duration("sweep_interval", cfg.SweepInterval))

	sweepTicker := time.NewTicker(cfg.SweepInterval)
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			runExpirySweep(ctx, paymentService, cfg.SweepBatchSize, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runExpirySweep(ctx context.Context, paymentService *services.PaymentService, batchSize int, log *zap.Logger) {
	swept, err := paymentService.SweepExpired(ctx, batchSize)
	if err != nil {
		log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		log.Info("expired payments swept", zap.Int("count", swept))
	}
}
