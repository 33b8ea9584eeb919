package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/db"
	"github.com/fluxapay/backend/internal/events"
	"go.uber.org/zap"
)

// Notify Bridge — small service that subscribes to payment lifecycle
// events on Redis and forwards them to the merchant-facing webhook
// endpoint configured via NOTIFY_WEBHOOK_URL.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.NotifyWebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)

	log.Info("notify-bridge started", zap.String("webhook", cfg.NotifyWebhookURL))

	_ = subscriber.Subscribe(ctx, "events:payment", func(event events.Event) {
		log.Info("forwarding event to webhook", zap.String("type", event.Type))
		forwardToWebhook(cfg.NotifyWebhookURL, event, log)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}

func forwardToWebhook(url string, event events.Event, log *zap.Logger) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	resp, err := http.Post(url, "application/json", strings.NewReader(string(body)))
	if err != nil {
		log.Warn("failed to forward event", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("webhook returned non-200", zap.Int("status", resp.StatusCode))
	}
}
