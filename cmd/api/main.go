package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/db"
	"github.com/fluxapay/backend/internal/events"
	apphttp "github.com/fluxapay/backend/internal/http"
	"github.com/fluxapay/backend/internal/http/handlers"
	"github.com/fluxapay/backend/internal/rbac"
	"github.com/fluxapay/backend/internal/repositories"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	paymentRepo := repositories.NewPaymentRepo(pool)
	refundRepo := repositories.NewRefundRepo(pool)
	merchantRepo := repositories.NewMerchantRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	authPayloadRepo := repositories.NewAuthPayloadRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	roles := rbac.NewService(roleRepo, log)
	paymentService := services.NewPaymentService(paymentRepo, auditRepo, publisher, log)
	refundService := services.NewRefundService(refundRepo, roles, auditRepo, publisher, log)
	merchantService := services.NewMerchantService(merchantRepo, auditRepo, publisher, log)
	authService := services.NewAuthService(authPayloadRepo, auditRepo, cfg, log)

	bootstrapAdmin(ctx, cfg, roles, merchantService, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	refundHandler := handlers.NewRefundHandler(refundService, log)
	merchantHandler := handlers.NewMerchantHandler(merchantService, log)
	roleHandler := handlers.NewRoleHandler(roles, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, roles, authHandler, paymentHandler, refundHandler, merchantHandler, roleHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// bootstrapAdmin seeds the access-control admin and the registry admin from
// ADMIN_ADDRESS on first start. Both paths are idempotent across restarts.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, roles *rbac.Service, merchants *services.MerchantService, log *zap.Logger) {
	if cfg.AdminAddress == "" {
		return
	}

	admin, err := roles.GetAdmin(ctx)
	if err != nil {
		log.Error("failed to read access admin", zap.Error(err))
		return
	}
	if admin == "" {
		if err := roles.Initialize(ctx, cfg.AdminAddress); err != nil {
			log.Error("failed to initialize access control", zap.Error(err))
			return
		}
		log.Info("access control initialized", zap.String("admin", cfg.AdminAddress))
	}

	if err := merchants.Initialize(ctx, cfg.AdminAddress); err != nil {
		if !errors.Is(err, services.ErrAdminAlreadySet) {
			log.Error("failed to initialize merchant registry", zap.Error(err))
		}
		return
	}
	log.Info("merchant registry initialized", zap.String("admin", cfg.AdminAddress))
}
