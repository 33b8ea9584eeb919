package http

import (
	"time"

	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/http/handlers"
	"github.com/fluxapay/backend/internal/middleware"
	"github.com/fluxapay/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	roles *rbac.Service,
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	refundHandler *handlers.RefundHandler,
	merchantHandler *handlers.MerchantHandler,
	roleHandler *handlers.RoleHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/proof-payload", authHandler.ProofPayload)
	api.Post("/auth/ton-proof", authHandler.TonProof)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/currencies", metaHandler.GetCurrencies)
	api.Get("/meta/networks", metaHandler.GetNetworks)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Payments
	protected.Post("/payments", paymentHandler.CreatePayment)
	protected.Get("/payments", paymentHandler.ListPayments)
	protected.Get("/payments/:id", paymentHandler.GetPayment)
	protected.Post("/payments/:id/verify",
		middleware.RequireRole(roles, rbac.RoleOracle), paymentHandler.VerifyPayment)
	protected.Post("/payments/:id/cancel", paymentHandler.CancelPayment)
	protected.Get("/payments/:id/events", paymentHandler.GetPaymentEvents)
	protected.Get("/payments/:id/refunds", refundHandler.ListPaymentRefunds)

	// Refunds
	protected.Post("/refunds", refundHandler.CreateRefund)
	protected.Get("/refunds/:id", refundHandler.GetRefund)
	protected.Post("/refunds/:id/process", refundHandler.ProcessRefund)

	// Merchants
	protected.Post("/merchants", merchantHandler.RegisterMerchant)
	protected.Get("/merchants/:id", merchantHandler.GetMerchant)
	protected.Patch("/merchants/:id", merchantHandler.UpdateMerchant)
	protected.Post("/merchants/:id/verify", merchantHandler.VerifyMerchant)

	// Roles
	protected.Post("/roles/grant", roleHandler.GrantRole)
	protected.Post("/roles/revoke", roleHandler.RevokeRole)
	protected.Post("/roles/renounce", roleHandler.RenounceRole)
	protected.Get("/roles/:role/:account", roleHandler.HasRole)
	protected.Get("/admin", roleHandler.GetAdmin)
	protected.Post("/admin/transfer", roleHandler.TransferAdmin)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
