package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/lendly/internal/config"
	"github.com/example/lendly/internal/gateway"
	"github.com/example/lendly/internal/handlers"
	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	store := services.NewGormStore(db)
	gatewayClient := gateway.NewClient(cfg.GatewaySecretKey, cfg.GatewayBaseURL)

	checkoutService := services.NewCheckoutService(store, gatewayClient, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	walletService := services.NewWalletService(store)
	settlementService := services.NewSettlementService(store, walletService)

	authHandler := handlers.NewAuthHandler(db, cfg)
	itemHandler := handlers.NewItemHandler(db)
	serviceHandler := handlers.NewServiceListingHandler(db)
	requestHandler := handlers.NewBorrowRequestHandler(db)
	bookingHandler := handlers.NewBookingHandler(db)
	walletHandler := handlers.NewWalletHandler(walletService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(settlementService, cfg.WebhookSecret)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public browse routes
	items := api.Group("/items")
	items.Get("/", itemHandler.ListItems)
	items.Get("/:id", itemHandler.GetItem)

	svcs := api.Group("/services")
	svcs.Get("/", serviceHandler.ListServices)
	svcs.Get("/:id", serviceHandler.GetService)

	// Gateway webhook: authenticated by signature, not by bearer token
	api.Post("/payments/webhook", webhookHandler.Handle)

	// Internal service-to-service routes
	internal := api.Group("/internal", middleware.ServiceAuthMiddleware(cfg.InternalServiceKey))
	internal.Post("/wallet/reconcile", walletHandler.Reconcile)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/me", authHandler.Me)

	protected.Post("/items", itemHandler.CreateItem)
	protected.Put("/items/:id", itemHandler.UpdateItem)
	protected.Delete("/items/:id", itemHandler.DeleteItem)

	protected.Post("/services", serviceHandler.CreateService)
	protected.Put("/services/:id", serviceHandler.UpdateService)
	protected.Delete("/services/:id", serviceHandler.DeleteService)

	protected.Post("/requests", requestHandler.CreateRequest)
	protected.Get("/requests", requestHandler.ListRequests)
	protected.Get("/requests/:id", requestHandler.GetRequest)
	protected.Patch("/requests/:id/status", requestHandler.UpdateStatus)

	protected.Post("/bookings", bookingHandler.CreateBooking)
	protected.Get("/bookings", bookingHandler.ListBookings)
	protected.Get("/bookings/:id", bookingHandler.GetBooking)
	protected.Patch("/bookings/:id/status", bookingHandler.UpdateStatus)

	protected.Get("/wallet", walletHandler.GetWallet)
	protected.Get("/wallet/entries", walletHandler.ListEntries)

	protected.Post("/payments/checkout", checkoutHandler.Checkout)
}
