package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/config"
	"github.com/example/ghanatech/internal/handlers"
	"github.com/example/ghanatech/internal/middleware"
	"github.com/example/ghanatech/internal/models"
	"github.com/example/ghanatech/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, gateway services.PaymentGateway) {
	orderService := services.NewOrderService(db)
	settlementService := services.NewSettlementService(db, gateway, cfg.FrontendURL)

	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderService)
	adminHandler := handlers.NewAdminHandler(db, orderService)
	paymentHandler := handlers.NewPaymentHandler(settlementService, cfg.PaystackSecretKey)

	app.Get("/api/health", healthCheck)

	api := app.Group("/api/v1")
	api.Get("/health", healthCheck)

	protect := middleware.Protect(db, cfg)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", protect, authHandler.GetMe)
	auth.Put("/me", protect, authHandler.UpdateProfile)
	auth.Put("/password", protect, authHandler.UpdatePassword)

	// Products (public catalog, review posting requires auth)
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/featured", productHandler.GetFeatured)
	products.Get("/categories", productHandler.GetCategories)
	products.Get("/:id", productHandler.GetProduct)
	products.Get("/:id/related", productHandler.GetRelated)
	products.Post("/:id/reviews", protect, productHandler.AddReview)

	// Cart
	cart := api.Group("/cart", protect)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/", cartHandler.AddToCart)
	cart.Put("/:productId", cartHandler.UpdateCartItem)
	cart.Delete("/:productId", cartHandler.RemoveFromCart)
	cart.Delete("/", cartHandler.ClearCart)

	// Orders
	orders := api.Group("/orders", protect)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)

	// Payments; the webhook is gated by signature, not bearer auth.
	payments := api.Group("/payments")
	payments.Post("/initialize", protect, paymentHandler.InitializePayment)
	payments.Get("/verify/:reference", protect, paymentHandler.VerifyPayment)
	payments.Post("/webhook", paymentHandler.Webhook)

	// Admin back office
	admin := api.Group("/admin", protect, adminOnly)
	admin.Get("/dashboard", adminHandler.GetDashboard)
	admin.Post("/products", adminHandler.CreateProduct)
	admin.Put("/products/:id", adminHandler.UpdateProduct)
	admin.Delete("/products/:id", adminHandler.DeleteProduct)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id", adminHandler.UpdateOrderStatus)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id", adminHandler.ToggleUserStatus)
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"message":   "GhanaTech API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}
