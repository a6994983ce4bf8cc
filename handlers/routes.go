package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/internal/settings"
	"campus_marketplace/internal/ws"
	"campus_marketplace/middleware"

	"github.com/gofiber/fiber/v2"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Accounts *service.AccountService
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService
	Messages *service.MessagingService
	Reviews  *service.ReviewService
	Reports  *service.ReportService
	Settings settings.Provider
	Hub      *ws.Hub
}

// Register mounts every route on app. Static segments are registered before
// the matching /:id routes.
func Register(app *fiber.App, d Deps) {
	auth := NewAuthHandler(d.Accounts)
	products := NewProductHandler(d.Products)
	cart := NewCartHandler(d.Carts)
	orders := NewOrderHandler(d.Orders)
	messages := NewMessageHandler(d.Messages)
	reviews := NewReviewHandler(d.Reviews)
	reports := NewReportHandler(d.Reports)
	admin := NewAdminHandler(d.Accounts, d.Settings)

	protected := middleware.AuthMiddleware(d.Accounts)

	// Health Check Endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return ok(c, "API is healthy", nil)
	})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)
	authGroup.Get("/me", protected, auth.Me)

	api.Get("/categories", products.GetCategories)

	productGroup := api.Group("/products")
	productGroup.Get("/", products.GetAllProducts)
	productGroup.Get("/:id", products.GetProduct)
	productGroup.Post("/", protected, products.CreateProduct)
	productGroup.Put("/:id", protected, products.UpdateProduct)
	productGroup.Delete("/:id", protected, products.DeleteProduct)

	cartGroup := api.Group("/cart", protected)
	cartGroup.Get("/", cart.GetCart)
	cartGroup.Delete("/", cart.ClearCart)
	cartGroup.Post("/items", cart.AddItem)
	cartGroup.Put("/items/:id", cart.UpdateItem)
	cartGroup.Delete("/items/:id", cart.RemoveItem)
	cartGroup.Get("/validate", cart.Validate)
	cartGroup.Get("/count", cart.Count)
	cartGroup.Get("/check/:productId", cart.Check)

	orderGroup := api.Group("/orders", protected)
	orderGroup.Post("/", orders.CreateOrder)
	orderGroup.Get("/", orders.GetMyOrders)
	orderGroup.Get("/all", middleware.AdminOnly, orders.GetAllOrders)
	orderGroup.Get("/stats", middleware.AdminOnly, orders.GetStats)
	orderGroup.Get("/monthly-sales", middleware.AdminOnly, orders.GetMonthlySales)
	orderGroup.Get("/:id", orders.GetOrder)
	orderGroup.Put("/:id/payment", orders.UpdatePayment)
	orderGroup.Post("/:id/checkout", orders.Checkout)
	orderGroup.Put("/:id/cancel", orders.CancelOrder)
	orderGroup.Put("/:id/status", middleware.AdminOnly, orders.UpdateStatus)

	messageGroup := api.Group("/messages", protected)
	messageGroup.Get("/", messages.ListConversations)
	messageGroup.Post("/", messages.StartConversation)
	messageGroup.Get("/unread/count", messages.UnreadCount)
	messageGroup.Get("/:id", messages.GetMessages)
	messageGroup.Post("/:id", messages.SendMessage)
	messageGroup.Put("/:id/read", messages.MarkAsRead)
	messageGroup.Delete("/:id", messages.DeleteConversation)

	reviewGroup := api.Group("/reviews")
	reviewGroup.Get("/seller/:id", reviews.GetSellerReviews)
	reviewGroup.Get("/seller/:id/stats", reviews.GetSellerStats)
	reviewGroup.Get("/product/:id", reviews.GetProductReviews)
	reviewGroup.Get("/check-eligibility/:productId", protected, reviews.CheckEligibility)
	reviewGroup.Post("/", protected, reviews.CreateReview)
	reviewGroup.Put("/:id", protected, reviews.UpdateReview)
	reviewGroup.Delete("/:id", protected, reviews.DeleteReview)

	api.Post("/reports", protected, reports.CreateReport)

	adminGroup := api.Group("/admin", protected, middleware.AdminOnly)
	adminGroup.Get("/users", admin.ListUsers)
	adminGroup.Get("/settings", admin.GetSettings)
	adminGroup.Put("/settings", admin.UpdateSettings)
	adminGroup.Get("/products", products.GetAllProducts)
	adminGroup.Put("/products/:id/review", products.ReviewProduct)
	adminGroup.Get("/reports", reports.ListReports)
	adminGroup.Put("/reports/:id", reports.UpdateReport)

	if d.Hub != nil {
		chat := NewChatHandler(d.Hub, d.Messages)
		app.Get("/ws", chat.WebSocketUpgradeMiddleware, protected, chat.Handler())
	}
}
