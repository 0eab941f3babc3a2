package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/config"
	"github.com/example/labourmarket/internal/handlers"
	"github.com/example/labourmarket/internal/middleware"
	"github.com/example/labourmarket/internal/notify"
	"github.com/example/labourmarket/internal/repository"
	"github.com/example/labourmarket/internal/services"
)

// Integrations are the outbound services the API depends on.
type Integrations struct {
	Dispatcher notify.Dispatcher
	Gateway    services.Gateway
	Alerts     services.AdminAlerter
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, in Integrations) {
	users := repository.NewUserRepo(db)
	labourers := repository.NewLabourerRepo(db)
	bookings := repository.NewBookingRepo(db)

	bookingService := services.NewBookingService(bookings, labourers, users, in.Dispatcher, in.Alerts)
	paymentService := services.NewPaymentService(bookings, in.Gateway, cfg.RazorpayKeySecret, cfg.PaymentCurrency, in.Alerts)

	authHandler := handlers.NewAuthHandler(users, cfg)
	labourerHandler := handlers.NewLabourerHandler(labourers)
	profileHandler := handlers.NewProfileHandler(db, users, labourers)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.RazorpayKeyID)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)

	// Labourer directory
	labourerRoutes := api.Group("/labourers")
	labourerRoutes.Get("/", labourerHandler.ListLabourers)
	labourerRoutes.Get("/:id", labourerHandler.GetLabourer)
	labourerRoutes.Post("/", authMiddleware, labourerHandler.CreateLabourer)

	// Profile routes (protected)
	profile := api.Group("/profile", authMiddleware)
	profile.Get("/me", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Post("/worker", profileHandler.SaveWorkerProfile)
	profile.Put("/fcm-token", profileHandler.UpdatePushToken)
	profile.Put("/image", profileHandler.UpdateImage)
	profile.Get("/addresses", profileHandler.ListAddresses)
	profile.Post("/addresses", profileHandler.CreateAddress)
	profile.Put("/addresses/:id", profileHandler.UpdateAddress)
	profile.Delete("/addresses/:id", profileHandler.DeleteAddress)

	// Bookings (protected)
	bookingRoutes := api.Group("/bookings", authMiddleware)
	bookingRoutes.Post("/", bookingHandler.CreateBooking)
	bookingRoutes.Get("/user", bookingHandler.ListUserBookings)
	bookingRoutes.Get("/worker", bookingHandler.ListWorkerBookings)
	bookingRoutes.Get("/:id", bookingHandler.GetBooking)
	bookingRoutes.Put("/:id/claim", bookingHandler.ClaimBooking)
	bookingRoutes.Put("/:id/status", bookingHandler.UpdateBookingStatus)

	// Payments (protected)
	payments := api.Group("/payments", authMiddleware)
	payments.Post("/create-order", paymentHandler.CreateOrder)
	payments.Post("/verify-payment", paymentHandler.VerifyPayment)
}
