package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/labourmarket/internal/config"
	"github.com/example/labourmarket/internal/database"
	"github.com/example/labourmarket/internal/handlers"
	"github.com/example/labourmarket/internal/notify"
	"github.com/example/labourmarket/internal/observability"
	"github.com/example/labourmarket/internal/routes"
	"github.com/example/labourmarket/internal/services"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	db := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)

	integrations := routes.Integrations{
		Dispatcher: newDispatcher(ctx, cfg),
		Gateway:    newGateway(cfg),
	}
	if cfg.TelegramBotToken != "" {
		telegram, err := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
		if err != nil {
			log.Printf("Telegram alerts disabled: %v", err)
		} else {
			integrations.Alerts = telegram
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Labour Market Backend",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    50 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, integrations)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("fiber shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}

	if closer, ok := integrations.Dispatcher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("dispatcher close: %v", err)
		}
	}
	if waiter, ok := integrations.Dispatcher.(interface{ Wait() }); ok {
		waiter.Wait()
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(flushCtx); err != nil {
		log.Printf("tracer shutdown: %v", err)
	}
}

// newDispatcher prefers the RabbitMQ queue when configured and otherwise
// delivers in-process.
func newDispatcher(ctx context.Context, cfg *config.Config) notify.Dispatcher {
	if cfg.RabbitURL != "" {
		publisher, err := notify.NewQueuePublisher(cfg.RabbitURL, cfg.NotifyExchange)
		if err == nil {
			log.Printf("Push notifications queued on exchange %q", cfg.NotifyExchange)
			return publisher
		}
		log.Printf("RabbitMQ unavailable, delivering in-process: %v", err)
	}
	return notify.NewAsyncDispatcher(newNotifier(ctx, cfg), cfg.NotifyMaxAttempts, 2*time.Second)
}

func newNotifier(ctx context.Context, cfg *config.Config) notify.Notifier {
	if cfg.FirebaseCredentialsFile == "" {
		log.Println("Firebase credentials not configured, push notifications are logged only")
		return notify.NoopNotifier{}
	}
	n, err := notify.NewFCMNotifier(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("Firebase init failed, push notifications are logged only: %v", err)
		return notify.NoopNotifier{}
	}
	return n
}

func newGateway(cfg *config.Config) services.Gateway {
	if !cfg.PaymentsEnabled() {
		log.Println("Razorpay keys not configured, issuing stub orders")
		return services.StubGateway{}
	}
	return services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
}
