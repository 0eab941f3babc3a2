package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/labourmarket/internal/config"
	"github.com/example/labourmarket/internal/notify"
)

func main() {
	cfg := config.Load()
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL must be set for the notifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.FirebaseCredentialsFile != "" {
		n, err := notify.NewFCMNotifier(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
		notifier = n
	} else {
		log.Println("Firebase credentials not configured, deliveries are logged only")
	}

	worker := notify.NewWorker(notify.WorkerConfig{
		RabbitURL:   cfg.RabbitURL,
		Exchange:    cfg.NotifyExchange,
		Queue:       cfg.NotifyQueue,
		MaxAttempts: cfg.NotifyMaxAttempts,
		ServiceName: cfg.ServiceName + "-notifier",
	}, notifier)
	if err := worker.Connect(); err != nil {
		log.Fatalf("notifier connect: %v", err)
	}
	defer worker.Close()

	log.Printf("Notifier consuming %q", cfg.NotifyQueue)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("notifier: %v", err)
	}
	log.Println("Notifier stopped")
}
