package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jeezy-monetization-be/internal/bootstrap"
	"jeezy-monetization-be/internal/config"
	"jeezy-monetization-be/internal/server"
	"jeezy-monetization-be/internal/tracer"
)

const shutdownGrace = 15 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.NotificationConsumer.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.PaymentEventAuditor != nil {
		if err := container.PaymentEventAuditor.Start(ctx); err != nil {
			log.Printf("Payment event auditor not started: %v", err)
		}
	}

	// 5. Run Server
	srv := server.New(cfg, container)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run() }()

	select {
	case err := <-serveErr:
		log.Printf("Server stopped: %v", err)
	case <-ctx.Done():
		log.Println("Shutdown signal received, draining requests...")
	}

	// 6. Drain and close
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	container.Close()
	if err := shutdownTracer(drainCtx); err != nil {
		log.Printf("Tracer shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}
