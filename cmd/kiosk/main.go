package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_cart/smart-trolley/internal/config"
	"github.com/fjod/go_cart/smart-trolley/internal/kiosk"
	"github.com/fjod/go_cart/smart-trolley/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	httpPort := flag.Int("port", cfg.HTTPPort, "kiosk api port")
	backendURL := flag.String("backend", cfg.BackendURL, "trolley backend base url")
	flag.Parse()
	cfg.HTTPPort = *httpPort
	cfg.BackendURL = *backendURL
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "smart-trolley-kiosk", cfg.TrolleyID, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	session, err := kiosk.New(cfg)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	if err := session.Start(ctx); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	log.Printf("kiosk for trolley %s started, backend %s", cfg.TrolleyID, cfg.BackendURL)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down kiosk...")
	case err := <-waitErr:
		if err != nil {
			log.Printf("session stopped: %v", err)
		}
	}

	if err := session.Stop(); err != nil {
		log.Printf("session stop error: %v", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}

	log.Println("kiosk exited")
}
