package main

import (
	"context"
	"fmt"
	"net/http"
	"order-intake/internal/client"
	"order-intake/internal/config"
	"order-intake/internal/logger"
	"order-intake/internal/metrics"
	"order-intake/internal/model"
	"order-intake/internal/repository"
	"order-intake/internal/server"
	"order-intake/internal/service"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load(env.Options{})
	if err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&cfg.Log)
	metrics.Register()

	var deliveryRepo repository.DeliveryRepository
	if cfg.Database.URL != "" {
		db, err := client.InitDatabase(&cfg.Database)
		if err != nil {
			log.Error("init database", "error", err)
			os.Exit(1)
		}
		deliveryRepo = repository.NewDeliveryRepository(db)
	}

	layout, err := model.NewRowLayout(model.OrderLayoutV1, model.OrderColumnsV1, cfg.Google.SheetColumnCount)
	if err != nil {
		log.Error("build row layout", "error", err)
		os.Exit(1)
	}

	googleAuthClient := client.NewGoogleAuthClient(&cfg.Google, cfg.HTTP.ClientTimeout)
	sheetsClient := client.NewSheetsClient(&cfg.Google, googleAuthClient, cfg.HTTP.ClientTimeout)
	tiktokClient := client.NewTikTokClient(&cfg.TikTok, cfg.HTTP.ClientTimeout)

	forwarder := service.NewNotificationForwarder(tiktokClient, &cfg.TikTok, &cfg.Order)
	recorder := service.NewDeliveryRecorder(log, deliveryRepo)

	orderService, err := service.NewOrderService(sheetsClient, forwarder, recorder, layout, &cfg.Order, log)
	if err != nil {
		log.Error("init order service", "error", err)
		os.Exit(1)
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(orderService, &cfg.HTTP, log)

	log.Info("starting HTTP server",
		"addr", serverAddr,
		"environment", cfg.Environment.Name,
		"sheet", cfg.Google.SheetName,
		"tiktok_enabled", cfg.TikTok.Enabled(),
	)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
		os.Exit(1)
	}
}
