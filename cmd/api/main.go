package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"kimora-storefront/internal/catalog"
	"kimora-storefront/internal/client"
	"kimora-storefront/internal/config"
	"kimora-storefront/internal/mail"
	"kimora-storefront/internal/repository"
	"kimora-storefront/internal/server"
	"kimora-storefront/internal/service"
	"kimora-storefront/internal/token"
)

const portalTokenTTL = 15 * time.Minute

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitSqliteClient(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe)
	priceCatalog := catalog.Load(os.Getenv)

	tokens, err := token.NewService(cfg.SessionSecret, portalTokenTTL)
	if err != nil {
		log.Fatal(err)
	}

	mailer := mail.NewSMTPMailer(&cfg.SMTP)
	if mailer == nil {
		log.Println("SMTP not configured, portal links will be logged instead of sent")
	}

	orderRepo := repository.NewOrderRepository(db)

	checkoutService := service.NewCheckoutService(stripeClient, priceCatalog, cfg.SiteURL)
	webhookService := service.NewWebhookService(stripeClient, orderRepo, priceCatalog)
	portalService := service.NewPortalService(stripeClient, orderRepo, tokens, mailer, cfg.SiteURL)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutService, webhookService, portalService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
