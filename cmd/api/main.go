// Shopkit Payments 3-D Secure Service
//
// This is the main entry point for the 3DS payment orchestration service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopkit/shopkit-payments/config"
	"github.com/shopkit/shopkit-payments/internal/api"
	"github.com/shopkit/shopkit-payments/internal/gateway"
	"github.com/shopkit/shopkit-payments/internal/session"
	"github.com/shopkit/shopkit-payments/internal/threeds"
)

func main() {
	log.Println("Starting Shopkit Payments 3DS Service...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded: Port=%s, GatewayURL=%s", cfg.Server.Port, cfg.Gateway.DirectURL)

	// Validate required configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	store := session.New(cfg.Session.TTL)
	defer store.Close()
	gatewayClient := gateway.NewClient(cfg.Gateway.DirectURL, cfg.Gateway.SignatureKey, cfg.Gateway.Timeout)

	// Service Layer
	builder := threeds.NewFieldBuilder(threeds.MerchantProfile{
		MerchantID:           cfg.Merchant.MerchantID,
		CountryCode:          cfg.Merchant.CountryCode,
		CurrencyCode:         cfg.Merchant.CurrencyCode,
		MerchantCategoryCode: cfg.Merchant.MerchantCategoryCode,
		OrderRef:             cfg.Merchant.OrderRef,
	})
	paymentService := threeds.NewService(store, gatewayClient, builder)

	// API Layer
	handler := api.NewHandler(paymentService, cfg.Server.PublicURL, cfg.Server.SuccessURL, cfg.Session.TTL)
	router := api.SetupRouter(handler, cfg.Server.GinMode, cfg.Server.CheckoutOrigin)

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		log.Printf("Server listening on %s", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Gateway.DirectURL == "" {
		return fmt.Errorf("GATEWAY_DIRECT_URL is required")
	}
	if cfg.Merchant.MerchantID == "" {
		return fmt.Errorf("MERCHANT_ID is required")
	}
	if cfg.Gateway.SignatureKey == "" {
		log.Println("Warning: GATEWAY_SIGNATURE_KEY not set, requests will be unsigned")
	}
	return nil
}
