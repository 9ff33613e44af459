// Package config handles loading and managing application configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Acquiring gateway configuration
	Gateway GatewayConfig

	// Merchant constants stamped onto every gateway request
	Merchant MerchantConfig

	// Session store settings
	Session SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	GinMode        string // "debug", "release", or "test"
	PublicURL      string // external URL of this service, the ACS redirects back here
	CheckoutOrigin string // origin of the checkout client, for CORS
	SuccessURL     string // merchant endpoint the success handoff posts to
}

// GatewayConfig holds the gateway direct-API configuration.
type GatewayConfig struct {
	DirectURL    string
	SignatureKey string
	Timeout      time.Duration
}

// MerchantConfig holds the merchant profile for outbound requests.
type MerchantConfig struct {
	MerchantID           string
	CountryCode          string
	CurrencyCode         string
	MerchantCategoryCode string
	OrderRef             string
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8012"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			PublicURL:      getEnv("PUBLIC_URL", "http://localhost:8012/"),
			CheckoutOrigin: getEnv("CHECKOUT_ORIGIN", "http://localhost:3000"),
			SuccessURL:     getEnv("SUCCESS_URL", ""),
		},
		Gateway: GatewayConfig{
			DirectURL:    getEnv("GATEWAY_DIRECT_URL", ""),
			SignatureKey: getEnv("GATEWAY_SIGNATURE_KEY", ""),
			Timeout:      time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Merchant: MerchantConfig{
			MerchantID:           getEnv("MERCHANT_ID", ""),
			CountryCode:          getEnv("MERCHANT_COUNTRY_CODE", "826"),
			CurrencyCode:         getEnv("MERCHANT_CURRENCY_CODE", "826"),
			MerchantCategoryCode: getEnv("MERCHANT_CATEGORY_CODE", "5411"),
			OrderRef:             getEnv("MERCHANT_ORDER_REF", "Online purchase"),
		},
		Session: SessionConfig{
			TTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 15)) * time.Minute,
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
