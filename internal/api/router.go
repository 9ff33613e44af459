// Package api contains the HTTP handlers, routing, and page rendering for
// the 3-D Secure payment service.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
// CORS is restricted to the checkout client's origin with credentials
// allowed: the session cookie must survive the cross-site challenge
// round-trip.
func SetupRouter(handler *Handler, ginMode, checkoutOrigin string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{checkoutOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	router.Use(RequestIDMiddleware())

	// Health check endpoint (no session required)
	router.GET("/health", handler.Health)

	// Checkout entry point: stashes the attempt and starts browser
	// fingerprinting.
	router.POST("/init", handler.Init)

	// The 3DS return leg: browser info, method ping, and challenge result
	// all POST back here and are discriminated by payload shape.
	router.GET("/", handler.BrowserInfoPage)
	router.POST("/", handler.Callback)

	// The ACS may redirect to an arbitrary path; keep the catch-all.
	router.NoRoute(handler.Fallback)

	return router
}
