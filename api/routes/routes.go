package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/primedraws/primedraws-backend/internal/config"
	"github.com/primedraws/primedraws-backend/internal/handlers"
	"github.com/primedraws/primedraws-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler        *handlers.AuthHandler
	PoolHandler        *handlers.PoolHandler
	AllocationHandler  *handlers.AllocationHandler
	FulfillmentHandler *handlers.FulfillmentHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		// Pool stats are a public read: buyers check remaining odds
		// before purchase.
		public.GET("/competitions/:id/pool-stats", deps.PoolHandler.GetPoolStats)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		protected.POST("/orders/:id/claim", deps.AllocationHandler.ClaimTickets)
		protected.POST("/tickets/:id/reveal", deps.AllocationHandler.RevealTicket)

		fulfillments := protected.Group("/fulfillments")
		{
			fulfillments.GET("", deps.FulfillmentHandler.ListMine)
			fulfillments.POST("/:id/choice", deps.FulfillmentHandler.SubmitChoice)
			fulfillments.POST("/:id/claim-cash", deps.FulfillmentHandler.ClaimCash)
		}

		protected.GET("/wallet/transactions", deps.FulfillmentHandler.WalletTransactions)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg), middleware.RequireAdmin())
	{
		admin.POST("/competitions/:id/generate-pool", deps.PoolHandler.GeneratePool)
		admin.POST("/fulfillments/expire", deps.FulfillmentHandler.ExpireOverdue)
		admin.POST("/fulfillments/:id/fulfilled", deps.FulfillmentHandler.MarkFulfilled)
	}

	return router
}
