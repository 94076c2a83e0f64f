package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"p2p-ramp.backend/internal/interfaces/http/handlers"
	"p2p-ramp.backend/internal/interfaces/http/middleware"
	"p2p-ramp.backend/pkg/metrics"
)

type routeDeps struct {
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	traderHandler  *handlers.TraderHandler
	adminHandler   *handlers.AdminHandler
	commonHandler  *handlers.CommonHandler
	authMiddleware gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", strings.Join([]string{
			"Authorization", "Content-Type", middleware.IdempotencyHeader, middleware.RequestIDHeader,
		}, ", "))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerOpsRoutes(r *gin.Engine, common *handlers.CommonHandler, m *metrics.Metrics) {
	r.GET("/health", common.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		// Public
		auth := api.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.GET("/me", d.authMiddleware, d.authHandler.Me)
		}
		api.GET("/settings/public", d.commonHandler.PublicSettings)
		api.GET("/stats", d.authMiddleware, d.commonHandler.Stats)

		user := api.Group("/user")
		user.Use(d.authMiddleware)
		{
			user.GET("/transactions", d.userHandler.ListTransactions)
			user.POST("/request-card", middleware.IdempotencyMiddleware(), d.userHandler.RequestCard)
			user.POST("/confirm-payment/:id", d.userHandler.ConfirmPayment)
		}

		// registration is open to plain users; everything else needs the role
		api.POST("/trader/register", d.authMiddleware, d.traderHandler.Register)
		trader := api.Group("/trader")
		trader.Use(d.authMiddleware, middleware.RequireTraderOrAdmin())
		{
			trader.GET("/profile", d.traderHandler.Profile)
			trader.GET("/cards", d.traderHandler.ListCards)
			trader.POST("/cards", d.traderHandler.AddCard)
			trader.PUT("/cards/:id", d.traderHandler.UpdateCard)
			trader.DELETE("/cards/:id", d.traderHandler.DeleteCard)
			trader.GET("/transactions", d.traderHandler.ListTransactions)
			trader.POST("/confirm-payment/:id", d.traderHandler.ConfirmPayment)
		}

		admin := api.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/settings", d.adminHandler.GetSettings)
			admin.PUT("/settings", d.adminHandler.UpdateSettings)

			admin.GET("/traders", d.adminHandler.ListTraders)
			admin.GET("/traders/:id", d.adminHandler.GetTrader)
			admin.POST("/traders/:id/add-balance", d.adminHandler.AddBalance)
			admin.PUT("/traders/:id/block", d.adminHandler.BlockTrader)

			admin.GET("/users", d.adminHandler.ListUsers)
			admin.POST("/users/create", d.adminHandler.CreateUser)
			admin.PUT("/users/:id/block", d.adminHandler.BlockUser)

			admin.GET("/transactions", d.adminHandler.ListTransactions)
			admin.POST("/transactions/:id/cancel", d.adminHandler.CancelTransaction)
		}
	}
}
