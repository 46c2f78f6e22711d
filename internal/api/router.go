package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stocky-rewards-ledger/internal/api/handler"
	"github.com/stocky-rewards-ledger/internal/api/middleware"
)

// Pinger reports storage liveness for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	db Pinger,
	userHandler *handler.UserHandler,
	rewardHandler *handler.RewardHandler,
	portfolioHandler *handler.PortfolioHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	r.POST("/users", userHandler.Create)
	r.POST("/reward", rewardHandler.Post)
	r.GET("/portfolio/:userId", portfolioHandler.GetPortfolio)
	r.GET("/stats/:userId", portfolioHandler.GetStats)
	r.GET("/today-stocks/:userId", portfolioHandler.GetTodayRewards)
	r.GET("/historical-inr/:userId", portfolioHandler.GetHistoricalValuations)

	// Health check endpoint for monitoring; degrades when Postgres is down
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "timestamp": time.Now().UTC()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
