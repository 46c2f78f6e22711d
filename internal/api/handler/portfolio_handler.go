package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stocky-rewards-ledger/internal/api/service"
	"github.com/stocky-rewards-ledger/internal/domain/reward"
)

// PortfolioHandler handles HTTP requests for the valuation read side
type PortfolioHandler struct {
	portfolioService service.PortfolioService
	logger           *slog.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(logger *slog.Logger, portfolioService service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		logger:           logger,
	}
}

// GetPortfolio handles GET /portfolio/:userId
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get portfolio", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, portfolio)
}

// GetStats handles GET /stats/:userId
func (h *PortfolioHandler) GetStats(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	stats, err := h.portfolioService.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get stats", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}
	if stats.TodayRewards == nil {
		stats.TodayRewards = []reward.SymbolQuantity{}
	}

	RespondOK(c, stats)
}

// GetTodayRewards handles GET /today-stocks/:userId
func (h *PortfolioHandler) GetTodayRewards(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	events, err := h.portfolioService.GetTodayRewards(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get today's rewards", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]RewardEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, mapEventToResponse(event))
	}
	RespondOK(c, responses)
}

// GetHistoricalValuations handles GET /historical-inr/:userId
func (h *PortfolioHandler) GetHistoricalValuations(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	snapshots, err := h.portfolioService.GetHistoricalValuations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get historical valuations", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]SnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		responses = append(responses, mapSnapshotToResponse(s))
	}
	RespondOK(c, responses)
}

func (h *PortfolioHandler) userIDParam(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("userId")
	userID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid user ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}
