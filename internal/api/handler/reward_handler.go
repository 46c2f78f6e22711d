package handler

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/user"
	rewardsvc "github.com/stocky-rewards-ledger/internal/rewards/service"
)

// RewardHandler handles HTTP requests for reward posting
type RewardHandler struct {
	postingService rewardsvc.PostingService
	logger         *slog.Logger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(logger *slog.Logger, postingService rewardsvc.PostingService) *RewardHandler {
	return &RewardHandler{
		postingService: postingService,
		logger:         logger,
	}
}

// Post handles POST /reward. The Idempotency-Key header (or the
// idempotency_key body field as a fallback) makes the request safely
// repeatable: a replay returns the original response body with 200.
func (h *RewardHandler) Post(c *gin.Context) {
	var req PostRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	cmd := rewardsvc.PostRewardCommand{
		UserID:        userID,
		Symbol:        req.Symbol,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
	}
	if req.Fees != nil {
		cmd.Fees = reward.Fees{
			Brokerage: req.Fees.Brokerage,
			STT:       req.Fees.STT,
			GST:       req.Fees.GST,
			Other:     req.Fees.Other,
		}
	}
	if req.RewardedAt != nil {
		cmd.RewardedAt = *req.RewardedAt
	}

	result, err := h.postingService.PostReward(c.Request.Context(), cmd, idempotencyKey)
	if err != nil {
		var validationErr reward.ValidationError
		if errors.As(err, &validationErr) {
			RespondBadRequest(c, validationErr.Error())
			return
		}
		if errors.Is(err, user.ErrUserNotFound{}) {
			RespondNotFound(c, "User not found")
			return
		}
		var storageErr *rewardsvc.StorageError
		if errors.As(err, &storageErr) {
			h.logger.Error("Reward posting failed on storage", "user_id", req.UserID, "error", err)
			RespondServiceUnavailable(c, "")
			return
		}
		h.logger.Error("Failed to post reward", "user_id", req.UserID, "error", err)
		RespondInternalError(c)
		return
	}

	// The stored payload is returned byte-for-byte, so replays observe a
	// response identical to the first.
	if result.AlreadyProcessed {
		RespondOK(c, json.RawMessage(result.Payload))
		return
	}
	RespondCreated(c, json.RawMessage(result.Payload))
}
