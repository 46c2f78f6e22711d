package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stocky-rewards-ledger/internal/api/service"
	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Create handles registration of a new user
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	u, err := h.userService.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		var validationErr user.ValidationError
		if errors.As(err, &validationErr) {
			RespondBadRequest(c, validationErr.Error())
			return
		}
		var duplicateErr user.ErrDuplicateEmail
		if errors.As(err, &duplicateErr) {
			h.logger.Warn("Attempt to register duplicate email", "email", duplicateErr.Email)
			RespondConflict(c, "User with this email already exists")
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	})
}
