package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userRepo user.Repository
}

// NewUserService creates a new user service
func NewUserService(userRepo user.Repository) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
	}
}

// CreateUser validates and registers a new user
func (s *UserServiceImpl) CreateUser(ctx context.Context, name, email string) (*user.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, user.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, user.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}

	u := &user.User{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}
