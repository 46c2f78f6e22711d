package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with normalized fields", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil).Once()

		svc := NewUserService(repo)
		u, err := svc.CreateUser(ctx, "  Asha Rao  ", " Asha@Example.COM ")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, "Asha Rao", u.Name)
		assert.Equal(t, "asha@example.com", u.Email)
		repo.AssertExpectations(t)
	})

	t.Run("surfaces a duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).
			Return(user.ErrDuplicateEmail{Email: "asha@example.com"}).Once()

		svc := NewUserService(repo)
		_, err := svc.CreateUser(ctx, "Asha", "asha@example.com")
		var dupErr user.ErrDuplicateEmail
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "asha@example.com", dupErr.Email)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			uname string
			email string
			field string
		}{
			{"empty name", "  ", "asha@example.com", "name"},
			{"empty email", "Asha", "", "email"},
			{"email without at sign", "Asha", "asha.example.com", "email"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := new(MockUserRepository)
				svc := NewUserService(repo)

				_, err := svc.CreateUser(ctx, tt.uname, tt.email)
				var validationErr user.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.field, validationErr.Field)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	})
}
