// Package user defines the user aggregate owning rewards and holdings.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines user persistence operations
type Repository interface {
	// Create inserts the user and fills in the generated CreatedAt.
	Create(ctx context.Context, u *User) error

	// ListIDs returns all user IDs; used by the snapshot worker.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ValidationError reports a malformed registration field. It is terminal:
// no storage is touched once validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// ErrUserNotFound indicates a referenced user does not exist.
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + e.UserID.String()
}

// Is implements the errors.Is interface for ErrUserNotFound
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	return t.UserID == uuid.Nil || t.UserID == e.UserID
}

// ErrDuplicateEmail indicates email uniqueness violation
type ErrDuplicateEmail struct {
	Email string
}

func (e ErrDuplicateEmail) Error() string {
	return "user with email already exists: " + e.Email
}
