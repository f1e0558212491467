package user

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for user identity persistence
type Repository interface {
	// FindByID looks a user up by ID
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// FindByEmail looks a user up by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Save inserts or updates a user
	Save(ctx context.Context, u User) error

	// Exists reports whether a user row exists
	Exists(ctx context.Context, id kernel.UserID) (bool, error)
}
