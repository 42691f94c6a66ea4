package repository

import (
	"context"

	"cookie-auth/internal/model"
)

// UserStore is the credential store contract. Implementations must enforce
// email uniqueness atomically: of two concurrent Create calls with the same
// email exactly one succeeds and the other returns model.ErrUserAlreadyExists.
type UserStore interface {
	// FindByID returns model.ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id string) (model.User, error)

	// FindByEmail matches case-insensitively and returns model.ErrUserNotFound on a miss.
	FindByEmail(ctx context.Context, email string) (model.User, error)

	// Create assigns the id and timestamps and returns the stored record.
	Create(ctx context.Context, u model.User) (model.User, error)

	UpdateRole(ctx context.Context, id string, role model.Role) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

var (
	_ UserStore = (*UserRepository)(nil)
	_ UserStore = (*MongoUserRepository)(nil)
	_ UserStore = (*MemoryUserRepository)(nil)
	_ UserStore = (*MockUserStore)(nil)
)
