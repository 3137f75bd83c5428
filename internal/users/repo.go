package users

import "context"

// Repo defines persistence operations for users. Username and email lookups
// are case-insensitive.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByLogin(ctx context.Context, login string) (User, error)
}
