package ports

import (
	"context"

	"github.com/peopledesk/directory-system/internal/core/domain"
)

// CreateUserInput carries everything needed to create an account.
// Role is advisory: it is honored only when the caller is an admin,
// forced to member for self-registration, and forced to admin for the
// very first account in the store.
type CreateUserInput struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
	Address   string
	Phone     string
	Role      string
}

// UserService implements the account roster and its mutations. The
// service enforces every permission rule itself; transport-level gates
// (middleware, client-side policy) are conveniences layered on top.
type UserService interface {
	List(ctx context.Context, search string) ([]*domain.User, error)
	Create(ctx context.Context, actor *Actor, input CreateUserInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor Actor, id string, update domain.ProfileUpdate) (*domain.User, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Promote(ctx context.Context, actor Actor, id string) (*domain.User, error)
	Demote(ctx context.Context, actor Actor, id string) (*domain.User, error)
	ChangePassword(ctx context.Context, actor Actor, id, oldPassword, newPassword string) error
}

// Actor identifies the authenticated caller of a mutation, as decoded
// from the bearer token by the auth middleware.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}
