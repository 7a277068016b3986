package ports

import (
	"context"

	"github.com/peopledesk/directory-system/internal/core/domain"
)

type AuthService interface {
	// Login verifies the username/password pair and returns a signed
	// bearer token plus the authenticated account.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
