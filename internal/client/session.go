package client

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peopledesk/directory-system/internal/core/domain"
)

// ErrUnauthenticated is returned by Derive when the credential is
// absent or cannot be decoded into a session.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the identity and role context derived from the bearer
// credential. It is never persisted independently: recompute it from
// the credential whenever the credential changes.
type Session struct {
	SubjectID string
	Username  string
	Role      string
	IsAdmin   bool
}

// Derive decodes the credential's claims into a Session. Pure and
// synchronous: no network call, no global state. The signature is not
// verified — the client has no key material, and the backing store
// independently validates the token on every call. Expiry enforcement
// is likewise the store's job, not this function's.
func Derive(credential string) (Session, error) {
	if credential == "" {
		return Session{}, ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return Session{}, ErrUnauthenticated
	}

	subjectID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	username, _ := claims["username"].(string)
	if subjectID == "" || role == "" {
		return Session{}, ErrUnauthenticated
	}

	return Session{
		SubjectID: subjectID,
		Username:  username,
		Role:      role,
		IsAdmin:   role == domain.RoleAdmin,
	}, nil
}
