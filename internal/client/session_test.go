package client

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peopledesk/directory-system/internal/core/domain"
)

func mintToken(t *testing.T, userID, username, role string) string {
	t.Helper()
	claims := jwt.MapClaims{}
	if userID != "" {
		claims["user_id"] = userID
	}
	if username != "" {
		claims["username"] = username
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestDerive_AdminToken(t *testing.T) {
	session, err := Derive(mintToken(t, "u1", "alice", domain.RoleAdmin))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if session.SubjectID != "u1" || session.Username != "alice" || session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.IsAdmin {
		t.Fatalf("expected IsAdmin")
	}
}

func TestDerive_MemberToken(t *testing.T) {
	session, err := Derive(mintToken(t, "u2", "bob", domain.RoleMember))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if session.IsAdmin {
		t.Fatalf("member token must not derive an admin session")
	}
}

func TestDerive_Unauthenticated(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"missing role":   mintToken(t, "u1", "alice", ""),
		"missing userid": mintToken(t, "", "alice", domain.RoleAdmin),
	}
	for name, credential := range cases {
		if _, err := Derive(credential); err != ErrUnauthenticated {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}
