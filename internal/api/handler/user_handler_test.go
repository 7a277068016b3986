package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/peopledesk/directory-system/internal/core/domain"
	"github.com/peopledesk/directory-system/internal/core/ports"
)

const testSecret = "handler-test-secret"

type stubUserService struct {
	listFn           func(ctx context.Context, search string) ([]*domain.User, error)
	createFn         func(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, actor ports.Actor, id string, update domain.ProfileUpdate) (*domain.User, error)
	deleteFn         func(ctx context.Context, actor ports.Actor, id string) error
	promoteFn        func(ctx context.Context, actor ports.Actor, id string) (*domain.User, error)
	demoteFn         func(ctx context.Context, actor ports.Actor, id string) (*domain.User, error)
	changePasswordFn func(ctx context.Context, actor ports.Actor, id, oldPassword, newPassword string) error
}

func (s *stubUserService) List(ctx context.Context, search string) ([]*domain.User, error) {
	return s.listFn(ctx, search)
}

func (s *stubUserService) Create(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, actor ports.Actor, id string, update domain.ProfileUpdate) (*domain.User, error) {
	return s.updateProfileFn(ctx, actor, id, update)
}

func (s *stubUserService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubUserService) Promote(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
	return s.promoteFn(ctx, actor, id)
}

func (s *stubUserService) Demote(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
	return s.demoteFn(ctx, actor, id)
}

func (s *stubUserService) ChangePassword(ctx context.Context, actor ports.Actor, id, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, actor, id, oldPassword, newPassword)
}

func testContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asActor(c echo.Context, userID, username, role string) {
	c.Set("user_id", userID)
	c.Set("username", username)
	c.Set("role", role)
}

func handlerToken(t *testing.T, userID, username, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestUserHandler_List(t *testing.T) {
	stub := &stubUserService{
		listFn: func(ctx context.Context, search string) ([]*domain.User, error) {
			if search != "ali" {
				t.Fatalf("search term not forwarded: %q", search)
			}
			return []*domain.User{{ID: "u1", Username: "alice"}}, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, rec := testContext(t, http.MethodGet, "/users?search=ali", "")
	asActor(c, "u2", "bob", domain.RoleMember)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var users []*domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("unexpected roster: %+v", users)
	}
}

func TestUserHandler_List_WithoutClaims(t *testing.T) {
	stub := &stubUserService{
		listFn: func(ctx context.Context, search string) ([]*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, _ := testContext(t, http.MethodGet, "/users", "")

	err := handler.List(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestUserHandler_Create_SelfRegistration(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
			if actor != nil {
				t.Fatalf("self-registration must carry a nil actor, got %+v", actor)
			}
			return &domain.User{ID: "u1", Username: input.Username, Role: domain.RoleMember}, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	body := `{"username":"bob","first_name":"Bob","last_name":"Builder","password":"pw","address":"1 Main St","phone":"555-0100"}`
	c, rec := testContext(t, http.MethodPost, "/users", body)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserHandler_Create_AdminActorForwarded(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
			if actor == nil || actor.UserID != "admin-1" || actor.Role != domain.RoleAdmin {
				t.Fatalf("admin actor not forwarded: %+v", actor)
			}
			if input.Role != domain.RoleAdmin {
				t.Fatalf("requested role not forwarded: %q", input.Role)
			}
			return &domain.User{ID: "u2", Username: input.Username, Role: input.Role}, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	body := `{"username":"carol","first_name":"Carol","last_name":"Chief","password":"pw","address":"2 Oak Ave","phone":"555-0101","role":"admin"}`
	c, rec := testContext(t, http.MethodPost, "/users", body)
	c.Request().Header.Set("Authorization", "Bearer "+handlerToken(t, "admin-1", "alice", domain.RoleAdmin))

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserHandler_Create_InvalidTokenRejected(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	body := `{"username":"carol","first_name":"Carol","last_name":"Chief","password":"pw","address":"2 Oak Ave","phone":"555-0101"}`
	c, _ := testContext(t, http.MethodPost, "/users", body)
	// A present but broken credential is an error, not anonymous access.
	c.Request().Header.Set("Authorization", "Bearer garbage")

	err := handler.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestUserHandler_Create_MissingFields(t *testing.T) {
	stub := &stubUserService{
		createFn: func(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, rec := testContext(t, http.MethodPost, "/users", `{"username":"bob"}`)

	_ = handler.Create(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	stub := &stubUserService{
		updateProfileFn: func(ctx context.Context, actor ports.Actor, id string, update domain.ProfileUpdate) (*domain.User, error) {
			if actor.UserID != "u1" || id != "u1" {
				t.Fatalf("unexpected actor/id: %s %s", actor.UserID, id)
			}
			if update.FirstName != "Robert" {
				t.Fatalf("profile fields not forwarded: %+v", update)
			}
			return &domain.User{ID: id, FirstName: update.FirstName}, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	body := `{"first_name":"Robert","last_name":"Builder","address":"1 Main St","phone":"555-0100"}`
	c, rec := testContext(t, http.MethodPut, "/users/u1/profile", body)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	asActor(c, "u1", "bob", domain.RoleMember)

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, actor ports.Actor, id string) error {
			if actor.UserID != "admin-1" || id != "u2" {
				t.Fatalf("unexpected actor/id: %s %s", actor.UserID, id)
			}
			return nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, rec := testContext(t, http.MethodDelete, "/users/u2", "")
	c.SetParamNames("id")
	c.SetParamValues("u2")
	asActor(c, "admin-1", "alice", domain.RoleAdmin)

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_PromoteAndDemote(t *testing.T) {
	stub := &stubUserService{
		promoteFn: func(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleAdmin}, nil
		},
		demoteFn: func(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleMember}, nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, rec := testContext(t, http.MethodPut, "/users/u2/promote", "")
	c.SetParamNames("id")
	c.SetParamValues("u2")
	asActor(c, "admin-1", "alice", domain.RoleAdmin)
	if err := handler.Promote(c); err != nil {
		t.Fatalf("promote error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = testContext(t, http.MethodPut, "/users/u2/demote", "")
	c.SetParamNames("id")
	c.SetParamValues("u2")
	asActor(c, "admin-1", "alice", domain.RoleAdmin)
	if err := handler.Demote(c); err != nil {
		t.Fatalf("demote error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_ChangePassword_ForwardsBothPasswords(t *testing.T) {
	stub := &stubUserService{
		changePasswordFn: func(ctx context.Context, actor ports.Actor, id, oldPassword, newPassword string) error {
			if oldPassword != "oldpw" || newPassword != "newpw" {
				t.Fatalf("passwords not forwarded: %q %q", oldPassword, newPassword)
			}
			return nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	body := `{"old_password":"oldpw","new_password":"newpw"}`
	c, rec := testContext(t, http.MethodPut, "/users/u1/password", body)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	asActor(c, "u1", "bob", domain.RoleMember)

	if err := handler.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_ChangePassword_MissingNewPassword(t *testing.T) {
	stub := &stubUserService{
		changePasswordFn: func(ctx context.Context, actor ports.Actor, id, oldPassword, newPassword string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	handler := NewUserHandler(stub, testSecret)

	c, rec := testContext(t, http.MethodPut, "/users/u1/password", `{"old_password":"oldpw"}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	asActor(c, "u1", "bob", domain.RoleMember)

	_ = handler.ChangePassword(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
