package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/peopledesk/directory-system/internal/core/domain"
)

const requestTimeout = 10 * time.Second

// Client is the gateway to the backing store: one operation per
// directory action, each attaching the current credential, issuing the
// REST call, and returning either the result or a typed *Error.
//
// Obviously invalid input is rejected locally before any call is
// issued, and the client-side policy is consulted before mutations —
// both as conveniences; the server re-validates everything.
type Client struct {
	baseURL  string
	http     *http.Client
	creds    *Store
	validate *validator.Validate
	logger   zerolog.Logger
}

func New(baseURL string, creds *Store, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: requestTimeout},
		creds:    creds,
		validate: validator.New(),
		logger:   logger,
	}
}

// Creds exposes the credential store backing this client.
func (c *Client) Creds() *Store {
	return c.creds
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login authenticates and installs the returned credential. The derived
// session is returned so the caller can render role-gated affordances
// immediately.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, validationError("username and password are required")
	}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Username: username, Password: password}, &resp, false); err != nil {
		return Session{}, err
	}

	session, err := Derive(resp.Token)
	if err != nil {
		return Session{}, &Error{Kind: KindConflictOrServer, Message: "server returned an unusable token", Err: err}
	}

	c.creds.Set(resp.Token)
	c.logger.Debug().Str("username", username).Msg("logged in")
	return session, nil
}

// Logout discards the stored credential.
func (c *Client) Logout() {
	c.creds.Clear()
}

// CreateUserPayload is the full field set required to create an
// account. Role is honored by the server only for admin callers.
type CreateUserPayload struct {
	Username  string `json:"username"   validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Password  string `json:"password"   validate:"required"`
	Address   string `json:"address"    validate:"required"`
	Phone     string `json:"phone"      validate:"required"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=member admin"`
}

// Register self-registers a new account. No credential is attached; the
// server forces the member role (or admin for the first account ever).
func (c *Client) Register(ctx context.Context, payload CreateUserPayload) (*domain.User, error) {
	if err := c.checkPayload(payload); err != nil {
		return nil, err
	}

	var created domain.User
	if err := c.do(ctx, http.MethodPost, "/users", payload, &created, false); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListUsers fetches the roster for the given search term. An empty term
// means no filter. Accounts come back in store order.
func (c *Client) ListUsers(ctx context.Context, search string) ([]*domain.User, error) {
	path := "/users"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	var users []*domain.User
	if err := c.do(ctx, http.MethodGet, path, nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account as an admin. Missing fields are
// rejected locally before any call is issued.
func (c *Client) CreateUser(ctx context.Context, payload CreateUserPayload) (*domain.User, error) {
	if err := c.checkPayload(payload); err != nil {
		return nil, err
	}
	if err := c.authorize(nil, ActionCreate); err != nil {
		return nil, err
	}

	var created domain.User
	if err := c.do(ctx, http.MethodPost, "/users", payload, &created, true); err != nil {
		return nil, err
	}
	return &created, nil
}

// ProfilePayload carries the editable profile fields.
type ProfilePayload struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Address   string `json:"address"    validate:"required"`
	Phone     string `json:"phone"      validate:"required"`
}

func (c *Client) UpdateProfile(ctx context.Context, target *domain.User, payload ProfilePayload) (*domain.User, error) {
	if err := c.checkPayload(payload); err != nil {
		return nil, err
	}
	if err := c.authorize(target, ActionEditProfile); err != nil {
		return nil, err
	}

	var updated domain.User
	if err := c.do(ctx, http.MethodPut, "/users/"+target.ID+"/profile", payload, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes the target account. The irreversible-action
// confirmation step is the caller's responsibility; by the time this is
// invoked the user has already confirmed.
func (c *Client) DeleteUser(ctx context.Context, target *domain.User) error {
	if err := c.authorize(target, ActionDelete); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/users/"+target.ID, nil, nil, true)
}

// PromoteUser raises the target to admin. A target already at admin is
// a policy violation caught here, before any call is attempted.
func (c *Client) PromoteUser(ctx context.Context, target *domain.User) (*domain.User, error) {
	if err := c.authorize(target, ActionPromote); err != nil {
		return nil, err
	}

	var updated domain.User
	if err := c.do(ctx, http.MethodPut, "/users/"+target.ID+"/promote", nil, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DemoteUser(ctx context.Context, target *domain.User) (*domain.User, error) {
	if err := c.authorize(target, ActionDemote); err != nil {
		return nil, err
	}

	var updated domain.User
	if err := c.do(ctx, http.MethodPut, "/users/"+target.ID+"/demote", nil, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password,omitempty"`
	NewPassword string `json:"new_password"`
}

// ChangePassword applies the asymmetric password rules: changing your
// own password requires and forwards the old one; an admin resetting
// another account's password omits it from the request entirely. A
// newPassword/confirmNew mismatch never reaches the network.
func (c *Client) ChangePassword(ctx context.Context, target *domain.User, oldPassword, newPassword, confirmNew string) error {
	if newPassword == "" {
		return validationError("new password is required")
	}
	if newPassword != confirmNew {
		return validationError("passwords do not match")
	}
	if err := c.authorize(target, ActionChangePassword); err != nil {
		return err
	}

	session, ok := c.creds.Session()
	if !ok {
		return &Error{Kind: KindSessionExpired, Message: "session expired"}
	}

	req := changePasswordRequest{NewPassword: newPassword}
	if target.ID == session.SubjectID {
		if oldPassword == "" {
			return validationError("old password is required")
		}
		req.OldPassword = oldPassword
	}

	return c.do(ctx, http.MethodPut, "/users/"+target.ID+"/password", req, nil, true)
}

// authorize consults the client-side policy for a mutation. A denial
// here is a UX short-circuit, never an enforcement decision.
func (c *Client) authorize(target *domain.User, action Action) error {
	session, ok := c.creds.Session()
	if !ok {
		return &Error{Kind: KindSessionExpired, Message: "session expired"}
	}
	if !CanPerform(session, target, action) {
		return deniedError("you are not allowed to perform this action")
	}
	return nil
}

func (c *Client) checkPayload(payload any) error {
	err := c.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, field+" is required")
			case "oneof":
				msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
			default:
				msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
			}
		}
		return validationError(strings.Join(msgs, "; "))
	}
	return validationError(err.Error())
}

// do issues one request. A 401 on any authenticated call is the uniform
// expiry signal: the credential is cleared before the error is returned
// so the whole session transitions to unauthenticated.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "invalid request payload", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		// Read fresh per call: never reuse a token captured earlier.
		token := c.creds.Token()
		if token == "" {
			return &Error{Kind: KindSessionExpired, Message: "session expired"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Message: "directory server unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Message: "directory server unreachable", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		c.creds.Clear()
		return &Error{Kind: KindSessionExpired, Message: "session expired"}
	}
	if resp.StatusCode >= 400 {
		return &Error{Kind: KindConflictOrServer, Message: serverMessage(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindConflictOrServer, Message: "invalid server response", Err: err}
		}
	}
	return nil
}

// serverMessage extracts the store-provided message from an error
// payload, falling back to a generic one. Structural internals are
// never surfaced.
func serverMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return "request failed"
}
