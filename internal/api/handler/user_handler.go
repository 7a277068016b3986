package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/peopledesk/directory-system/internal/api/metrics"
	"github.com/peopledesk/directory-system/internal/api/middleware"
	"github.com/peopledesk/directory-system/internal/core/domain"
	"github.com/peopledesk/directory-system/internal/core/ports"
)

type UserHandler struct {
	users     ports.UserService
	jwtSecret string
}

func NewUserHandler(users ports.UserService, jwtSecret string) *UserHandler {
	return &UserHandler{users: users, jwtSecret: jwtSecret}
}

// List returns the roster, optionally filtered.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Param        search  query     string  false  "Filter on username, first or last name"
// @Success      200     {array}   domain.User
// @Failure      401     {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := ctxActor(c); err != nil {
		return err
	}

	search := c.QueryParam("search")
	users, err := h.users.List(c.Request().Context(), search)
	if err != nil {
		return err
	}

	metrics.RosterQueriesTotal.WithLabelValues(strconv.FormatBool(search != "")).Inc()
	return c.JSON(http.StatusOK, users)
}

// Create handles all three creation paths: bootstrap of the first
// account (becomes admin), admin-initiated creation (role settable),
// and unauthenticated self-registration (role forced to member). The
// route carries no auth middleware; an Authorization header, when
// present, must still be valid.
//
// @Summary      Create an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	var actor *ports.Actor
	if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		claims, err := middleware.ParseClaims(parts[1], h.jwtSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		userID, _ := claims["user_id"].(string)
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		actor = &ports.Actor{UserID: userID, Username: username, Role: role}
	}

	created, err := h.users.Create(c.Request().Context(), actor, ports.CreateUserInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Address:   req.Address,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("create", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("create", "success").Inc()
	return c.JSON(http.StatusCreated, created)
}

// UpdateProfile updates the editable profile fields of an account.
//
// @Summary      Update a profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Account ID"
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	updated, err := h.users.UpdateProfile(c.Request().Context(), actor, c.Param("id"), domainProfile(req))
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("update_profile", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("update_profile", "success").Inc()
	return c.JSON(http.StatusOK, updated)
}

// Delete removes an account.
//
// @Summary      Delete an account
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "Account ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		metrics.MutationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("delete", "success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully"})
}

// Promote raises an account to admin.
//
// @Summary      Promote an account to admin
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "Account ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /users/{id}/promote [put]
func (h *UserHandler) Promote(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	updated, err := h.users.Promote(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("promote", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("promote", "success").Inc()
	return c.JSON(http.StatusOK, updated)
}

// Demote lowers an admin account to member. Self-demotion is refused.
//
// @Summary      Demote an admin to member
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "Account ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /users/{id}/demote [put]
func (h *UserHandler) Demote(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	updated, err := h.users.Demote(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("demote", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("demote", "success").Inc()
	return c.JSON(http.StatusOK, updated)
}

// ChangePassword changes an account password. Self-service requires the
// old password; the admin reset path does not.
//
// @Summary      Change an account password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Account ID"
// @Param        body  body      changePasswordRequest  true  "Passwords"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.users.ChangePassword(c.Request().Context(), actor, c.Param("id"), req.OldPassword, req.NewPassword); err != nil {
		metrics.MutationsTotal.WithLabelValues("change_password", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("change_password", "success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated successfully"})
}

func domainProfile(req updateProfileRequest) domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
	}
}
