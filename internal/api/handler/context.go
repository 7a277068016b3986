package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peopledesk/directory-system/internal/core/ports"
)

// ctxActor extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: user_id and role
// must both be present (presence proves the middleware ran and the
// token carried a usable identity).
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	username, _ := c.Get("username").(string)
	return ports.Actor{UserID: userID, Username: username, Role: role}, nil
}
