// internal/handler/http/admin_handler.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/session"
	"ramen-directory/internal/views"
	"ramen-directory/internal/workspace"
)

type AdminHandler struct {
	logger *zap.Logger
}

func NewAdminHandler(logger *zap.Logger) *AdminHandler {
	return &AdminHandler{logger: logger}
}

// RequireAdmin rejects workspaces not logged in as an admin.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := adminSession(current(c)); err != nil {
			return toHTTPError(err)
		}
		return next(c)
	}
}

func adminSession(ws *workspace.Workspace) error {
	claims, ok := ws.Session.Claims()
	if !ok {
		return views.ErrLoginRequired
	}
	if !claims.IsAdmin() {
		return views.ErrAdminOnly
	}
	return nil
}

// ListUsers godoc
// @Summary List accounts
// @Tags admin
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} models.HTTPError
// @Failure 403 {object} models.HTTPError
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := current(c).Admin().ListUsers(ctx)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get an account
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.HTTPError
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := current(c).Admin().GetUser(ctx, id)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole godoc
// @Summary Change the role of an account
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param role body roleRequest true "USER, SHOP_OWNER or ADMIN"
// @Success 200 {object} models.User
// @Failure 400 {object} models.HTTPError
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	switch req.Role {
	case session.RoleUser, session.RoleShopOwner, session.RoleAdmin:
	default:
		return badRequest("invalid `role`")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := current(c).Admin().UpdateUserRole(ctx, id, req.Role)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetEnabled godoc
// @Summary Enable or disable an account
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param enabled body enabledRequest true "New state"
// @Success 200 {object} models.User
// @Failure 400 {object} models.HTTPError
// @Router /admin/users/{id}/enabled [put]
func (h *AdminHandler) SetEnabled(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req enabledRequest
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return badRequest("missing `enabled`")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := current(c).Admin().SetUserEnabled(ctx, id, *req.Enabled)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete an account
// @Tags admin
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} models.HTTPError
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := current(c).Admin().DeleteUser(ctx, id); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
