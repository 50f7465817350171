// internal/handler/http/auth_handler.go
package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/models"
	"ramen-directory/internal/workspace"
)

type AuthHandler struct {
	maxUpload int64
	logger    *zap.Logger
}

func NewAuthHandler(maxUpload int64, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{maxUpload: maxUpload, logger: logger}
}

// SessionInfo describes who is logged in to the workspace.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Role          string     `json:"role,omitempty"`
	ShopID        *int64     `json:"shopId,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func sessionInfo(ws *workspace.Workspace) SessionInfo {
	claims, ok := ws.Session.Claims()
	if !ok {
		return SessionInfo{}
	}
	info := SessionInfo{
		Authenticated: true,
		Username:      claims.Username,
		Role:          claims.Role,
		ShopID:        claims.ShopID,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info
}

// Login godoc
// @Summary Log in
// @Description Exchanges credentials for a token kept in the workspace session
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Username or email and password"
// @Success 200 {object} SessionInfo
// @Failure 400 {object} models.HTTPError
// @Failure 401 {object} models.HTTPError
// @Failure 502 {object} models.HTTPError
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return badRequest("invalid request body")
	}
	if strings.TrimSpace(creds.UsernameOrEmail) == "" || creds.Password == "" {
		return badRequest("missing `usernameOrEmail` or `password`")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ws := current(c)
	if _, err := ws.Auth().Login(ctx, creds); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	ws.ResetAuthenticated()
	ws.Forms().CloseAll()
	return c.JSON(http.StatusOK, sessionInfo(ws))
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	current(c).Auth().Logout()
	return c.NoContent(http.StatusNoContent)
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionInfo
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionInfo(current(c)))
}

// SignupUser godoc
// @Summary Register a diner account
// @Tags auth
// @Accept json
// @Param account body models.SignupInput true "Account"
// @Success 201
// @Failure 400 {object} models.HTTPError
// @Failure 409 {object} models.HTTPError
// @Router /auth/signup/user [post]
func (h *AuthHandler) SignupUser(c echo.Context) error {
	var in models.SignupInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	if err := checkSignup(in); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := current(c).Auth().RegisterUser(ctx, in); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusCreated)
}

// SignupShop godoc
// @Summary Register a shop owner with the shop
// @Description shopData carries the account and shop as JSON; files are the initial shop photos
// @Tags auth
// @Accept multipart/form-data
// @Param shopData formData string true "models.ShopSignupInput as JSON"
// @Param files formData file false "Shop photos"
// @Success 201
// @Failure 400 {object} models.HTTPError
// @Failure 409 {object} models.HTTPError
// @Failure 413 {object} models.HTTPError
// @Router /auth/signup/shop [post]
func (h *AuthHandler) SignupShop(c echo.Context) error {
	raw := c.FormValue("shopData")
	if raw == "" {
		return badRequest("missing `shopData`")
	}
	var in models.ShopSignupInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return badRequest("invalid `shopData`")
	}
	if err := checkSignup(in.SignupInput); err != nil {
		return err
	}
	if strings.TrimSpace(in.Shop.Name) == "" || strings.TrimSpace(in.Shop.Address) == "" {
		return badRequest("shop name and address are required")
	}

	files, err := readFiles(c, "files", h.maxUpload)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := current(c).Auth().RegisterShopOwner(ctx, in, files); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func checkSignup(in models.SignupInput) error {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return badRequest("username, email and password are required")
	}
	return nil
}
