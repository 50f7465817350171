// internal/handler/http/owner_handler.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/models"
)

type OwnerHandler struct {
	logger *zap.Logger
}

func NewOwnerHandler(logger *zap.Logger) *OwnerHandler {
	return &OwnerHandler{logger: logger}
}

// GetShop godoc
// @Summary Owner dashboard
// @Description The logged in owner's shop with its reviews and events
// @Tags owner
// @Produce json
// @Param page query int false "Zero-based review page"
// @Success 200 {object} views.ShopDetailState
// @Failure 401 {object} models.HTTPError
// @Failure 403 {object} models.HTTPError
// @Router /owner/shop [get]
func (h *OwnerHandler) GetShop(c echo.Context) error {
	v, err := current(c).OwnedShop()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := v.Load(ctx, c.QueryParams()); err != nil {
		logFailure(h.logger, c, err)
		if !shown(err) {
			return toHTTPError(err)
		}
	}
	return c.JSON(http.StatusOK, v.State())
}

// OpenForm godoc
// @Summary Open the shop edit form
// @Tags owner
// @Produce json
// @Success 200 {object} views.FormView
// @Failure 400 {object} models.HTTPError
// @Router /owner/shop/form [post]
func (h *OwnerHandler) OpenForm(c echo.Context) error {
	v, err := current(c).OwnedShop()
	if err != nil {
		return toHTTPError(err)
	}
	form, err := v.OpenShopForm()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// UpdateShop godoc
// @Summary Save the shop
// @Description Updates the shop fields, deletes the marked photos and uploads the staged ones
// @Tags owner
// @Accept json
// @Produce json
// @Param shop body models.ShopInput true "Shop"
// @Success 200 {object} views.ShopOutcome
// @Failure 400 {object} models.HTTPError
// @Failure 409 {object} models.HTTPError
// @Router /owner/shop [put]
func (h *OwnerHandler) UpdateShop(c echo.Context) error {
	var in models.ShopInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	v, err := current(c).OwnedShop()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := v.SubmitShop(ctx, in)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, out)
}
