// internal/handler/http/activity_handler.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	logger *zap.Logger
}

func NewActivityHandler(logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{logger: logger}
}

// List godoc
// @Summary Activity feed
// @Description type and q filter the loaded page without another fetch
// @Tags activities
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param type query string false "Activity type"
// @Param q query string false "Keyword"
// @Success 200 {object} views.ActivitiesState
// @Failure 400 {object} models.HTTPError
// @Router /activities [get]
func (h *ActivityHandler) List(c echo.Context) error {
	v, err := current(c).Activities()
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
