// internal/handler/http/home_handler.go
package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HomeHandler struct {
	logger *zap.Logger
}

func NewHomeHandler(logger *zap.Logger) *HomeHandler {
	return &HomeHandler{logger: logger}
}

// GetHome godoc
// @Summary Home page
// @Description Loads every shop for the map and the top rated shops
// @Tags home
// @Produce json
// @Success 200 {object} views.HomeState
// @Failure 410 {object} models.HTTPError
// @Router /home [get]
func (h *HomeHandler) GetHome(c echo.Context) error {
	home, err := current(c).Home()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := home.Load(ctx); err != nil {
		logFailure(h.logger, c, err)
		if !shown(err) {
			return toHTTPError(err)
		}
	}
	return c.JSON(http.StatusOK, home.State())
}

// Search godoc
// @Summary Shop search suggestions
// @Description Records the typed query; suggestions are fetched once typing pauses unless immediate is set
// @Tags home
// @Produce json
// @Param q query string false "Search text; empty clears the suggestions"
// @Param immediate query bool false "Fetch now instead of after the pause"
// @Success 200 {object} views.HomeState
// @Success 202 {object} views.HomeState
// @Failure 400 {object} models.HTTPError
// @Router /home/search [get]
func (h *HomeHandler) Search(c echo.Context) error {
	home, err := current(c).Home()
	if err != nil {
		return toHTTPError(err)
	}

	q := c.QueryParam("q")
	var immediate bool
	if s := c.QueryParam("immediate"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return badRequest("invalid `immediate`")
		}
		immediate = v
	}

	if !immediate || q == "" {
		home.Search(q)
		if q == "" {
			return c.JSON(http.StatusOK, home.State())
		}
		return c.JSON(http.StatusAccepted, home.State())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := home.SearchNow(ctx, q); err != nil {
		logFailure(h.logger, c, err)
		if !shown(err) {
			return toHTTPError(err)
		}
	}
	return c.JSON(http.StatusOK, home.State())
}
