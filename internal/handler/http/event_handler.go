// internal/handler/http/event_handler.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/models"
)

type EventHandler struct {
	logger *zap.Logger
}

func NewEventHandler(logger *zap.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

// ListPublic godoc
// @Summary Public event board
// @Tags events
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param status query string false "ACTIVE, UPCOMING or ENDED"
// @Success 200 {object} views.PublicEventsState
// @Failure 400 {object} models.HTTPError
// @Router /events [get]
func (h *EventHandler) ListPublic(c echo.Context) error {
	v, err := current(c).PublicEvents()
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

// GetEvent godoc
// @Summary Event detail
// @Description Loads one event; canManage is set for admins and the owner of the event's shop
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} views.EventDetailState
// @Failure 404 {object} views.EventDetailState
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	v, err := current(c).Event(id)
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := v.Load(ctx); err != nil {
		logFailure(h.logger, c, err)
		if !shown(err) {
			return toHTTPError(err)
		}
	}
	st := v.State()
	if st.NotFound {
		return c.JSON(http.StatusNotFound, st)
	}
	return c.JSON(http.StatusOK, st)
}

// ListManaged godoc
// @Summary Events managed by the current owner or admin
// @Tags manage
// @Produce json
// @Param page query int false "Zero-based page"
// @Param status query string false "Status filter"
// @Success 200 {object} views.ManageEventsState
// @Failure 401 {object} models.HTTPError
// @Failure 403 {object} models.HTTPError
// @Router /manage/events [get]
func (h *EventHandler) ListManaged(c echo.Context) error {
	v, err := current(c).ManageEvents()
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

type eventFormRequest struct {
	EventID int64 `json:"eventId"`
}

// OpenForm godoc
// @Summary Open an event form
// @Description eventId 0 opens the create form; otherwise the event must be on the current page
// @Tags manage
// @Accept json
// @Produce json
// @Param form body eventFormRequest true "Event to edit"
// @Success 200 {object} views.FormView
// @Failure 400 {object} models.HTTPError
// @Router /manage/events/form [post]
func (h *EventHandler) OpenForm(c echo.Context) error {
	var req eventFormRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	v, err := current(c).ManageEvents()
	if err != nil {
		return toHTTPError(err)
	}
	form, err := v.OpenEventForm(req.EventID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// Create godoc
// @Summary Create an event
// @Description Saves the event then uploads the files staged on the event-new form
// @Tags manage
// @Accept json
// @Produce json
// @Param event body models.EventInput true "Event"
// @Success 201 {object} views.EventOutcome
// @Failure 400 {object} models.HTTPError
// @Failure 409 {object} models.HTTPError
// @Router /manage/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	return h.submit(c, 0, http.StatusCreated)
}

// Update godoc
// @Summary Update an event
// @Description Saves the event, deletes the marked media and uploads the staged files
// @Tags manage
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param event body models.EventInput true "Event"
// @Success 200 {object} views.EventOutcome
// @Failure 400 {object} models.HTTPError
// @Failure 409 {object} models.HTTPError
// @Router /manage/events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.submit(c, id, http.StatusOK)
}

func (h *EventHandler) submit(c echo.Context, eventID int64, status int) error {
	var in models.EventInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	v, err := current(c).ManageEvents()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := v.SubmitEvent(ctx, eventID, in)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(status, out)
}

// Delete godoc
// @Summary Delete an event
// @Tags manage
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} views.ManageEventsState
// @Failure 404 {object} models.HTTPError
// @Router /manage/events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	v, err := current(c).ManageEvents()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := v.DeleteEvent(ctx, id); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, v.State())
}

type hideRequest struct {
	Notes string `json:"notes"`
}

// Hide godoc
// @Summary Hide an event from the public board
// @Tags manage
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param hide body hideRequest false "Moderation notes"
// @Success 200 {object} views.EventView
// @Failure 403 {object} models.HTTPError
// @Router /manage/events/{id}/hide [patch]
func (h *EventHandler) Hide(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req hideRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	v, err := current(c).ManageEvents()
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ev, err := v.HideEvent(ctx, id, req.Notes)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ev)
}
