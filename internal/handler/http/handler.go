// Package http exposes the workspace views over JSON.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/controller"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/session"
	"ramen-directory/internal/views"
	"ramen-directory/internal/workspace"
)

// CookieName carries the workspace id.
const CookieName = "ramen_ws"

const (
	workspaceKey   = "workspace"
	requestTimeout = 60 * time.Second
)

// WorkspaceMiddleware attaches the caller's workspace to the request,
// creating one (and its cookie) on the first visit.
func WorkspaceMiddleware(m *workspace.Manager, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(CookieName); err == nil {
				id = cookie.Value
			}
			ws, created, err := m.GetOrCreate(id)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, models.HTTPError{
					Code:    http.StatusInternalServerError,
					Message: "could not start a session",
				})
			}
			if created {
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    ws.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(workspaceKey, ws)
			return next(c)
		}
	}
}

func current(c echo.Context) *workspace.Workspace {
	ws, _ := c.Get(workspaceKey).(*workspace.Workspace)
	return ws
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func pathID(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, models.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "invalid `" + name + "`",
			Kind:    apierror.KindInvalid.String(),
		})
	}
	return n, nil
}

func queryID(c echo.Context, name string) (int64, error) {
	if c.QueryParam(name) == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, models.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "invalid `" + name + "`",
			Kind:    apierror.KindInvalid.String(),
		})
	}
	return n, nil
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, models.HTTPError{
		Code:    http.StatusBadRequest,
		Message: message,
		Kind:    apierror.KindInvalid.String(),
	})
}

// toHTTPError maps view, controller and API failures onto status codes.
// Losing the session always carries the login redirect.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var verr *controller.ValidationError
	switch {
	case errors.As(err, &verr):
		return httpError(http.StatusBadRequest, apierror.KindInvalid, verr.Error())
	case errors.Is(err, views.ErrLoginRequired):
		return loginRequired(err.Error())
	case errors.Is(err, views.ErrNoShop), errors.Is(err, views.ErrAdminOnly):
		return httpError(http.StatusForbidden, apierror.KindForbidden, err.Error())
	case errors.Is(err, views.ErrNoForm):
		return httpError(http.StatusNotFound, apierror.KindNotFound, err.Error())
	case errors.Is(err, controller.ErrSubmitInProgress):
		return httpError(http.StatusConflict, apierror.KindConflict, err.Error())
	case errors.Is(err, workspace.ErrClosed), errors.Is(err, controller.ErrClosed):
		return httpError(http.StatusGone, apierror.KindTransient, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return httpError(http.StatusGatewayTimeout, apierror.KindTransient, "ramen API did not answer in time")
	}

	apiErr := apierror.From(err)
	switch kind := apiErr.Kind(); kind {
	case apierror.KindUnauthorized:
		return loginRequired(apiErr.Message)
	case apierror.KindForbidden:
		return httpError(http.StatusForbidden, kind, apiErr.Message)
	case apierror.KindNotFound:
		return httpError(http.StatusNotFound, kind, apiErr.Message)
	case apierror.KindConflict:
		return httpError(http.StatusConflict, kind, apiErr.Message)
	case apierror.KindInvalid:
		return httpError(http.StatusBadRequest, kind, apiErr.Message)
	default:
		return httpError(http.StatusBadGateway, kind, apiErr.Message)
	}
}

func httpError(code int, kind apierror.Kind, message string) *echo.HTTPError {
	return echo.NewHTTPError(code, models.HTTPError{Code: code, Message: message, Kind: kind.String()})
}

func loginRequired(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, models.HTTPError{
		Code:     http.StatusUnauthorized,
		Message:  message,
		Kind:     apierror.KindUnauthorized.String(),
		Redirect: session.LoginPath,
	})
}

func logFailure(logger *zap.Logger, c echo.Context, err error) {
	logger.Warn("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
}

// shown reports whether a view already carries err in its state, so the
// state can be returned as is.
func shown(err error) bool {
	var apiErr *apierror.Error
	return errors.As(err, &apiErr) && apiErr.Kind() != apierror.KindUnauthorized
}

// readFiles collects the uploads of one multipart field.
func readFiles(c echo.Context, field string, maxBytes int64) ([]media.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, badRequest("expected multipart/form-data")
	}
	headers := form.File[field]
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, models.HTTPError{
				Code:    http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("%s is larger than %d bytes", fh.Filename, maxBytes),
				Kind:    apierror.KindInvalid.String(),
			})
		}
		f, err := fh.Open()
		if err != nil {
			return nil, badRequest(fmt.Sprintf("cannot read %s", fh.Filename))
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, badRequest(fmt.Sprintf("cannot read %s", fh.Filename))
		}
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, nil
}
