// internal/handler/http/form_handler.go
package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/apierror"
)

// FormHandler edits the staged attachments of any open form by key.
type FormHandler struct {
	maxUpload int64
	logger    *zap.Logger
}

func NewFormHandler(maxUpload int64, logger *zap.Logger) *FormHandler {
	return &FormHandler{maxUpload: maxUpload, logger: logger}
}

// GetForm godoc
// @Summary Staged state of a form
// @Tags forms
// @Produce json
// @Param key path string true "Form key"
// @Success 200 {object} views.FormView
// @Failure 404 {object} models.HTTPError
// @Router /forms/{key} [get]
func (h *FormHandler) GetForm(c echo.Context) error {
	form, err := current(c).Forms().View(c.Param("key"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// StageFiles godoc
// @Summary Stage files on a form
// @Description The batch is accepted whole or rejected whole
// @Tags forms
// @Accept multipart/form-data
// @Produce json
// @Param key path string true "Form key"
// @Param files formData file true "Images or videos"
// @Success 200 {object} views.FormView
// @Failure 400 {object} models.HTTPError
// @Failure 404 {object} models.HTTPError
// @Failure 413 {object} models.HTTPError
// @Router /forms/{key}/files [post]
func (h *FormHandler) StageFiles(c echo.Context) error {
	files, err := readFiles(c, "files", h.maxUpload)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return badRequest("missing `files`")
	}
	form, err := current(c).Forms().Stage(c.Param("key"), files)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// UnstageFile godoc
// @Summary Remove a staged file
// @Tags forms
// @Produce json
// @Param key path string true "Form key"
// @Param index path int true "Staged file index"
// @Success 200 {object} views.FormView
// @Failure 400 {object} models.HTTPError
// @Router /forms/{key}/files/{index} [delete]
func (h *FormHandler) UnstageFile(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest("invalid `index`")
	}
	form, err := current(c).Forms().Unstage(c.Param("key"), index)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// ToggleMedia godoc
// @Summary Mark or unmark an existing attachment for deletion
// @Tags forms
// @Produce json
// @Param key path string true "Form key"
// @Param mediaId path int true "Media ID"
// @Success 200 {object} views.FormView
// @Failure 400 {object} models.HTTPError
// @Router /forms/{key}/media/{mediaId}/toggle [post]
func (h *FormHandler) ToggleMedia(c echo.Context) error {
	mediaID, err := pathID(c, "mediaId")
	if err != nil {
		return err
	}
	form, err := current(c).Forms().ToggleDelete(c.Param("key"), mediaID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// CancelForm godoc
// @Summary Discard a form and its staged files
// @Tags forms
// @Param key path string true "Form key"
// @Success 204
// @Router /forms/{key} [delete]
func (h *FormHandler) CancelForm(c echo.Context) error {
	current(c).Forms().Cancel(c.Param("key"))
	return c.NoContent(http.StatusNoContent)
}

// Preview godoc
// @Summary Local preview of a staged file
// @Tags forms
// @Produce octet-stream
// @Param id path string true "Preview ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.HTTPError
// @Router /previews/{id} [get]
func (h *FormHandler) Preview(c echo.Context) error {
	f, ok := current(c).Previews().Lookup(c.Param("id"))
	if !ok {
		return httpError(http.StatusNotFound, apierror.KindNotFound, "preview not found")
	}
	c.Response().Header().Set("Cache-Control", "private, no-store")
	return c.Blob(http.StatusOK, f.DetectContentType(), f.Content)
}
