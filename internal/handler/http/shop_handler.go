// internal/handler/http/shop_handler.go
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/models"
	"ramen-directory/internal/views"
)

type ShopHandler struct {
	logger *zap.Logger
}

func NewShopHandler(logger *zap.Logger) *ShopHandler {
	return &ShopHandler{logger: logger}
}

func (h *ShopHandler) view(c echo.Context) (*views.ShopDetail, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	v, err := current(c).Shop(id)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return v, nil
}

// GetShop godoc
// @Summary Shop detail
// @Description Loads the shop, one page of top-level reviews and the upcoming events
// @Tags shops
// @Produce json
// @Param id path int true "Shop ID"
// @Param page query int false "Zero-based review page"
// @Param sort query string false "newest, rating_desc or rating_asc"
// @Success 200 {object} views.ShopDetailState
// @Failure 404 {object} views.ShopDetailState
// @Router /shops/{id} [get]
func (h *ShopHandler) GetShop(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := v.Load(ctx, c.QueryParams()); err != nil {
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

// ToggleReplies godoc
// @Summary Expand or collapse the replies of a review
// @Tags shops
// @Produce json
// @Param id path int true "Shop ID"
// @Param reviewId path int true "Top-level review ID"
// @Success 200 {object} views.RepliesView
// @Failure 502 {object} models.HTTPError
// @Router /shops/{id}/reviews/{reviewId}/replies [post]
func (h *ShopHandler) ToggleReplies(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	reviewID, err := pathID(c, "reviewId")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	replies, err := v.ToggleReplies(ctx, reviewID)
	if err != nil {
		logFailure(h.logger, c, err)
		if !shown(err) {
			return toHTTPError(err)
		}
	}
	return c.JSON(http.StatusOK, replies)
}

type reviewFormRequest struct {
	ReviewID int64 `json:"reviewId"`
	ParentID int64 `json:"parentId"`
}

// OpenReviewForm godoc
// @Summary Open a review form
// @Description reviewId 0 opens a new review, or a new reply when parentId is set
// @Tags shops
// @Accept json
// @Produce json
// @Param id path int true "Shop ID"
// @Param form body reviewFormRequest true "Review to edit"
// @Success 200 {object} views.FormView
// @Failure 401 {object} models.HTTPError
// @Router /shops/{id}/reviews/form [post]
func (h *ShopHandler) OpenReviewForm(c echo.Context) error {
	var req reviewFormRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	v, err := h.view(c)
	if err != nil {
		return err
	}
	form, err := v.OpenReviewForm(req.ReviewID, req.ParentID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, form)
}

// CreateReview godoc
// @Summary Post a review or reply
// @Description A reply sets parentReviewId; files staged on the matching form are sent with it
// @Tags shops
// @Accept json
// @Produce json
// @Param id path int true "Shop ID"
// @Param review body models.ReviewInput true "Review"
// @Success 201 {object} views.ReviewOutcome
// @Failure 400 {object} models.HTTPError
// @Failure 401 {object} models.HTTPError
// @Router /shops/{id}/reviews [post]
func (h *ShopHandler) CreateReview(c echo.Context) error {
	return h.submit(c, 0, http.StatusCreated)
}

// UpdateReview godoc
// @Summary Edit a review or reply
// @Tags shops
// @Accept json
// @Produce json
// @Param id path int true "Shop ID"
// @Param reviewId path int true "Review ID"
// @Param review body models.ReviewInput true "Review"
// @Success 200 {object} views.ReviewOutcome
// @Failure 400 {object} models.HTTPError
// @Failure 403 {object} models.HTTPError
// @Router /shops/{id}/reviews/{reviewId} [put]
func (h *ShopHandler) UpdateReview(c echo.Context) error {
	reviewID, err := pathID(c, "reviewId")
	if err != nil {
		return err
	}
	return h.submit(c, reviewID, http.StatusOK)
}

func (h *ShopHandler) submit(c echo.Context, reviewID int64, status int) error {
	var in models.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	v, err := h.view(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := v.SubmitReview(ctx, reviewID, in)
	if err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(status, out)
}

// DeleteReview godoc
// @Summary Delete a review or reply
// @Tags shops
// @Produce json
// @Param id path int true "Shop ID"
// @Param reviewId path int true "Review ID"
// @Param parentId query int false "Parent review ID when deleting a reply"
// @Success 200 {object} views.ShopDetailState
// @Failure 401 {object} models.HTTPError
// @Failure 403 {object} models.HTTPError
// @Router /shops/{id}/reviews/{reviewId} [delete]
func (h *ShopHandler) DeleteReview(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	reviewID, err := pathID(c, "reviewId")
	if err != nil {
		return err
	}
	parentID, err := queryID(c, "parentId")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := v.DeleteReview(ctx, reviewID, parentID); err != nil {
		logFailure(h.logger, c, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, v.State())
}
