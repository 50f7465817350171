package views

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/controller"
	"ramen-directory/internal/models"
)

const (
	reviewPageSize     = 5
	upcomingEventCount = 3
	upcomingStatuses   = "ACTIVE,UPCOMING"
)

// Review orderings offered by the shop page.
const (
	SortNewest     = "newest"
	SortRatingDesc = "rating_desc"
	SortRatingAsc  = "rating_asc"
)

var reviewSorts = map[string][2]string{
	SortNewest:     {"createdAt", models.SortDesc},
	SortRatingDesc: {"rating", models.SortDesc},
	SortRatingAsc:  {"rating", models.SortAsc},
}

// ShopDetail is the public page of one shop: its details, a page of
// reviews with expandable replies and the next upcoming events.
type ShopDetail struct {
	d       Deps
	shopID  int64
	reviews *controller.ListFetcher[models.Comment]
	replies *controller.ReplyCache
	forms   *Forms
	logger  *zap.Logger

	mu        sync.Mutex
	shop      *models.Shop
	shopErr   error
	notFound  bool
	events    []models.Event
	eventsErr error
	formKeys  map[string]struct{}
}

type RepliesView struct {
	Loaded   bool          `json:"loaded"`
	Loading  bool          `json:"loading"`
	Expanded bool          `json:"expanded"`
	Items    []CommentView `json:"items"`
	Error    string        `json:"error,omitempty"`
}

type ReviewThread struct {
	CommentView
	Replies *RepliesView `json:"replies,omitempty"`
}

type ShopDetailState struct {
	Shop           *ShopView      `json:"shop,omitempty"`
	NotFound       bool           `json:"notFound"`
	ShopError      string         `json:"shopError,omitempty"`
	Reviews        []ReviewThread `json:"reviews"`
	Page           int            `json:"page"`
	PageSize       int            `json:"pageSize"`
	TotalItems     int            `json:"totalItems"`
	TotalPages     int            `json:"totalPages"`
	Sort           string         `json:"sort"`
	ReviewsLoading bool           `json:"reviewsLoading"`
	ReviewsError   string         `json:"reviewsError,omitempty"`
	UpcomingEvents []EventView    `json:"upcomingEvents"`
	EventsError    string         `json:"eventsError,omitempty"`
	CanReview      bool           `json:"canReview"`
	Query          url.Values     `json:"query"`
}

// ReviewOutcome is the result of a review submit. Form is set while media
// changes are still pending.
type ReviewOutcome struct {
	Report controller.SubmitReport `json:"report"`
	Form   *FormView               `json:"form,omitempty"`
}

func NewShopDetail(d Deps, shopID int64) *ShopDetail {
	logger := d.logger().With(zap.Int64("shop_id", shopID))
	v := &ShopDetail{
		d:        d,
		shopID:   shopID,
		forms:    d.forms(),
		logger:   logger,
		formKeys: make(map[string]struct{}),
	}
	v.reviews = controller.NewListFetcher[models.Comment](v.fetchReviews, controller.ListOptions{
		Name:           "shop_reviews",
		AllowedSizes:   []int{reviewPageSize},
		MaxSize:        d.limits().PageSizeMax,
		SortKeys:       []string{"createdAt", "rating"},
		DefaultSort:    "createdAt",
		DefaultSortDir: models.SortDesc,
	}, logger)
	v.replies = controller.NewReplyCache(d.Reviews.ListReplies, logger)
	return v
}

func (v *ShopDetail) ShopID() int64 { return v.shopID }

func (v *ShopDetail) fetchReviews(ctx context.Context, q models.ListQuery) (models.ListPage[models.Comment], error) {
	return v.d.Reviews.ListShopReviews(ctx, v.shopID, q)
}

// Load fetches the shop, the review page from the URL query and the
// upcoming events concurrently. Each part settles on its own; only the shop
// error is returned. Loaded replies are dropped when the page or ordering
// changes.
func (v *ShopDetail) Load(ctx context.Context, query url.Values) error {
	q := reviewQuery(query)

	var g errgroup.Group
	g.Go(func() error {
		v.loadShop(ctx)
		return nil
	})
	g.Go(func() error {
		before := v.reviews.Query().Key()
		if err := v.reviews.Navigate(ctx, q); err != nil {
			v.logger.Warn("review page failed", zap.Error(err))
		}
		// Replies belong to the reviews of one page and ordering.
		if v.reviews.Query().Key() != before {
			v.replies.Reset()
		}
		return nil
	})
	g.Go(func() error {
		v.loadEvents(ctx)
		return nil
	})
	_ = g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shopErr
}

func reviewQuery(query url.Values) models.ListQuery {
	q := PageFromQuery(query)
	q.Filters = map[string]string{}
	if sort, ok := reviewSorts[query.Get("sort")]; ok {
		q.SortBy, q.SortDir = sort[0], sort[1]
	}
	return q
}

// ToggleReplies expands or collapses the replies of a review.
func (v *ShopDetail) ToggleReplies(ctx context.Context, parentID int64) (RepliesView, error) {
	e, err := v.replies.Toggle(ctx, parentID)
	return v.presentReplies(e), err
}

// OpenReviewForm opens the staged edit form of a new review (reviewID 0),
// a new reply (parentID set) or an existing review.
func (v *ShopDetail) OpenReviewForm(reviewID, parentID int64) (FormView, error) {
	if !v.d.Session.Authenticated() {
		return FormView{}, ErrLoginRequired
	}
	key, existing, err := v.reviewForm(reviewID, parentID)
	if err != nil {
		return FormView{}, err
	}
	v.track(key)
	form := v.forms.Open(key, v.d.limits().ReviewMedia, reviewID, existing)
	return presentForm(key, form, v.d.Resolver), nil
}

// ReviewFormKey names the form of a review, reply or new review.
func ReviewFormKey(shopID, reviewID, parentID int64) string {
	if reviewID != 0 {
		return fmt.Sprintf("review-%d", reviewID)
	}
	return fmt.Sprintf("review-new-%d-%d", shopID, parentID)
}

func (v *ShopDetail) reviewForm(reviewID, parentID int64) (string, []models.MediaRef, error) {
	if reviewID == 0 {
		return ReviewFormKey(v.shopID, 0, parentID), nil, nil
	}
	c, ok := v.findComment(reviewID)
	if !ok {
		return "", nil, &controller.ValidationError{Field: "reviewId", Message: fmt.Sprintf("review %d is not shown on this page", reviewID)}
	}
	return ReviewFormKey(v.shopID, reviewID, 0), c.Media, nil
}

// SubmitReview creates or updates a review or reply together with its
// staged media. Top-level review changes refresh the review page and the
// shop rating; reply changes adjust the parent's counter and reload its
// replies.
func (v *ShopDetail) SubmitReview(ctx context.Context, reviewID int64, in models.ReviewInput) (ReviewOutcome, error) {
	if !v.d.Session.Authenticated() {
		return ReviewOutcome{}, ErrLoginRequired
	}

	var parentID int64
	if reviewID != 0 {
		c, ok := v.findComment(reviewID)
		if !ok {
			return ReviewOutcome{}, &controller.ValidationError{Field: "reviewId", Message: fmt.Sprintf("review %d is not shown on this page", reviewID)}
		}
		if c.ParentID != nil {
			parentID = *c.ParentID
		}
	} else if in.ParentReviewID != nil {
		parentID = *in.ParentReviewID
	}
	if err := validateReview(in, parentID != 0); err != nil {
		return ReviewOutcome{}, err
	}
	if parentID != 0 {
		in.Rating = nil
		in.ParentReviewID = &parentID
	}

	key, existing, err := v.reviewForm(reviewID, parentID)
	if err != nil {
		return ReviewOutcome{}, err
	}
	v.track(key)
	form := v.forms.Open(key, v.d.limits().ReviewMedia, reviewID, existing)

	var created bool
	report, err := form.Submit(ctx, in, controller.Operations{
		Upsert: func(ctx context.Context, _ any) (int64, error) {
			if id := form.EntityID(); id != 0 {
				_, err := v.d.Reviews.UpdateReview(ctx, id, in)
				return id, err
			}
			c, err := v.d.Reviews.CreateReview(ctx, v.shopID, in, nil)
			created = err == nil
			return c.ID, err
		},
		DeleteMedia: v.d.Reviews.DeleteReviewMedia,
		UploadMedia: v.d.Reviews.AddReviewMedia,
	})
	if err != nil {
		return ReviewOutcome{}, err
	}

	switch {
	case parentID != 0:
		if created {
			v.reviews.UpdateItem(matchID(parentID), func(c *models.Comment) { c.ReplyCount++ })
		}
		if _, err := v.replies.Reload(ctx, parentID); err != nil {
			v.logger.Warn("reply reload failed", zap.Int64("parent_id", parentID), zap.Error(err))
		}
	case created:
		if err := v.reviews.AfterCreate(ctx, 1); err != nil {
			v.logger.Warn("review page reload failed", zap.Error(err))
		}
		v.loadShop(ctx)
	default:
		if err := v.reviews.Refresh(ctx); err != nil {
			v.logger.Warn("review page reload failed", zap.Error(err))
		}
		v.loadShop(ctx)
	}

	out := ReviewOutcome{Report: report}
	if report.Complete() {
		v.closeForm(key)
	} else {
		fv := presentForm(key, form, v.d.Resolver)
		out.Form = &fv
	}
	return out, nil
}

// DeleteReview removes a review (parentID 0) or a reply. A deleted reply is
// pruned from the loaded replies without a fetch.
func (v *ShopDetail) DeleteReview(ctx context.Context, reviewID, parentID int64) error {
	if !v.d.Session.Authenticated() {
		return ErrLoginRequired
	}
	if err := v.d.Reviews.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	v.closeForm(ReviewFormKey(v.shopID, reviewID, 0))

	if parentID != 0 {
		v.reviews.UpdateItem(matchID(parentID), func(c *models.Comment) {
			c.ReplyCount = max(0, c.ReplyCount-1)
		})
		v.replies.Prune(parentID, reviewID)
		return nil
	}

	v.replies.Invalidate(reviewID)
	if err := v.reviews.AfterRemove(ctx, 1); err != nil {
		v.logger.Warn("review page reload failed", zap.Error(err))
	}
	v.loadShop(ctx)
	return nil
}

func (v *ShopDetail) State() ShopDetailState {
	st := v.reviews.State()

	threads := make([]ReviewThread, 0, len(st.Items))
	for _, c := range st.Items {
		t := ReviewThread{CommentView: presentComment(c, v.d.Resolver)}
		if e := v.replies.Entry(c.ID); e.Loaded || e.Loading {
			rv := v.presentReplies(e)
			t.Replies = &rv
		}
		threads = append(threads, t)
	}

	out := ShopDetailState{
		Reviews:        threads,
		Page:           st.Query.Page,
		PageSize:       st.Query.Size,
		TotalItems:     st.TotalItems,
		TotalPages:     st.TotalPages,
		Sort:           sortOption(st.Query),
		ReviewsLoading: st.Loading,
		ReviewsError:   errMessage(st.Err),
		CanReview:      v.d.Session.Authenticated(),
		Query:          QueryWithPage(st.Query, st.Query.Page),
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.shop != nil {
		sv := presentShop(*v.shop, v.d.Resolver)
		out.Shop = &sv
	}
	out.NotFound = v.notFound
	out.ShopError = errMessage(v.shopErr)
	out.UpcomingEvents = presentEvents(v.events, v.d.Resolver)
	out.EventsError = errMessage(v.eventsErr)
	return out
}

// Shop returns the loaded shop.
func (v *ShopDetail) Shop() (models.Shop, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.shop == nil {
		return models.Shop{}, false
	}
	return *v.shop, true
}

// Close stops the controllers and discards the open review forms.
func (v *ShopDetail) Close() {
	v.reviews.Close()
	v.replies.Close()
	v.mu.Lock()
	keys := v.formKeys
	v.formKeys = make(map[string]struct{})
	v.mu.Unlock()
	for key := range keys {
		v.forms.Close(key)
	}
}

func (v *ShopDetail) loadShop(ctx context.Context) {
	shop, err := v.d.Shops.GetShop(ctx, v.shopID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.shopErr = err
	v.notFound = errors.Is(err, apierror.ErrNotFound)
	if err != nil {
		if v.notFound {
			v.shop = nil
		}
		v.logger.Warn("shop fetch failed", zap.Error(err))
		return
	}
	v.shop = &shop
}

func (v *ShopDetail) loadEvents(ctx context.Context) {
	page, err := v.d.Events.ListShopEvents(ctx, v.shopID, models.ListQuery{
		Size:    upcomingEventCount,
		SortBy:  "startDate",
		SortDir: models.SortAsc,
		Filters: map[string]string{"status": upcomingStatuses},
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.eventsErr = err
	if err != nil {
		v.logger.Warn("upcoming events fetch failed", zap.Error(err))
		return
	}
	v.events = page.Items
	if len(v.events) > upcomingEventCount {
		v.events = v.events[:upcomingEventCount]
	}
}

func (v *ShopDetail) findComment(id int64) (models.Comment, bool) {
	for _, c := range v.reviews.State().Items {
		if c.ID == id {
			return c, true
		}
		if e := v.replies.Entry(c.ID); e.Loaded {
			for _, r := range e.Items {
				if r.ID == id {
					return r, true
				}
			}
		}
	}
	return models.Comment{}, false
}

func (v *ShopDetail) presentReplies(e controller.ReplyEntry) RepliesView {
	return RepliesView{
		Loaded:   e.Loaded,
		Loading:  e.Loading,
		Expanded: e.Expanded,
		Items:    presentComments(e.Items, v.d.Resolver),
		Error:    errMessage(e.Err),
	}
}

func (v *ShopDetail) track(key string) {
	v.mu.Lock()
	v.formKeys[key] = struct{}{}
	v.mu.Unlock()
}

func (v *ShopDetail) closeForm(key string) {
	v.mu.Lock()
	delete(v.formKeys, key)
	v.mu.Unlock()
	v.forms.Close(key)
}

func validateReview(in models.ReviewInput, reply bool) error {
	if err := required("content", in.Content); err != nil {
		return err
	}
	if reply {
		return nil
	}
	if in.Rating == nil {
		return &controller.ValidationError{Field: "rating", Message: "is required"}
	}
	r := *in.Rating
	if r < 0.5 || r > 5 || r*2 != float64(int(r*2)) {
		return &controller.ValidationError{Field: "rating", Message: "must be between 0.5 and 5 in half steps"}
	}
	return nil
}

func sortOption(q models.ListQuery) string {
	for name, s := range reviewSorts {
		if s[0] == q.SortBy && s[1] == strings.ToUpper(q.SortDir) {
			return name
		}
	}
	return SortNewest
}

func matchID(id int64) func(models.Comment) bool {
	return func(c models.Comment) bool { return c.ID == id }
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr := apierror.From(err); apiErr != nil && apiErr.Status != 0 {
		return apiErr.Message
	}
	return err.Error()
}
