package views

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/controller"
	"ramen-directory/internal/media"
	"ramen-directory/internal/mocks"
	"ramen-directory/internal/models"
	"ramen-directory/internal/session"
)

func signedIn(t *testing.T, role string, shopID *int64) *session.Store {
	t.Helper()
	store := session.NewStore(nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "ichiran",
		Role:     role,
		ShopID:   shopID,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(token))
	return store
}

func ptr[T any](v T) *T { return &v }

type fakeDirectory struct {
	shops      *mocks.MockShopService
	reviews    *mocks.MockReviewService
	events     *mocks.MockEventService
	activities *mocks.MockActivityService
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		shops:      &mocks.MockShopService{},
		reviews:    &mocks.MockReviewService{},
		events:     &mocks.MockEventService{},
		activities: &mocks.MockActivityService{},
	}
}

func (f *fakeDirectory) deps(store *session.Store) Deps {
	if store == nil {
		store = session.NewStore(nil)
	}
	previews := media.NewPreviewRegistry("/previews/")
	resolver := media.NewResolver("http://api.test", "")
	return Deps{
		Shops:      f.shops,
		Reviews:    f.reviews,
		Events:     f.events,
		Activities: f.activities,
		Session:    store,
		Resolver:   resolver,
		Previews:   previews,
		Forms:      NewForms(previews, resolver, nil),
		Limits:     Limits{SearchDebounce: 20 * time.Millisecond},
	}
}

func TestPageFromQuery(t *testing.T) {
	q := PageFromQuery(url.Values{"page": {"3"}, "size": {"10"}, "sortBy": {"rating"}, "sortDir": {"ASC"}, "status": {"ACTIVE"}, "empty": {""}})
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 10, q.Size)
	assert.Equal(t, "rating", q.SortBy)
	assert.Equal(t, map[string]string{"status": "ACTIVE"}, q.Filters)

	assert.Equal(t, 0, PageFromQuery(url.Values{"page": {"-2"}}).Page)

	v := QueryWithPage(q, 4)
	assert.Equal(t, "4", v.Get("page"))
	assert.Equal(t, "ACTIVE", v.Get("status"))
}

func TestPublicEvents_LoadFromURL(t *testing.T) {
	f := newFakeDirectory()
	var got models.ListQuery
	f.events.ListPublicEventsFunc = func(_ context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
		got = q
		return models.ListPage[models.Event]{
			Items:      []models.Event{{ID: 1, Title: "Opening", Content: "**free** noodles", Media: []models.MediaRef{{ID: 1, URL: "events\\1.jpg"}}}},
			PageIndex:  q.Page,
			PageSize:   12,
			TotalItems: 30,
			TotalPages: 3,
		}, nil
	}

	v := NewPublicEvents(f.deps(nil))
	require.NoError(t, v.Load(context.Background(), url.Values{"page": {"1"}}))

	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 12, got.Size)
	assert.Equal(t, "startDate", got.SortBy)
	assert.Equal(t, models.SortAsc, got.SortDir)

	st := v.State()
	require.Len(t, st.Events, 1)
	assert.Contains(t, st.Events[0].HTML, "<strong>free</strong>")
	assert.Equal(t, "http://api.test/uploads/events/1.jpg", st.Events[0].Media[0].URL)
	assert.Equal(t, "1", st.Query.Get("page"))
	assert.Equal(t, 3, st.TotalPages)
}

func reviewPage(items ...models.Comment) func(context.Context, int64, models.ListQuery) (models.ListPage[models.Comment], error) {
	return func(_ context.Context, _ int64, q models.ListQuery) (models.ListPage[models.Comment], error) {
		return models.ListPage[models.Comment]{Items: items, PageIndex: q.Page, PageSize: q.Size, TotalItems: len(items), TotalPages: controller.TotalPages(len(items), q.Size)}, nil
	}
}

func TestShopDetail_LoadSettlesEachPart(t *testing.T) {
	f := newFakeDirectory()
	f.shops.GetShopFunc = func(context.Context, int64) (models.Shop, error) {
		return models.Shop{}, apierror.New(404, "shop not found")
	}
	f.reviews.ListShopReviewsFunc = reviewPage(models.Comment{ID: 1, Content: "<i>rich</i> broth", Rating: ptr(4.5)})
	var eventsQuery models.ListQuery
	f.events.ListShopEventsFunc = func(_ context.Context, _ int64, q models.ListQuery) (models.ListPage[models.Event], error) {
		eventsQuery = q
		return models.ListPage[models.Event]{}, errors.New("events down")
	}

	v := NewShopDetail(f.deps(nil), 9)
	err := v.Load(context.Background(), url.Values{"sort": {SortRatingAsc}})
	require.ErrorIs(t, err, apierror.ErrNotFound)

	st := v.State()
	assert.True(t, st.NotFound)
	assert.Nil(t, st.Shop)
	require.Len(t, st.Reviews, 1)
	assert.Equal(t, "rich broth", st.Reviews[0].Text)
	assert.Equal(t, SortRatingAsc, st.Sort)
	assert.Equal(t, "events down", st.EventsError)
	assert.False(t, st.CanReview)

	assert.Equal(t, 3, eventsQuery.Size)
	assert.Equal(t, "ACTIVE,UPCOMING", eventsQuery.Filters["status"])
}

func TestShopDetail_DeleteOnlyReply(t *testing.T) {
	f := newFakeDirectory()
	f.reviews.ListShopReviewsFunc = reviewPage(models.Comment{ID: 1, Content: "good", Rating: ptr(4.0), ReplyCount: 1})
	var replyFetches atomic.Int32
	f.reviews.ListRepliesFunc = func(_ context.Context, parentID int64) ([]models.Comment, error) {
		replyFetches.Add(1)
		return []models.Comment{{ID: 10, ParentID: &parentID, Content: "thanks"}}, nil
	}

	v := NewShopDetail(f.deps(signedIn(t, session.RoleUser, nil)), 9)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))

	rv, err := v.ToggleReplies(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rv.Items, 1)

	require.NoError(t, v.DeleteReview(ctx, 10, 1))
	st := v.State()
	assert.Equal(t, 0, st.Reviews[0].ReplyCount)

	_, err = v.ToggleReplies(ctx, 1)
	require.NoError(t, err)
	rv, err = v.ToggleReplies(ctx, 1)
	require.NoError(t, err)
	assert.True(t, rv.Expanded)
	assert.Empty(t, rv.Items)
	assert.Equal(t, int32(1), replyFetches.Load())
}

func TestShopDetail_NewOrderingDropsReplies(t *testing.T) {
	f := newFakeDirectory()
	f.reviews.ListShopReviewsFunc = reviewPage(models.Comment{ID: 1, Content: "good", Rating: ptr(4.0), ReplyCount: 1})
	var replyFetches atomic.Int32
	f.reviews.ListRepliesFunc = func(_ context.Context, parentID int64) ([]models.Comment, error) {
		replyFetches.Add(1)
		return []models.Comment{{ID: 10, ParentID: &parentID, Content: "thanks"}}, nil
	}

	v := NewShopDetail(f.deps(nil), 9)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))
	_, err := v.ToggleReplies(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, v.Load(ctx, nil))
	require.NotNil(t, v.State().Reviews[0].Replies)

	require.NoError(t, v.Load(ctx, url.Values{"sort": {SortRatingDesc}}))
	assert.Nil(t, v.State().Reviews[0].Replies)

	rv, err := v.ToggleReplies(ctx, 1)
	require.NoError(t, err)
	assert.True(t, rv.Expanded)
	assert.Equal(t, int32(2), replyFetches.Load())
}

func TestShopDetail_SubmitReviewValidation(t *testing.T) {
	f := newFakeDirectory()
	f.reviews.CreateReviewFunc = func(context.Context, int64, models.ReviewInput, []media.File) (models.Comment, error) {
		t.Fatal("invalid review reached the network")
		return models.Comment{}, nil
	}
	ctx := context.Background()

	anon := NewShopDetail(f.deps(nil), 9)
	_, err := anon.SubmitReview(ctx, 0, models.ReviewInput{Content: "hi", Rating: ptr(4.0)})
	assert.ErrorIs(t, err, ErrLoginRequired)

	v := NewShopDetail(f.deps(signedIn(t, session.RoleUser, nil)), 9)
	_, err = v.SubmitReview(ctx, 0, models.ReviewInput{Content: "no rating"})
	assert.ErrorIs(t, err, controller.ErrValidation)
	_, err = v.SubmitReview(ctx, 0, models.ReviewInput{Content: "odd", Rating: ptr(3.3)})
	assert.ErrorIs(t, err, controller.ErrValidation)
	_, err = v.SubmitReview(ctx, 0, models.ReviewInput{Content: "  ", Rating: ptr(3.0)})
	assert.ErrorIs(t, err, controller.ErrValidation)
}

func TestShopDetail_CreateReviewWithMedia(t *testing.T) {
	f := newFakeDirectory()
	var listCalls, shopCalls atomic.Int32
	f.reviews.ListShopReviewsFunc = func(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Comment], error) {
		listCalls.Add(1)
		return reviewPage()(ctx, shopID, q)
	}
	f.shops.GetShopFunc = func(_ context.Context, id int64) (models.Shop, error) {
		shopCalls.Add(1)
		return models.Shop{ID: id, Name: "Menya"}, nil
	}
	f.reviews.CreateReviewFunc = func(_ context.Context, shopID int64, in models.ReviewInput, files []media.File) (models.Comment, error) {
		assert.Equal(t, int64(9), shopID)
		assert.Empty(t, files)
		return models.Comment{ID: 55, Content: in.Content}, nil
	}
	var uploaded []media.File
	f.reviews.AddReviewMediaFunc = func(_ context.Context, reviewID int64, files []media.File) error {
		assert.Equal(t, int64(55), reviewID)
		uploaded = files
		return nil
	}

	d := f.deps(signedIn(t, session.RoleUser, nil))
	v := NewShopDetail(d, 9)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))

	form, err := v.OpenReviewForm(0, 0)
	require.NoError(t, err)
	_, err = d.Forms.Stage(form.Key, []media.File{{Name: "bowl.png", ContentType: "image/png", Content: []byte{1}}})
	require.NoError(t, err)

	out, err := v.SubmitReview(ctx, 0, models.ReviewInput{Content: "great", Rating: ptr(5.0)})
	require.NoError(t, err)
	assert.True(t, out.Report.Complete())
	assert.Nil(t, out.Form)
	assert.Len(t, uploaded, 1)
	assert.Equal(t, int32(2), listCalls.Load())
	assert.Equal(t, int32(2), shopCalls.Load())
	assert.Zero(t, d.Forms.Len())
	assert.Zero(t, d.Previews.Len())
}

func TestShopDetail_AddReplyBumpsCount(t *testing.T) {
	f := newFakeDirectory()
	f.reviews.ListShopReviewsFunc = reviewPage(models.Comment{ID: 1, Content: "good", Rating: ptr(4.0)})
	var replies []models.Comment
	var mu sync.Mutex
	f.reviews.ListRepliesFunc = func(context.Context, int64) ([]models.Comment, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.Comment(nil), replies...), nil
	}
	f.reviews.CreateReviewFunc = func(_ context.Context, _ int64, in models.ReviewInput, _ []media.File) (models.Comment, error) {
		require.NotNil(t, in.ParentReviewID)
		assert.Nil(t, in.Rating)
		mu.Lock()
		defer mu.Unlock()
		c := models.Comment{ID: 11, ParentID: in.ParentReviewID, Content: in.Content}
		replies = append(replies, c)
		return c, nil
	}

	v := NewShopDetail(f.deps(signedIn(t, session.RoleUser, nil)), 9)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))

	_, err := v.SubmitReview(ctx, 0, models.ReviewInput{Content: "agreed", Rating: ptr(1.0), ParentReviewID: ptr(int64(1))})
	require.NoError(t, err)

	st := v.State()
	assert.Equal(t, 1, st.Reviews[0].ReplyCount)
	require.NotNil(t, st.Reviews[0].Replies)
	assert.True(t, st.Reviews[0].Replies.Expanded)
	assert.Len(t, st.Reviews[0].Replies.Items, 1)
}

func TestOwnedShop_RequiresShop(t *testing.T) {
	f := newFakeDirectory()
	_, err := NewOwnedShop(f.deps(nil))
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = NewOwnedShop(f.deps(signedIn(t, session.RoleUser, nil)))
	assert.ErrorIs(t, err, ErrNoShop)

	v, err := NewOwnedShop(f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4)))))
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.ShopID())
}

func TestOwnedShop_SubmitShopKeepsFailedDeletions(t *testing.T) {
	f := newFakeDirectory()
	f.shops.GetShopFunc = func(_ context.Context, id int64) (models.Shop, error) {
		return models.Shop{ID: id, Name: "Menya", Media: []models.MediaRef{{ID: 1, URL: "a.jpg"}, {ID: 2, URL: "b.jpg"}}}, nil
	}
	f.shops.DeleteShopMediaFunc = func(_ context.Context, _, mediaID int64) error {
		if mediaID == 2 {
			return apierror.New(500, "storage")
		}
		return nil
	}

	d := f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4))))
	v, err := NewOwnedShop(d)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))

	form, err := v.OpenShopForm()
	require.NoError(t, err)
	assert.Equal(t, 10, form.Limit)
	for _, id := range []int64{1, 2} {
		_, err = d.Forms.ToggleDelete(form.Key, id)
		require.NoError(t, err)
	}

	out, err := v.SubmitShop(ctx, models.ShopInput{Name: "Menya", Address: "1-2-3 Shibuya"})
	require.NoError(t, err)
	assert.False(t, out.Report.Complete())
	assert.Equal(t, []int64{1}, out.Report.Deleted)
	require.NotNil(t, out.Form)
	assert.Equal(t, []int64{2}, out.Form.PendingIDs)
}

func TestManageEvents_Roles(t *testing.T) {
	f := newFakeDirectory()
	var adminQuery, ownerQuery models.ListQuery
	var ownerShop int64
	f.events.ListAdminEventsFunc = func(_ context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
		adminQuery = q
		return models.ListPage[models.Event]{}, nil
	}
	f.events.ListShopEventsFunc = func(_ context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Event], error) {
		ownerShop, ownerQuery = shopID, q
		return models.ListPage[models.Event]{}, nil
	}
	ctx := context.Background()

	admin, err := NewManageEvents(f.deps(signedIn(t, session.RoleAdmin, nil)))
	require.NoError(t, err)
	require.NoError(t, admin.Load(ctx, url.Values{"status": {"HIDDEN"}, "page": {"2"}}))
	assert.Equal(t, "createdAt", adminQuery.SortBy)
	assert.Equal(t, models.SortDesc, adminQuery.SortDir)
	assert.Equal(t, "HIDDEN", adminQuery.Filters["status"])

	require.NoError(t, admin.SetStatusFilter(ctx, "ACTIVE"))
	assert.Equal(t, 0, adminQuery.Page)
	assert.ErrorIs(t, admin.SetStatusFilter(ctx, "LOST"), controller.ErrValidation)

	_, err = admin.OpenEventForm(0)
	assert.ErrorIs(t, err, controller.ErrValidation)

	owner, err := NewManageEvents(f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4)))))
	require.NoError(t, err)
	require.NoError(t, owner.Load(ctx, nil))
	assert.Equal(t, int64(4), ownerShop)
	assert.Equal(t, "startDate", ownerQuery.SortBy)
	_, err = owner.HideEvent(ctx, 1, "spam")
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = NewManageEvents(f.deps(signedIn(t, session.RoleUser, nil)))
	assert.ErrorIs(t, err, ErrNoShop)
}

func TestManageEvents_UpsertFailureSkipsMedia(t *testing.T) {
	f := newFakeDirectory()
	f.events.ListShopEventsFunc = func(_ context.Context, _ int64, q models.ListQuery) (models.ListPage[models.Event], error) {
		return models.ListPage[models.Event]{Items: []models.Event{{ID: 3, Title: "Old", Media: []models.MediaRef{{ID: 8}}}}, TotalItems: 1, TotalPages: 1}, nil
	}
	f.events.UpdateEventFunc = func(context.Context, int64, models.EventInput) (models.Event, error) {
		return models.Event{}, apierror.New(400, "bad dates")
	}
	f.events.DeleteEventMediaFunc = func(context.Context, int64, int64) error {
		t.Fatal("media deleted after failed update")
		return nil
	}
	f.events.AddEventMediaFunc = func(context.Context, int64, []media.File) error {
		t.Fatal("media uploaded after failed update")
		return nil
	}

	d := f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4))))
	v, err := NewManageEvents(d)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, nil))

	form, err := v.OpenEventForm(3)
	require.NoError(t, err)
	_, err = d.Forms.ToggleDelete(form.Key, 8)
	require.NoError(t, err)
	_, err = d.Forms.Stage(form.Key, []media.File{{Name: "clip.mp4", ContentType: "video/mp4", Content: []byte{0}}})
	require.NoError(t, err)

	_, err = v.SubmitEvent(ctx, 3, models.EventInput{Title: "New", Content: "body"})
	require.ErrorIs(t, err, apierror.ErrInvalid)

	fv, err := d.Forms.View(form.Key)
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, fv.PendingIDs)
	assert.Len(t, fv.StagedFiles, 1)
}

func TestManageEvents_ResubmitAfterUploadFailureUpdates(t *testing.T) {
	f := newFakeDirectory()
	var creates, uploads int
	var updated []int64
	f.events.CreateEventFunc = func(_ context.Context, shopID int64, in models.EventInput, _ []media.File) (models.Event, error) {
		creates++
		return models.Event{ID: 55, ShopID: shopID, Title: in.Title}, nil
	}
	f.events.UpdateEventFunc = func(_ context.Context, id int64, in models.EventInput) (models.Event, error) {
		updated = append(updated, id)
		return models.Event{ID: id, Title: in.Title}, nil
	}
	f.events.AddEventMediaFunc = func(_ context.Context, id int64, _ []media.File) error {
		uploads++
		assert.Equal(t, int64(55), id)
		if uploads == 1 {
			return apierror.New(503, "storage down")
		}
		return nil
	}

	d := f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4))))
	v, err := NewManageEvents(d)
	require.NoError(t, err)
	ctx := context.Background()

	form, err := v.OpenEventForm(0)
	require.NoError(t, err)
	_, err = d.Forms.Stage(form.Key, []media.File{{Name: "a.png", ContentType: "image/png", Content: []byte{0x89}}})
	require.NoError(t, err)

	first, err := v.SubmitEvent(ctx, 0, models.EventInput{Title: "T", Content: "body"})
	require.NoError(t, err)
	require.NotNil(t, first.Form)
	assert.Equal(t, int64(55), first.Report.EntityID)

	second, err := v.SubmitEvent(ctx, 0, models.EventInput{Title: "T fixed typo", Content: "body"})
	require.NoError(t, err)
	assert.Nil(t, second.Form)
	assert.Equal(t, int64(55), second.Report.EntityID)
	assert.Equal(t, 1, creates)
	assert.Equal(t, []int64{55}, updated)
	assert.Equal(t, 1, second.Report.Uploaded)
}

func TestShopDetail_ResubmitAfterUploadFailureUpdates(t *testing.T) {
	f := newFakeDirectory()
	var creates int
	var updated []int64
	f.reviews.CreateReviewFunc = func(_ context.Context, _ int64, in models.ReviewInput, _ []media.File) (models.Comment, error) {
		creates++
		return models.Comment{ID: 90, Content: in.Content}, nil
	}
	f.reviews.UpdateReviewFunc = func(_ context.Context, id int64, in models.ReviewInput) (models.Comment, error) {
		updated = append(updated, id)
		return models.Comment{ID: id, Content: in.Content}, nil
	}
	f.reviews.AddReviewMediaFunc = func(context.Context, int64, []media.File) error {
		return errors.New("connection reset")
	}

	d := f.deps(signedIn(t, session.RoleUser, nil))
	v := NewShopDetail(d, 1)
	ctx := context.Background()

	form, err := v.OpenReviewForm(0, 0)
	require.NoError(t, err)
	_, err = d.Forms.Stage(form.Key, []media.File{{Name: "a.png", ContentType: "image/png", Content: []byte{0x89}}})
	require.NoError(t, err)

	_, err = v.SubmitReview(ctx, 0, models.ReviewInput{Content: "good", Rating: ptr(4.5)})
	require.NoError(t, err)
	out, err := v.SubmitReview(ctx, 0, models.ReviewInput{Content: "very good", Rating: ptr(4.5)})
	require.NoError(t, err)

	assert.Equal(t, 1, creates)
	assert.Equal(t, []int64{90}, updated)
	require.NotNil(t, out.Form)
	assert.Len(t, out.Form.StagedFiles, 1)
}

func TestEventDetail(t *testing.T) {
	f := newFakeDirectory()
	f.events.GetEventFunc = func(_ context.Context, id int64) (models.Event, error) {
		if id == 404 {
			return models.Event{}, fmt.Errorf("get event %d: %w", id, apierror.New(404, "gone"))
		}
		return models.Event{ID: id, ShopID: 4, Title: "Shio week", Content: "body", AdminNotes: "hidden once"}, nil
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		store     *session.Store
		canManage bool
	}{
		{"anonymous", nil, false},
		{"diner", signedIn(t, session.RoleUser, nil), false},
		{"owner of another shop", signedIn(t, session.RoleShopOwner, ptr(int64(5))), false},
		{"owner of the shop", signedIn(t, session.RoleShopOwner, ptr(int64(4))), true},
		{"admin", signedIn(t, session.RoleAdmin, nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewEventDetail(f.deps(tt.store), 1)
			require.NoError(t, v.Load(ctx))
			st := v.State()
			require.NotNil(t, st.Event)
			assert.False(t, st.NotFound)
			assert.Equal(t, tt.canManage, st.CanManage)
			if tt.canManage {
				assert.Equal(t, "hidden once", st.Event.AdminNotes)
			} else {
				assert.Empty(t, st.Event.AdminNotes)
			}
		})
	}

	v := NewEventDetail(f.deps(nil), 404)
	require.ErrorIs(t, v.Load(ctx), apierror.ErrNotFound)
	st := v.State()
	assert.True(t, st.NotFound)
	assert.Nil(t, st.Event)
}

func TestManageEvents_DeleteClamps(t *testing.T) {
	f := newFakeDirectory()
	total := 11
	var pages []int
	f.events.ListShopEventsFunc = func(_ context.Context, _ int64, q models.ListQuery) (models.ListPage[models.Event], error) {
		pages = append(pages, q.Page)
		return models.ListPage[models.Event]{Items: []models.Event{{ID: 1}}, PageIndex: q.Page, TotalItems: total, TotalPages: controller.TotalPages(total, q.Size)}, nil
	}
	v, err := NewManageEvents(f.deps(signedIn(t, session.RoleShopOwner, ptr(int64(4)))))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, url.Values{"page": {"1"}}))

	total = 10
	require.NoError(t, v.DeleteEvent(ctx, 1))
	assert.Equal(t, []int{1, 0}, pages)
}

func TestActivities_LocalFilter(t *testing.T) {
	f := newFakeDirectory()
	var calls atomic.Int32
	f.activities.ListActivitiesFunc = func(_ context.Context, page, size int) (models.ListPage[models.Activity], error) {
		calls.Add(1)
		return models.ListPage[models.Activity]{Items: []models.Activity{
			{Type: "EVENT", Title: "Miso fair", ShopName: "Menya"},
			{Type: "REVIEW", Content: "best miso in town", ShopName: "Ichiran"},
			{Type: "REVIEW", Content: "too salty", ShopName: "Menya"},
		}, PageIndex: page, PageSize: size, TotalItems: 3, TotalPages: 1}, nil
	}

	v := NewActivities(f.deps(nil))
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, url.Values{"size": {"20"}}))
	assert.Len(t, v.State().Items, 3)

	v.SetLocalFilter("review", "")
	assert.Len(t, v.State().Items, 2)

	v.SetLocalFilter("", "MISO")
	st := v.State()
	assert.Len(t, st.Items, 2)
	assert.Equal(t, "MISO", st.Query.Get("q"))
	assert.Equal(t, int32(1), calls.Load())

	assert.ErrorIs(t, v.SetPageSize(ctx, 50), controller.ErrValidation)
}

func TestHome_MapWalksEveryPage(t *testing.T) {
	f := newFakeDirectory()
	const total = 70
	var pages []int
	f.shops.ListShopsFunc = func(_ context.Context, q models.ListQuery) (models.ListPage[models.Shop], error) {
		pages = append(pages, q.Page)
		var items []models.Shop
		for i := q.Page * q.Size; i < total && i < (q.Page+1)*q.Size; i++ {
			items = append(items, models.Shop{ID: int64(i + 1)})
		}
		return models.ListPage[models.Shop]{Items: items, PageIndex: q.Page, PageSize: q.Size, TotalItems: total, TotalPages: controller.TotalPages(total, q.Size)}, nil
	}

	v := NewHome(f.deps(nil))
	defer v.Close()
	require.NoError(t, v.Load(context.Background()))

	assert.Equal(t, []int{0, 1, 2}, pages)
	assert.Len(t, v.State().MapShops, total)
}

func TestHome_DebouncedSearch(t *testing.T) {
	f := newFakeDirectory()
	var mu sync.Mutex
	var queries []string
	f.shops.SearchShopsFunc = func(_ context.Context, q string) ([]models.Shop, error) {
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		return []models.Shop{{ID: 1, Name: "Ramen " + q}}, nil
	}
	f.shops.TopShopsFunc = func(_ context.Context, limit int) ([]models.Shop, error) {
		assert.Equal(t, 5, limit)
		return []models.Shop{{ID: 2}}, nil
	}

	v := NewHome(f.deps(nil))
	defer v.Close()
	require.NoError(t, v.Load(context.Background()))
	assert.Len(t, v.State().TopShops, 1)

	for _, q := range []string{"t", "to", "ton"} {
		v.Search(q)
	}
	assert.Eventually(t, func() bool { return len(v.State().Suggestions) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"ton"}, queries)
	mu.Unlock()

	v.Search("")
	assert.Empty(t, v.State().Suggestions)
}
