package views

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"go.uber.org/zap"

	"ramen-directory/internal/controller"
	"ramen-directory/internal/models"
)

const manageEventsPageSize = 10

// Event statuses an admin can filter by.
var EventStatuses = []string{"ACTIVE", "UPCOMING", "EXPIRED", "HIDDEN", "DRAFT"}

// ManageEvents is the event management page. Admins see every event,
// newest first, and may hide them; owners see their shop's events by start
// date.
type ManageEvents struct {
	d      Deps
	admin  bool
	shopID int64
	list   *controller.ListFetcher[models.Event]
	forms  *Forms
	logger *zap.Logger

	mu   sync.Mutex
	keys map[string]struct{}
}

type ManageEventsState struct {
	Admin        bool        `json:"admin"`
	ShopID       int64       `json:"shopId,omitempty"`
	Events       []EventView `json:"events"`
	Page         int         `json:"page"`
	PageSize     int         `json:"pageSize"`
	TotalItems   int         `json:"totalItems"`
	TotalPages   int         `json:"totalPages"`
	StatusFilter string      `json:"statusFilter"`
	Loading      bool        `json:"loading"`
	Error        string      `json:"error,omitempty"`
	Query        url.Values  `json:"query"`
}

type EventOutcome struct {
	Report controller.SubmitReport `json:"report"`
	Form   *FormView               `json:"form,omitempty"`
}

func NewManageEvents(d Deps) (*ManageEvents, error) {
	claims, ok := d.Session.Claims()
	if !ok {
		return nil, ErrLoginRequired
	}
	v := &ManageEvents{
		d:      d,
		admin:  claims.IsAdmin(),
		forms:  d.forms(),
		keys:   make(map[string]struct{}),
		logger: d.logger().With(zap.String("view", "manage_events")),
	}

	opts := controller.ListOptions{
		Name:           "manage_events",
		AllowedSizes:   []int{manageEventsPageSize},
		MaxSize:        d.limits().PageSizeMax,
		SortKeys:       []string{"createdAt", "startDate"},
		DefaultSortDir: models.SortDesc,
	}
	switch {
	case v.admin:
		opts.DefaultSort = "createdAt"
		v.list = controller.NewListFetcher[models.Event](d.Events.ListAdminEvents, opts, v.logger)
	case claims.IsShopOwner() && claims.ShopID != nil:
		v.shopID = *claims.ShopID
		opts.DefaultSort = "startDate"
		v.list = controller.NewListFetcher[models.Event](func(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
			return d.Events.ListShopEvents(ctx, v.shopID, q)
		}, opts, v.logger)
	default:
		return nil, ErrNoShop
	}
	return v, nil
}

func (v *ManageEvents) Admin() bool { return v.admin }

func (v *ManageEvents) Load(ctx context.Context, query url.Values) error {
	q := PageFromQuery(query)
	filters := map[string]string{}
	if status := q.Filters["status"]; status != "" {
		filters["status"] = status
	}
	q.Filters = filters
	return v.list.Navigate(ctx, q)
}

func (v *ManageEvents) SetPage(ctx context.Context, page int) error {
	return v.list.SetPage(ctx, page)
}

// SetStatusFilter narrows the list to one status; "" shows all.
func (v *ManageEvents) SetStatusFilter(ctx context.Context, status string) error {
	if status != "" && !slices.Contains(EventStatuses, status) {
		return &controller.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	return v.list.SetFilter(ctx, "status", status)
}

func EventFormKey(eventID int64) string {
	if eventID == 0 {
		return "event-new"
	}
	return fmt.Sprintf("event-%d", eventID)
}

// OpenEventForm opens the create form (eventID 0) or the edit form of an
// event on the current page.
func (v *ManageEvents) OpenEventForm(eventID int64) (FormView, error) {
	key, existing, err := v.eventForm(eventID)
	if err != nil {
		return FormView{}, err
	}
	v.mu.Lock()
	v.keys[key] = struct{}{}
	v.mu.Unlock()
	form := v.forms.Open(key, v.d.limits().EventMedia, eventID, existing)
	return presentForm(key, form, v.d.Resolver), nil
}

func (v *ManageEvents) eventForm(eventID int64) (string, []models.MediaRef, error) {
	if eventID == 0 {
		if v.shopID == 0 {
			return "", nil, &controller.ValidationError{Field: "shopId", Message: "only shop owners can create events"}
		}
		return EventFormKey(0), nil, nil
	}
	for _, e := range v.list.State().Items {
		if e.ID == eventID {
			return EventFormKey(eventID), e.Media, nil
		}
	}
	return "", nil, &controller.ValidationError{Field: "eventId", Message: fmt.Sprintf("event %d is not shown on this page", eventID)}
}

// SubmitEvent creates or updates an event with its staged media.
func (v *ManageEvents) SubmitEvent(ctx context.Context, eventID int64, in models.EventInput) (EventOutcome, error) {
	if err := validateEvent(in); err != nil {
		return EventOutcome{}, err
	}
	if _, err := v.OpenEventForm(eventID); err != nil {
		return EventOutcome{}, err
	}
	key := EventFormKey(eventID)
	form, err := v.forms.Get(key)
	if err != nil {
		return EventOutcome{}, err
	}

	var created bool
	report, err := form.Submit(ctx, in, controller.Operations{
		Upsert: func(ctx context.Context, _ any) (int64, error) {
			// A create form whose media failed keeps the new id; later
			// submits of it are updates.
			if id := form.EntityID(); id != 0 {
				_, err := v.d.Events.UpdateEvent(ctx, id, in)
				return id, err
			}
			ev, err := v.d.Events.CreateEvent(ctx, v.shopID, in, nil)
			created = err == nil
			return ev.ID, err
		},
		DeleteMedia: v.d.Events.DeleteEventMedia,
		UploadMedia: v.d.Events.AddEventMedia,
	})
	if err != nil {
		return EventOutcome{}, err
	}

	if created {
		err = v.list.AfterCreate(ctx, 1)
	} else {
		err = v.list.Refresh(ctx)
	}
	if err != nil {
		v.logger.Warn("event list reload failed", zap.Error(err))
	}

	out := EventOutcome{Report: report}
	if report.Complete() {
		v.closeForm(key)
	} else {
		fv := presentForm(key, form, v.d.Resolver)
		out.Form = &fv
	}
	return out, nil
}

// DeleteEvent removes an event and clamps the page if it became empty.
func (v *ManageEvents) DeleteEvent(ctx context.Context, eventID int64) error {
	if err := v.d.Events.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	v.closeForm(EventFormKey(eventID))
	if err := v.list.AfterRemove(ctx, 1); err != nil {
		v.logger.Warn("event list reload failed", zap.Error(err))
	}
	return nil
}

// HideEvent hides an event from the public board.
func (v *ManageEvents) HideEvent(ctx context.Context, eventID int64, notes string) (EventView, error) {
	if !v.admin {
		return EventView{}, ErrAdminOnly
	}
	ev, err := v.d.Events.HideEvent(ctx, eventID, notes)
	if err != nil {
		return EventView{}, err
	}
	if err := v.list.Refresh(ctx); err != nil {
		v.logger.Warn("event list reload failed", zap.Error(err))
	}
	return presentEvent(ev, v.d.Resolver), nil
}

func (v *ManageEvents) State() ManageEventsState {
	st := v.list.State()
	return ManageEventsState{
		Admin:        v.admin,
		ShopID:       v.shopID,
		Events:       presentEvents(st.Items, v.d.Resolver),
		Page:         st.Query.Page,
		PageSize:     st.Query.Size,
		TotalItems:   st.TotalItems,
		TotalPages:   st.TotalPages,
		StatusFilter: st.Query.Filters["status"],
		Loading:      st.Loading,
		Error:        errMessage(st.Err),
		Query:        QueryWithPage(st.Query, st.Query.Page),
	}
}

func (v *ManageEvents) Close() {
	v.list.Close()
	v.mu.Lock()
	keys := v.keys
	v.keys = make(map[string]struct{})
	v.mu.Unlock()
	for key := range keys {
		v.forms.Close(key)
	}
}

func (v *ManageEvents) closeForm(key string) {
	v.mu.Lock()
	delete(v.keys, key)
	v.mu.Unlock()
	v.forms.Close(key)
}

func validateEvent(in models.EventInput) error {
	if err := required("title", in.Title); err != nil {
		return err
	}
	if err := required("content", in.Content); err != nil {
		return err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return &controller.ValidationError{Field: "endDate", Message: "must not be before the start date"}
	}
	return nil
}
