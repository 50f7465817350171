package views

import (
	"context"
	"net/url"

	"ramen-directory/internal/controller"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
)

const publicEventsPageSize = 12

// PublicEvents is the public event board.
type PublicEvents struct {
	list     *controller.ListFetcher[models.Event]
	resolver media.Resolver
}

type PublicEventsState struct {
	Events     []EventView `json:"events"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
	Loading    bool        `json:"loading"`
	Error      error       `json:"-"`
	Query      url.Values  `json:"query"`
}

func NewPublicEvents(d Deps) *PublicEvents {
	list := controller.NewListFetcher[models.Event](d.Events.ListPublicEvents, controller.ListOptions{
		Name:           "public_events",
		AllowedSizes:   []int{publicEventsPageSize},
		MaxSize:        d.limits().PageSizeMax,
		SortKeys:       []string{"startDate"},
		DefaultSort:    "startDate",
		DefaultSortDir: models.SortAsc,
	}, d.logger())
	return &PublicEvents{list: list, resolver: d.Resolver}
}

// Load shows the page described by the URL query.
func (v *PublicEvents) Load(ctx context.Context, query url.Values) error {
	return v.list.Navigate(ctx, PageFromQuery(query))
}

func (v *PublicEvents) SetPage(ctx context.Context, page int) error {
	return v.list.SetPage(ctx, page)
}

func (v *PublicEvents) State() PublicEventsState {
	st := v.list.State()
	return PublicEventsState{
		Events:     presentEvents(st.Items, v.resolver),
		Page:       st.Query.Page,
		PageSize:   st.Query.Size,
		TotalItems: st.TotalItems,
		TotalPages: st.TotalPages,
		Loading:    st.Loading,
		Error:      st.Err,
		Query:      QueryWithPage(st.Query, st.Query.Page),
	}
}

func (v *PublicEvents) Close() { v.list.Close() }
