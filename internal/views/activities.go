package views

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"ramen-directory/internal/content"
	"ramen-directory/internal/controller"
	"ramen-directory/internal/models"
)

// ActivitySizes are the page sizes the feed offers.
var ActivitySizes = []int{5, 10, 20, 30}

// Activities is the recent activity feed. The type and keyword filters
// narrow the loaded page locally.
type Activities struct {
	list *controller.ListFetcher[models.Activity]

	mu      sync.Mutex
	kind    string
	keyword string
}

type ActivityView struct {
	models.Activity
	Text string `json:"text"`
}

type ActivitiesState struct {
	Items      []ActivityView `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int            `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
	Type       string         `json:"type,omitempty"`
	Keyword    string         `json:"keyword,omitempty"`
	Loading    bool           `json:"loading"`
	Error      string         `json:"error,omitempty"`
	Query      url.Values     `json:"query"`
}

func NewActivities(d Deps) *Activities {
	sizes := make([]int, 0, len(ActivitySizes))
	for _, s := range ActivitySizes {
		if s <= d.limits().PageSizeMax {
			sizes = append(sizes, s)
		}
	}
	list := controller.NewListFetcher[models.Activity](func(ctx context.Context, q models.ListQuery) (models.ListPage[models.Activity], error) {
		return d.Activities.ListActivities(ctx, q.Page, q.Size)
	}, controller.ListOptions{
		Name:         "activities",
		AllowedSizes: sizes,
		MaxSize:      d.limits().PageSizeMax,
		DefaultSize:  10,
	}, d.logger())
	return &Activities{list: list}
}

// Load reads page and size from the URL; type and q set the local filter.
func (v *Activities) Load(ctx context.Context, query url.Values) error {
	q := PageFromQuery(query)
	v.SetLocalFilter(q.Filters["type"], q.Filters["q"])
	q.Filters = map[string]string{}
	return v.list.Navigate(ctx, q)
}

func (v *Activities) SetPage(ctx context.Context, page int) error {
	return v.list.SetPage(ctx, page)
}

func (v *Activities) SetPageSize(ctx context.Context, size int) error {
	return v.list.SetPageSize(ctx, size)
}

// SetLocalFilter filters the loaded page without a fetch.
func (v *Activities) SetLocalFilter(kind, keyword string) {
	v.mu.Lock()
	v.kind = strings.ToUpper(strings.TrimSpace(kind))
	v.keyword = strings.TrimSpace(keyword)
	v.mu.Unlock()
}

func (v *Activities) State() ActivitiesState {
	st := v.list.State()
	v.mu.Lock()
	kind, keyword := v.kind, v.keyword
	v.mu.Unlock()

	items := make([]ActivityView, 0, len(st.Items))
	for _, a := range st.Items {
		if !matchActivity(a, kind, keyword) {
			continue
		}
		items = append(items, ActivityView{Activity: a, Text: content.Excerpt(a.Content, 140)})
	}

	query := QueryWithPage(st.Query, st.Query.Page)
	if kind != "" {
		query.Set("type", kind)
	}
	if keyword != "" {
		query.Set("q", keyword)
	}
	return ActivitiesState{
		Items:      items,
		Page:       st.Query.Page,
		PageSize:   st.Query.Size,
		TotalItems: st.TotalItems,
		TotalPages: st.TotalPages,
		Type:       kind,
		Keyword:    keyword,
		Loading:    st.Loading,
		Error:      errMessage(st.Err),
		Query:      query,
	}
}

func (v *Activities) Close() { v.list.Close() }

func matchActivity(a models.Activity, kind, keyword string) bool {
	if kind != "" && !strings.EqualFold(a.Type, kind) {
		return false
	}
	if keyword == "" {
		return true
	}
	k := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(a.Title), k) ||
		strings.Contains(strings.ToLower(a.Content), k) ||
		strings.Contains(strings.ToLower(a.ShopName), k)
}
