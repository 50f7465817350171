package controller

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ramen-directory/internal/metrics"
	"ramen-directory/internal/models"
)

// DefaultMaxPageSize is the largest page the API serves.
const DefaultMaxPageSize = 30

// FetchFunc loads one page for the given query.
type FetchFunc[T any] func(ctx context.Context, q models.ListQuery) (models.ListPage[T], error)

// ListOptions describe the parameter space of one list.
type ListOptions struct {
	// Name labels metrics and logs.
	Name string
	// AllowedSizes is the fixed set of page sizes; empty allows any size up
	// to MaxSize.
	AllowedSizes []int
	MaxSize      int
	DefaultSize  int
	// SortKeys is the fixed set of sort keys; empty disables sorting.
	SortKeys       []string
	DefaultSort    string
	DefaultSortDir string
	Filters        map[string]string
}

// ListState is a snapshot of a ListFetcher.
type ListState[T any] struct {
	Query      models.ListQuery `json:"query"`
	Items      []T              `json:"items"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Loading    bool             `json:"loading"`
	Loaded     bool             `json:"loaded"`
	Err        error            `json:"-"`
}

// ListFetcher keeps one paginated list in sync with its query. Requests run
// outside the lock; a response is applied only while its token is current.
type ListFetcher[T any] struct {
	mu         sync.Mutex
	fetch      FetchFunc[T]
	opts       ListOptions
	query      models.ListQuery
	items      []T
	totalItems int
	totalPages int
	loading    bool
	loaded     bool
	err        error
	seq        uint64
	seen       map[string]struct{}
	closed     bool
	logger     *zap.Logger
}

func NewListFetcher[T any](fetch FetchFunc[T], opts ListOptions, logger *zap.Logger) *ListFetcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxPageSize
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = min(10, opts.MaxSize)
		if len(opts.AllowedSizes) > 0 {
			opts.DefaultSize = opts.AllowedSizes[0]
		}
	}
	q := models.ListQuery{
		Size:    opts.DefaultSize,
		SortBy:  opts.DefaultSort,
		SortDir: strings.ToUpper(opts.DefaultSortDir),
		Filters: map[string]string{},
	}
	for k, v := range opts.Filters {
		q.Filters[k] = v
	}
	return &ListFetcher[T]{
		fetch:  fetch,
		opts:   opts,
		query:  q,
		items:  []T{},
		seen:   make(map[string]struct{}),
		logger: logger.With(zap.String("list", opts.Name)),
	}
}

func (l *ListFetcher[T]) Options() ListOptions { return l.opts }

// Query returns the current parameter tuple.
func (l *ListFetcher[T]) Query() models.ListQuery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query.Clone()
}

func (l *ListFetcher[T]) State() ListState[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ListState[T]{
		Query:      l.query.Clone(),
		Items:      slices.Clone(l.items),
		TotalItems: l.totalItems,
		TotalPages: l.totalPages,
		Loading:    l.loading,
		Loaded:     l.loaded,
		Err:        l.err,
	}
}

// Refresh re-fetches the current query.
func (l *ListFetcher[T]) Refresh(ctx context.Context) error {
	return l.load(ctx)
}

// SetPage moves to page. Negative pages become 0 and, once the page count
// is known, pages past the end are clamped to the last one.
func (l *ListFetcher[T]) SetPage(ctx context.Context, page int) error {
	l.mu.Lock()
	if page < 0 {
		page = 0
	}
	if l.loaded {
		page = ClampPage(page, l.totalPages)
	}
	l.query.Page = page
	l.mu.Unlock()
	return l.load(ctx)
}

// SetPageSize changes the page size and goes back to the first page.
func (l *ListFetcher[T]) SetPageSize(ctx context.Context, size int) error {
	if err := l.checkSize(size); err != nil {
		return err
	}
	l.mu.Lock()
	l.query.Size = size
	l.query.Page = 0
	l.mu.Unlock()
	return l.load(ctx)
}

// SetSort changes the ordering and goes back to the first page.
func (l *ListFetcher[T]) SetSort(ctx context.Context, key, dir string) error {
	dir = strings.ToUpper(dir)
	if err := l.checkSort(key, dir); err != nil {
		return err
	}
	l.mu.Lock()
	l.query.SortBy = key
	l.query.SortDir = dir
	l.query.Page = 0
	l.mu.Unlock()
	return l.load(ctx)
}

// SetFilters replaces every filter and goes back to the first page.
func (l *ListFetcher[T]) SetFilters(ctx context.Context, filters map[string]string) error {
	l.mu.Lock()
	l.query.Filters = make(map[string]string, len(filters))
	for k, v := range filters {
		l.query.Filters[k] = v
	}
	l.query.Page = 0
	l.mu.Unlock()
	return l.load(ctx)
}

// SetFilter sets one filter, or removes it when value is empty, and goes
// back to the first page.
func (l *ListFetcher[T]) SetFilter(ctx context.Context, key, value string) error {
	l.mu.Lock()
	if value == "" {
		delete(l.query.Filters, key)
	} else {
		l.query.Filters[key] = value
	}
	l.query.Page = 0
	l.mu.Unlock()
	return l.load(ctx)
}

// Navigate loads a complete query, typically restored from a URL. The page
// is taken as given; it is clamped only when the rest of the tuple matches
// what is already loaded.
func (l *ListFetcher[T]) Navigate(ctx context.Context, q models.ListQuery) error {
	q = q.Clone()
	if q.Size == 0 {
		q.Size = l.opts.DefaultSize
	}
	if q.SortBy == "" {
		q.SortBy = l.opts.DefaultSort
	}
	if q.SortDir == "" {
		q.SortDir = l.opts.DefaultSortDir
	}
	q.SortDir = strings.ToUpper(q.SortDir)
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	if err := l.checkSize(q.Size); err != nil {
		return err
	}
	if err := l.checkSort(q.SortBy, q.SortDir); err != nil {
		return err
	}
	if q.Page < 0 {
		q.Page = 0
	}

	l.mu.Lock()
	same := withPage(l.query, 0).Key() == withPage(q, 0).Key()
	if same && l.loaded {
		q.Page = ClampPage(q.Page, l.totalPages)
	}
	l.query = q
	l.mu.Unlock()
	return l.load(ctx)
}

// AfterCreate reloads after n items were added elsewhere.
func (l *ListFetcher[T]) AfterCreate(ctx context.Context, n int) error {
	return l.afterChange(ctx, n)
}

// AfterRemove reloads after n items were removed, moving back to the new
// last page when the current one no longer exists.
func (l *ListFetcher[T]) AfterRemove(ctx context.Context, n int) error {
	return l.afterChange(ctx, -n)
}

func (l *ListFetcher[T]) afterChange(ctx context.Context, delta int) error {
	l.mu.Lock()
	page, pages := PageAfterChange(l.query.Page, l.query.Size, l.totalItems, delta)
	l.query.Page = page
	l.totalPages = pages
	l.mu.Unlock()
	return l.load(ctx)
}

// UpdateItems rewrites the displayed items in place without a fetch.
func (l *ListFetcher[T]) UpdateItems(fn func(items []T) []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = fn(l.items)
	if l.items == nil {
		l.items = []T{}
	}
}

// UpdateItem applies fn to the first item matching match.
func (l *ListFetcher[T]) UpdateItem(match func(T) bool, fn func(*T)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if match(l.items[i]) {
			fn(&l.items[i])
			return true
		}
	}
	return false
}

// Close stops applying responses of requests already sent.
func (l *ListFetcher[T]) Close() {
	l.mu.Lock()
	l.closed = true
	l.loading = false
	l.mu.Unlock()
}

func (l *ListFetcher[T]) load(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		l.seq++
		token := l.seq
		q := l.query.Clone()
		l.loading = true
		l.mu.Unlock()

		page, err := l.fetch(ctx, q)

		again, err := l.apply(token, q, page, err)
		if !again {
			return err
		}
	}
}

// apply stores a response. It reports whether the page must be fetched again
// because the server says it is past the end.
func (l *ListFetcher[T]) apply(token uint64, q models.ListQuery, page models.ListPage[T], err error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || token != l.seq {
		metrics.StaleResponse(l.opts.Name)
		l.logger.Debug("discarding stale list response",
			zap.Int("page", q.Page),
			zap.Uint64("token", token),
			zap.Uint64("current", l.seq))
		return false, nil
	}

	l.loading = false
	key := q.Key()
	if err != nil {
		if _, ok := l.seen[key]; !ok {
			l.items = []T{}
			l.totalItems = 0
			l.totalPages = 0
			l.loaded = false
		}
		l.err = err
		l.logger.Warn("list fetch failed", zap.Int("page", q.Page), zap.Error(err))
		return false, err
	}

	if q.Page > 0 && q.Page >= page.TotalPages {
		l.query.Page = ClampPage(q.Page, page.TotalPages)
		l.totalItems = page.TotalItems
		l.totalPages = page.TotalPages
		return true, nil
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}
	l.items = items
	l.totalItems = page.TotalItems
	l.totalPages = page.TotalPages
	l.loaded = true
	l.err = nil
	l.seen[key] = struct{}{}
	return false, nil
}

func (l *ListFetcher[T]) checkSize(size int) error {
	if size <= 0 || size > l.opts.MaxSize {
		return invalid("size", "page size must be between 1 and %d", l.opts.MaxSize)
	}
	if len(l.opts.AllowedSizes) > 0 && !slices.Contains(l.opts.AllowedSizes, size) {
		return invalid("size", "page size %d is not one of %v", size, l.opts.AllowedSizes)
	}
	return nil
}

func (l *ListFetcher[T]) checkSort(key, dir string) error {
	if key == "" && dir == "" {
		return nil
	}
	if len(l.opts.SortKeys) == 0 || !slices.Contains(l.opts.SortKeys, key) {
		return invalid("sortBy", "cannot sort by %q", key)
	}
	if dir != models.SortAsc && dir != models.SortDesc {
		return invalid("sortDir", "sort direction must be %s or %s", models.SortAsc, models.SortDesc)
	}
	return nil
}

func withPage(q models.ListQuery, page int) models.ListQuery {
	q.Page = page
	return q
}
