package views

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ramen-directory/internal/controller"
	"ramen-directory/internal/models"
)

const (
	topShopCount = 5
	maxMapPages  = 20
)

// Home shows every shop on the map, the top rated shops and search
// suggestions for the search box.
type Home struct {
	d         Deps
	debouncer *controller.Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger

	mu        sync.Mutex
	mapShops  []models.Shop
	mapErr    error
	top       []models.Shop
	topErr    error
	query     string
	results   []models.Shop
	searchErr error
	searchSeq uint64
}

type HomeState struct {
	MapShops    []ShopView `json:"mapShops"`
	MapError    string     `json:"mapError,omitempty"`
	TopShops    []ShopView `json:"topShops"`
	TopError    string     `json:"topError,omitempty"`
	Query       string     `json:"query"`
	Suggestions []ShopView `json:"suggestions"`
	SearchError string     `json:"searchError,omitempty"`
}

func NewHome(d Deps) *Home {
	ctx, cancel := context.WithCancel(context.Background())
	return &Home{
		d:         d,
		debouncer: controller.NewDebouncer(d.limits().SearchDebounce),
		ctx:       ctx,
		cancel:    cancel,
		logger:    d.logger().With(zap.String("view", "home")),
	}
}

// Load fetches the map shops and the top shops concurrently.
func (v *Home) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		shops, err := v.loadMapShops(ctx)
		v.mu.Lock()
		v.mapShops, v.mapErr = shops, err
		v.mu.Unlock()
		return err
	})
	g.Go(func() error {
		top, err := v.d.Shops.TopShops(ctx, topShopCount)
		v.mu.Lock()
		v.top, v.topErr = top, err
		v.mu.Unlock()
		return err
	})
	return g.Wait()
}

// loadMapShops walks the shop list page by page, up to maxMapPages pages.
// On a failure the pages fetched so far are kept.
func (v *Home) loadMapShops(ctx context.Context) ([]models.Shop, error) {
	size := v.d.limits().PageSizeMax
	var shops []models.Shop
	for p := 0; p < maxMapPages; p++ {
		page, err := v.d.Shops.ListShops(ctx, models.ListQuery{Page: p, Size: size})
		if err != nil {
			return shops, err
		}
		shops = append(shops, page.Items...)
		if len(page.Items) == 0 || p+1 >= page.TotalPages {
			break
		}
	}
	return shops, nil
}

// Search records the typed query and fetches suggestions once typing has
// paused. An empty query clears the suggestions at once.
func (v *Home) Search(query string) {
	query = strings.TrimSpace(query)
	v.mu.Lock()
	v.query = query
	if query == "" {
		v.searchSeq++
		v.results, v.searchErr = nil, nil
	}
	v.mu.Unlock()

	if query == "" {
		v.debouncer.Flush()
		return
	}
	v.debouncer.Trigger(func() {
		if err := v.SearchNow(v.ctx, query); err != nil {
			v.logger.Warn("shop search failed", zap.String("query", query), zap.Error(err))
		}
	})
}

// SearchNow fetches suggestions immediately. A result for a query that is
// no longer the latest is dropped.
func (v *Home) SearchNow(ctx context.Context, query string) error {
	v.mu.Lock()
	v.searchSeq++
	token := v.searchSeq
	v.query = query
	v.mu.Unlock()

	shops, err := v.d.Shops.SearchShops(ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.searchSeq {
		return nil
	}
	v.results, v.searchErr = shops, err
	return err
}

func (v *Home) State() HomeState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return HomeState{
		MapShops:    v.present(v.mapShops),
		MapError:    errMessage(v.mapErr),
		TopShops:    v.present(v.top),
		TopError:    errMessage(v.topErr),
		Query:       v.query,
		Suggestions: v.present(v.results),
		SearchError: errMessage(v.searchErr),
	}
}

func (v *Home) Close() {
	v.debouncer.Stop()
	v.cancel()
}

func (v *Home) present(shops []models.Shop) []ShopView {
	out := make([]ShopView, 0, len(shops))
	for _, s := range shops {
		out = append(out, presentShop(s, v.d.Resolver))
	}
	return out
}
