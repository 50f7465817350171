// Package workspace keeps one isolated set of views per browser. Nothing is
// shared between workspaces: each has its own session, API client, open
// forms and previews.
package workspace

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ramen-directory/internal/directory"
	"ramen-directory/internal/media"
	"ramen-directory/internal/session"
	"ramen-directory/internal/views"
)

const maxShopViews = 8

var ErrClosed = errors.New("workspace closed")

// Services are the API endpoint groups a workspace talks to.
type Services struct {
	Auth       directory.AuthService
	Shops      directory.ShopService
	Reviews    directory.ReviewService
	Events     directory.EventService
	Activities directory.ActivityService
	Admin      directory.AdminService
}

// Workspace holds the live views of one browser. Views are created on
// first use and reused until the workspace is closed or the session ends.
type Workspace struct {
	ID       string
	Session  *session.Store
	services Services
	deps     views.Deps
	logger   *zap.Logger

	mu           sync.Mutex
	lastSeen     time.Time
	closed       bool
	unsubscribe  func()
	home         *views.Home
	publicEvents *views.PublicEvents
	activities   *views.Activities
	shops        map[int64]*views.ShopDetail
	shopOrder    []int64
	owned        *views.OwnedShop
	manage       *views.ManageEvents
}

func newWorkspace(id string, store *session.Store, svc Services, resolver media.Resolver, limits views.Limits, now time.Time, logger *zap.Logger) *Workspace {
	previews := media.NewPreviewRegistry("/previews/")
	w := &Workspace{
		ID:       id,
		Session:  store,
		services: svc,
		logger:   logger,
		lastSeen: now,
		shops:    make(map[int64]*views.ShopDetail),
	}
	w.deps = views.Deps{
		Shops:      svc.Shops,
		Reviews:    svc.Reviews,
		Events:     svc.Events,
		Activities: svc.Activities,
		Session:    store,
		Resolver:   resolver,
		Previews:   previews,
		Forms:      views.NewForms(previews, resolver, logger),
		Limits:     limits,
		Logger:     logger,
	}
	w.unsubscribe = store.Subscribe(w.sessionEnded)
	return w
}

func (w *Workspace) Auth() directory.AuthService   { return w.services.Auth }
func (w *Workspace) Admin() directory.AdminService { return w.services.Admin }
func (w *Workspace) Forms() *views.Forms           { return w.deps.Forms }
func (w *Workspace) Previews() *media.PreviewRegistry {
	return w.deps.Previews
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) Home() (*views.Home, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.home == nil {
		w.home = views.NewHome(w.deps)
	}
	return w.home, nil
}

func (w *Workspace) PublicEvents() (*views.PublicEvents, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.publicEvents == nil {
		w.publicEvents = views.NewPublicEvents(w.deps)
	}
	return w.publicEvents, nil
}

func (w *Workspace) Activities() (*views.Activities, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.activities == nil {
		w.activities = views.NewActivities(w.deps)
	}
	return w.activities, nil
}

// Shop returns the detail view of shopID. Only the most recently opened
// shops are kept; older ones are closed.
func (w *Workspace) Shop(shopID int64) (*views.ShopDetail, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if v, ok := w.shops[shopID]; ok {
		return v, nil
	}
	v := views.NewShopDetail(w.deps, shopID)
	w.shops[shopID] = v
	w.shopOrder = append(w.shopOrder, shopID)
	if len(w.shopOrder) > maxShopViews {
		oldest := w.shopOrder[0]
		w.shopOrder = w.shopOrder[1:]
		w.shops[oldest].Close()
		delete(w.shops, oldest)
	}
	return v, nil
}

// Event returns a new detail view of eventID on every call.
func (w *Workspace) Event(eventID int64) (*views.EventDetail, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	return views.NewEventDetail(w.deps, eventID), nil
}

// OwnedShop returns the owner dashboard; it requires a shop owner session.
func (w *Workspace) OwnedShop() (*views.OwnedShop, error) {
	return lazyAuthenticated(w, &w.owned, views.NewOwnedShop)
}

// ManageEvents returns the event management page of an owner or admin.
func (w *Workspace) ManageEvents() (*views.ManageEvents, error) {
	return lazyAuthenticated(w, &w.manage, views.NewManageEvents)
}

// lazyAuthenticated builds a session-bound view outside the lock: reading
// the claims may end an expired session, which re-enters the workspace.
func lazyAuthenticated[V interface{ Close() }](w *Workspace, slot *V, build func(views.Deps) (V, error)) (V, error) {
	var zero V
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return zero, ErrClosed
	}
	if v := *slot; any(v) != any(zero) {
		w.mu.Unlock()
		return v, nil
	}
	w.mu.Unlock()

	v, err := build(w.deps)
	if err != nil {
		return zero, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		v.Close()
		return zero, ErrClosed
	}
	if cur := *slot; any(cur) != any(zero) {
		v.Close()
		return cur, nil
	}
	*slot = v
	return v, nil
}

// ResetAuthenticated drops the views that depend on who is logged in, e.g.
// after a login as another account.
func (w *Workspace) ResetAuthenticated() {
	w.mu.Lock()
	owned, manage := w.owned, w.manage
	w.owned, w.manage = nil, nil
	w.mu.Unlock()

	if owned != nil {
		owned.Close()
	}
	if manage != nil {
		manage.Close()
	}
}

func (w *Workspace) sessionEnded(ev session.Event) {
	w.logger.Info("session ended, closing authenticated views", zap.String("reason", string(ev.Reason)))
	w.ResetAuthenticated()
	w.deps.Forms.CloseAll()
}

// Close tears every view down and releases all previews.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	home, events, activities := w.home, w.publicEvents, w.activities
	owned, manage := w.owned, w.manage
	shops := w.shops
	w.shops = make(map[int64]*views.ShopDetail)
	w.shopOrder = nil
	w.mu.Unlock()

	w.unsubscribe()
	if home != nil {
		home.Close()
	}
	if events != nil {
		events.Close()
	}
	if activities != nil {
		activities.Close()
	}
	if owned != nil {
		owned.Close()
	}
	if manage != nil {
		manage.Close()
	}
	for _, v := range shops {
		v.Close()
	}
	w.deps.Forms.CloseAll()
}
