package views

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/models"
)

// EventDetail is the page of a single event.
type EventDetail struct {
	d       Deps
	eventID int64
	logger  *zap.Logger

	mu       sync.Mutex
	event    *models.Event
	err      error
	notFound bool
}

type EventDetailState struct {
	Event     *EventView `json:"event,omitempty"`
	NotFound  bool       `json:"notFound"`
	Error     string     `json:"error,omitempty"`
	CanManage bool       `json:"canManage"`
}

func NewEventDetail(d Deps, eventID int64) *EventDetail {
	return &EventDetail{
		d:       d,
		eventID: eventID,
		logger:  d.logger().With(zap.Int64("event_id", eventID)),
	}
}

// Load fetches the event. A 404 is kept as the not-found state.
func (v *EventDetail) Load(ctx context.Context) error {
	ev, err := v.d.Events.GetEvent(ctx, v.eventID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
	v.notFound = errors.Is(err, apierror.ErrNotFound)
	if err != nil {
		if v.notFound {
			v.event = nil
		}
		v.logger.Warn("event fetch failed", zap.Error(err))
		return err
	}
	v.event = &ev
	return nil
}

// State reports the event. Admin notes are only shown to whoever may
// manage it: an admin or the owner of the event's shop.
func (v *EventDetail) State() EventDetailState {
	v.mu.Lock()
	var ev *models.Event
	if v.event != nil {
		cp := *v.event
		ev = &cp
	}
	out := EventDetailState{NotFound: v.notFound, Error: errMessage(v.err)}
	v.mu.Unlock()

	if ev == nil {
		return out
	}
	out.CanManage = v.canManage(ev.ShopID)
	if !out.CanManage {
		ev.AdminNotes = ""
	}
	view := presentEvent(*ev, v.d.Resolver)
	out.Event = &view
	return out
}

func (v *EventDetail) canManage(shopID int64) bool {
	claims, ok := v.d.Session.Claims()
	if !ok {
		return false
	}
	if claims.IsAdmin() {
		return true
	}
	return claims.IsShopOwner() && claims.ShopID != nil && *claims.ShopID == shopID
}
