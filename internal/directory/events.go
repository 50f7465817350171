package directory

import (
	"context"
	"fmt"
	"net/http"

	"ramen-directory/internal/client"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/parser"
)

func (s *Service) CreateEvent(ctx context.Context, shopID int64, in models.EventInput, files []media.File) (models.Event, error) {
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/shops/"+id(shopID)+"/events",
		&client.Part{Name: "eventData", Value: in}, files)
	if err != nil {
		return models.Event{}, fmt.Errorf("create event for shop %d: %w", shopID, err)
	}
	return parser.Entity[models.Event](data)
}

func (s *Service) UpdateEvent(ctx context.Context, eventID int64, in models.EventInput) (models.Event, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPut, "/events/"+id(eventID), in)
	if err != nil {
		return models.Event{}, fmt.Errorf("update event %d: %w", eventID, err)
	}
	return parser.Entity[models.Event](data)
}

func (s *Service) DeleteEvent(ctx context.Context, eventID int64) error {
	data, err := s.client.Delete(ctx, "/events/"+id(eventID))
	if err != nil {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) GetEvent(ctx context.Context, eventID int64) (models.Event, error) {
	data, err := s.client.GetJSON(ctx, "/events/"+id(eventID), nil)
	if err != nil {
		return models.Event{}, fmt.Errorf("get event %d: %w", eventID, err)
	}
	return parser.Entity[models.Event](data)
}

func (s *Service) ListShopEvents(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Event], error) {
	data, err := s.client.GetJSON(ctx, "/shops/"+id(shopID)+"/events", q.Values())
	if err != nil {
		err = fmt.Errorf("list events of shop %d: %w", shopID, err)
	}
	return decodePage[models.Event](data, err, q.Size)
}

func (s *Service) AddEventMedia(ctx context.Context, eventID int64, files []media.File) error {
	if len(files) == 0 {
		return fmt.Errorf("upload event %d media: no files selected", eventID)
	}
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/events/"+id(eventID)+"/media", nil, files)
	if err != nil {
		return fmt.Errorf("upload event %d media: %w", eventID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) DeleteEventMedia(ctx context.Context, eventID, mediaID int64) error {
	data, err := s.client.Delete(ctx, "/events/"+id(eventID)+"/media/"+id(mediaID))
	if err != nil {
		return fmt.Errorf("delete event %d media %d: %w", eventID, mediaID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) ListPublicEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
	data, err := s.client.GetJSON(ctx, "/events/public", q.Values())
	if err != nil {
		err = fmt.Errorf("list public events: %w", err)
	}
	return decodePage[models.Event](data, err, q.Size)
}

// ListAdminEvents lists every event; filters such as status and shopId are
// forwarded as given.
func (s *Service) ListAdminEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
	data, err := s.client.GetJSON(ctx, "/admin/events", q.Values())
	if err != nil {
		err = fmt.Errorf("list admin events: %w", err)
	}
	return decodePage[models.Event](data, err, q.Size)
}

func (s *Service) HideEvent(ctx context.Context, eventID int64, notes string) (models.Event, error) {
	payload := map[string]string{}
	if notes != "" {
		payload["notes"] = notes
	}
	data, err := s.client.SendJSON(ctx, http.MethodPatch, "/admin/events/"+id(eventID)+"/hide", payload)
	if err != nil {
		return models.Event{}, fmt.Errorf("hide event %d: %w", eventID, err)
	}
	return parser.Entity[models.Event](data)
}
