package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/parser"
)

func (s *Service) ListShops(ctx context.Context, q models.ListQuery) (models.ListPage[models.Shop], error) {
	data, err := s.client.GetJSON(ctx, "/shops", q.Values())
	if err != nil {
		err = fmt.Errorf("list shops: %w", err)
	}
	return decodePage[models.Shop](data, err, q.Size)
}

func (s *Service) GetShop(ctx context.Context, shopID int64) (models.Shop, error) {
	data, err := s.client.GetJSON(ctx, "/shops/"+id(shopID), nil)
	if err != nil {
		return models.Shop{}, fmt.Errorf("get shop %d: %w", shopID, err)
	}
	return parser.Entity[models.Shop](data)
}

func (s *Service) UpdateShop(ctx context.Context, shopID int64, in models.ShopInput) (models.Shop, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPut, "/shops/"+id(shopID), in)
	if err != nil {
		return models.Shop{}, fmt.Errorf("update shop %d: %w", shopID, err)
	}
	return parser.Entity[models.Shop](data)
}

func (s *Service) DeleteShop(ctx context.Context, shopID int64) error {
	data, err := s.client.Delete(ctx, "/shops/"+id(shopID))
	if err != nil {
		return fmt.Errorf("delete shop %d: %w", shopID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) TopShops(ctx context.Context, limit int) ([]models.Shop, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	data, err := s.client.GetJSON(ctx, "/shops/top", q)
	if err != nil {
		return nil, fmt.Errorf("top shops: %w", err)
	}
	return parser.List[models.Shop](data)
}

func (s *Service) SearchShops(ctx context.Context, query string) ([]models.Shop, error) {
	data, err := s.client.GetJSON(ctx, "/shops/search", url.Values{"query": {query}})
	if err != nil {
		return nil, fmt.Errorf("search shops: %w", err)
	}
	return parser.List[models.Shop](data)
}

func (s *Service) UploadShopMedia(ctx context.Context, shopID int64, files []media.File) error {
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/shops/"+id(shopID)+"/media", nil, files)
	if err != nil {
		return fmt.Errorf("upload shop %d media: %w", shopID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) DeleteShopMedia(ctx context.Context, shopID, mediaID int64) error {
	data, err := s.client.Delete(ctx, "/shops/"+id(shopID)+"/media/"+id(mediaID))
	if err != nil {
		return fmt.Errorf("delete shop %d media %d: %w", shopID, mediaID, err)
	}
	_, err = parser.Envelope(data)
	return err
}
