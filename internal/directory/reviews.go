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

// ListShopReviews returns one page of top-level reviews.
func (s *Service) ListShopReviews(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Comment], error) {
	data, err := s.client.GetJSON(ctx, "/reviews/shop/"+id(shopID), q.Values())
	if err != nil {
		return models.ListPage[models.Comment]{}, fmt.Errorf("list reviews of shop %d: %w", shopID, err)
	}
	page, err := parser.Page[models.Comment](data, q.Size)
	if err != nil {
		return page, err
	}
	page.Items = parser.Comments(page.Items)
	return page, nil
}

func (s *Service) ListReplies(ctx context.Context, parentID int64) ([]models.Comment, error) {
	data, err := s.client.GetJSON(ctx, "/reviews/"+id(parentID)+"/replies", nil)
	if err != nil {
		return nil, fmt.Errorf("list replies of %d: %w", parentID, err)
	}
	replies, err := parser.List[models.Comment](data)
	if err != nil {
		return nil, err
	}
	return parser.Comments(replies), nil
}

// CreateReview posts a review or, with ParentReviewID set, a reply.
func (s *Service) CreateReview(ctx context.Context, shopID int64, in models.ReviewInput, files []media.File) (models.Comment, error) {
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/reviews/shop/"+id(shopID),
		&client.Part{Name: "reviewData", Value: in}, files)
	if err != nil {
		return models.Comment{}, fmt.Errorf("create review for shop %d: %w", shopID, err)
	}
	c, err := parser.Entity[models.Comment](data)
	c.Normalize()
	return c, err
}

func (s *Service) UpdateReview(ctx context.Context, reviewID int64, in models.ReviewInput) (models.Comment, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPut, "/reviews/"+id(reviewID), in)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update review %d: %w", reviewID, err)
	}
	c, err := parser.Entity[models.Comment](data)
	c.Normalize()
	return c, err
}

func (s *Service) DeleteReview(ctx context.Context, reviewID int64) error {
	data, err := s.client.Delete(ctx, "/reviews/"+id(reviewID))
	if err != nil {
		return fmt.Errorf("delete review %d: %w", reviewID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) AddReviewMedia(ctx context.Context, reviewID int64, files []media.File) error {
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/reviews/"+id(reviewID)+"/media", nil, files)
	if err != nil {
		return fmt.Errorf("upload review %d media: %w", reviewID, err)
	}
	_, err = parser.Envelope(data)
	return err
}

func (s *Service) DeleteReviewMedia(ctx context.Context, reviewID, mediaID int64) error {
	data, err := s.client.Delete(ctx, "/reviews/"+id(reviewID)+"/media/"+id(mediaID))
	if err != nil {
		return fmt.Errorf("delete review %d media %d: %w", reviewID, mediaID, err)
	}
	_, err = parser.Envelope(data)
	return err
}
