package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"ramen-directory/internal/models"
	"ramen-directory/internal/parser"
)

func (s *Service) ListActivities(ctx context.Context, page, size int) (models.ListPage[models.Activity], error) {
	q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
	data, err := s.client.GetJSON(ctx, "/activities", q)
	if err != nil {
		err = fmt.Errorf("list activities: %w", err)
	}
	return decodePage[models.Activity](data, err, size)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	data, err := s.client.GetJSON(ctx, "/admin/users", nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return parser.List[models.User](data)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (models.User, error) {
	data, err := s.client.GetJSON(ctx, "/admin/users/"+id(userID), nil)
	if err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return parser.Entity[models.User](data)
}

func (s *Service) UpdateUserRole(ctx context.Context, userID int64, role string) (models.User, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPatch, "/admin/users/"+id(userID)+"/role", map[string]string{"role": role})
	if err != nil {
		return models.User{}, fmt.Errorf("update role of user %d: %w", userID, err)
	}
	return parser.Entity[models.User](data)
}

func (s *Service) SetUserEnabled(ctx context.Context, userID int64, enabled bool) (models.User, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPatch, "/admin/users/"+id(userID)+"/enabled", map[string]bool{"enabled": enabled})
	if err != nil {
		return models.User{}, fmt.Errorf("set enabled of user %d: %w", userID, err)
	}
	return parser.Entity[models.User](data)
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	data, err := s.client.Delete(ctx, "/admin/users/"+id(userID))
	if err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	_, err = parser.Envelope(data)
	return err
}
