package directory

import (
	"context"
	"fmt"
	"net/http"

	"ramen-directory/internal/client"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/parser"
	"ramen-directory/internal/session"
)

// Login exchanges credentials for a token and stores it in the session.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	data, err := s.client.SendJSON(ctx, http.MethodPost, "/auth/login", creds)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("login: %w", err)
	}

	result, err := parser.Entity[models.LoginResult](data)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("parse login: %w", err)
	}
	if err := s.session.Set(result.AccessToken); err != nil {
		return models.LoginResult{}, fmt.Errorf("store token: %w", err)
	}
	return result, nil
}

func (s *Service) Logout() {
	s.session.Clear(session.ReasonLogout)
}

func (s *Service) RegisterUser(ctx context.Context, in models.SignupInput) error {
	data, err := s.client.SendJSON(ctx, http.MethodPost, "/auth/signup/user", in)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if _, err := parser.Envelope(data); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// RegisterShopOwner creates the owner account and the shop, with its
// initial photos, in one multipart call.
func (s *Service) RegisterShopOwner(ctx context.Context, in models.ShopSignupInput, files []media.File) error {
	data, err := s.client.SendMultipart(ctx, http.MethodPost, "/auth/signup/shop",
		&client.Part{Name: "shopData", Value: in}, files)
	if err != nil {
		return fmt.Errorf("register shop owner: %w", err)
	}
	if _, err := parser.Envelope(data); err != nil {
		return fmt.Errorf("register shop owner: %w", err)
	}
	return nil
}
