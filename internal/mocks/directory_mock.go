package mocks

import (
	"context"

	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
)

// Unset funcs return zero values.

type MockAuthService struct {
	LoginFunc             func(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	LogoutFunc            func()
	RegisterUserFunc      func(ctx context.Context, in models.SignupInput) error
	RegisterShopOwnerFunc func(ctx context.Context, in models.ShopSignupInput, files []media.File) error
}

func (m *MockAuthService) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	if m.LoginFunc == nil {
		return models.LoginResult{}, nil
	}
	return m.LoginFunc(ctx, creds)
}

func (m *MockAuthService) Logout() {
	if m.LogoutFunc != nil {
		m.LogoutFunc()
	}
}

func (m *MockAuthService) RegisterUser(ctx context.Context, in models.SignupInput) error {
	if m.RegisterUserFunc == nil {
		return nil
	}
	return m.RegisterUserFunc(ctx, in)
}

func (m *MockAuthService) RegisterShopOwner(ctx context.Context, in models.ShopSignupInput, files []media.File) error {
	if m.RegisterShopOwnerFunc == nil {
		return nil
	}
	return m.RegisterShopOwnerFunc(ctx, in, files)
}

type MockShopService struct {
	ListShopsFunc       func(ctx context.Context, q models.ListQuery) (models.ListPage[models.Shop], error)
	GetShopFunc         func(ctx context.Context, id int64) (models.Shop, error)
	UpdateShopFunc      func(ctx context.Context, id int64, in models.ShopInput) (models.Shop, error)
	DeleteShopFunc      func(ctx context.Context, id int64) error
	TopShopsFunc        func(ctx context.Context, limit int) ([]models.Shop, error)
	SearchShopsFunc     func(ctx context.Context, query string) ([]models.Shop, error)
	UploadShopMediaFunc func(ctx context.Context, shopID int64, files []media.File) error
	DeleteShopMediaFunc func(ctx context.Context, shopID, mediaID int64) error
}

func (m *MockShopService) ListShops(ctx context.Context, q models.ListQuery) (models.ListPage[models.Shop], error) {
	if m.ListShopsFunc == nil {
		return models.ListPage[models.Shop]{}, nil
	}
	return m.ListShopsFunc(ctx, q)
}

func (m *MockShopService) GetShop(ctx context.Context, id int64) (models.Shop, error) {
	if m.GetShopFunc == nil {
		return models.Shop{ID: id}, nil
	}
	return m.GetShopFunc(ctx, id)
}

func (m *MockShopService) UpdateShop(ctx context.Context, id int64, in models.ShopInput) (models.Shop, error) {
	if m.UpdateShopFunc == nil {
		return models.Shop{ID: id, Name: in.Name}, nil
	}
	return m.UpdateShopFunc(ctx, id, in)
}

func (m *MockShopService) DeleteShop(ctx context.Context, id int64) error {
	if m.DeleteShopFunc == nil {
		return nil
	}
	return m.DeleteShopFunc(ctx, id)
}

func (m *MockShopService) TopShops(ctx context.Context, limit int) ([]models.Shop, error) {
	if m.TopShopsFunc == nil {
		return nil, nil
	}
	return m.TopShopsFunc(ctx, limit)
}

func (m *MockShopService) SearchShops(ctx context.Context, query string) ([]models.Shop, error) {
	if m.SearchShopsFunc == nil {
		return nil, nil
	}
	return m.SearchShopsFunc(ctx, query)
}

func (m *MockShopService) UploadShopMedia(ctx context.Context, shopID int64, files []media.File) error {
	if m.UploadShopMediaFunc == nil {
		return nil
	}
	return m.UploadShopMediaFunc(ctx, shopID, files)
}

func (m *MockShopService) DeleteShopMedia(ctx context.Context, shopID, mediaID int64) error {
	if m.DeleteShopMediaFunc == nil {
		return nil
	}
	return m.DeleteShopMediaFunc(ctx, shopID, mediaID)
}

type MockReviewService struct {
	ListShopReviewsFunc   func(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Comment], error)
	ListRepliesFunc       func(ctx context.Context, parentID int64) ([]models.Comment, error)
	CreateReviewFunc      func(ctx context.Context, shopID int64, in models.ReviewInput, files []media.File) (models.Comment, error)
	UpdateReviewFunc      func(ctx context.Context, id int64, in models.ReviewInput) (models.Comment, error)
	DeleteReviewFunc      func(ctx context.Context, id int64) error
	AddReviewMediaFunc    func(ctx context.Context, reviewID int64, files []media.File) error
	DeleteReviewMediaFunc func(ctx context.Context, reviewID, mediaID int64) error
}

func (m *MockReviewService) ListShopReviews(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Comment], error) {
	if m.ListShopReviewsFunc == nil {
		return models.ListPage[models.Comment]{}, nil
	}
	return m.ListShopReviewsFunc(ctx, shopID, q)
}

func (m *MockReviewService) ListReplies(ctx context.Context, parentID int64) ([]models.Comment, error) {
	if m.ListRepliesFunc == nil {
		return nil, nil
	}
	return m.ListRepliesFunc(ctx, parentID)
}

func (m *MockReviewService) CreateReview(ctx context.Context, shopID int64, in models.ReviewInput, files []media.File) (models.Comment, error) {
	if m.CreateReviewFunc == nil {
		return models.Comment{}, nil
	}
	return m.CreateReviewFunc(ctx, shopID, in, files)
}

func (m *MockReviewService) UpdateReview(ctx context.Context, id int64, in models.ReviewInput) (models.Comment, error) {
	if m.UpdateReviewFunc == nil {
		return models.Comment{ID: id, Content: in.Content}, nil
	}
	return m.UpdateReviewFunc(ctx, id, in)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, id int64) error {
	if m.DeleteReviewFunc == nil {
		return nil
	}
	return m.DeleteReviewFunc(ctx, id)
}

func (m *MockReviewService) AddReviewMedia(ctx context.Context, reviewID int64, files []media.File) error {
	if m.AddReviewMediaFunc == nil {
		return nil
	}
	return m.AddReviewMediaFunc(ctx, reviewID, files)
}

func (m *MockReviewService) DeleteReviewMedia(ctx context.Context, reviewID, mediaID int64) error {
	if m.DeleteReviewMediaFunc == nil {
		return nil
	}
	return m.DeleteReviewMediaFunc(ctx, reviewID, mediaID)
}

type MockEventService struct {
	CreateEventFunc      func(ctx context.Context, shopID int64, in models.EventInput, files []media.File) (models.Event, error)
	UpdateEventFunc      func(ctx context.Context, id int64, in models.EventInput) (models.Event, error)
	DeleteEventFunc      func(ctx context.Context, id int64) error
	GetEventFunc         func(ctx context.Context, id int64) (models.Event, error)
	ListShopEventsFunc   func(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Event], error)
	AddEventMediaFunc    func(ctx context.Context, eventID int64, files []media.File) error
	DeleteEventMediaFunc func(ctx context.Context, eventID, mediaID int64) error
	ListPublicEventsFunc func(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error)
	ListAdminEventsFunc  func(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error)
	HideEventFunc        func(ctx context.Context, id int64, notes string) (models.Event, error)
}

func (m *MockEventService) CreateEvent(ctx context.Context, shopID int64, in models.EventInput, files []media.File) (models.Event, error) {
	if m.CreateEventFunc == nil {
		return models.Event{ShopID: shopID, Title: in.Title}, nil
	}
	return m.CreateEventFunc(ctx, shopID, in, files)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, id int64, in models.EventInput) (models.Event, error) {
	if m.UpdateEventFunc == nil {
		return models.Event{ID: id, Title: in.Title}, nil
	}
	return m.UpdateEventFunc(ctx, id, in)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id int64) error {
	if m.DeleteEventFunc == nil {
		return nil
	}
	return m.DeleteEventFunc(ctx, id)
}

func (m *MockEventService) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	if m.GetEventFunc == nil {
		return models.Event{ID: id}, nil
	}
	return m.GetEventFunc(ctx, id)
}

func (m *MockEventService) ListShopEvents(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Event], error) {
	if m.ListShopEventsFunc == nil {
		return models.ListPage[models.Event]{}, nil
	}
	return m.ListShopEventsFunc(ctx, shopID, q)
}

func (m *MockEventService) AddEventMedia(ctx context.Context, eventID int64, files []media.File) error {
	if m.AddEventMediaFunc == nil {
		return nil
	}
	return m.AddEventMediaFunc(ctx, eventID, files)
}

func (m *MockEventService) DeleteEventMedia(ctx context.Context, eventID, mediaID int64) error {
	if m.DeleteEventMediaFunc == nil {
		return nil
	}
	return m.DeleteEventMediaFunc(ctx, eventID, mediaID)
}

func (m *MockEventService) ListPublicEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
	if m.ListPublicEventsFunc == nil {
		return models.ListPage[models.Event]{}, nil
	}
	return m.ListPublicEventsFunc(ctx, q)
}

func (m *MockEventService) ListAdminEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error) {
	if m.ListAdminEventsFunc == nil {
		return models.ListPage[models.Event]{}, nil
	}
	return m.ListAdminEventsFunc(ctx, q)
}

func (m *MockEventService) HideEvent(ctx context.Context, id int64, notes string) (models.Event, error) {
	if m.HideEventFunc == nil {
		return models.Event{ID: id, Status: "HIDDEN"}, nil
	}
	return m.HideEventFunc(ctx, id, notes)
}

type MockActivityService struct {
	ListActivitiesFunc func(ctx context.Context, page, size int) (models.ListPage[models.Activity], error)
}

func (m *MockActivityService) ListActivities(ctx context.Context, page, size int) (models.ListPage[models.Activity], error) {
	if m.ListActivitiesFunc == nil {
		return models.ListPage[models.Activity]{}, nil
	}
	return m.ListActivitiesFunc(ctx, page, size)
}

type MockAdminService struct {
	ListUsersFunc      func(ctx context.Context) ([]models.User, error)
	GetUserFunc        func(ctx context.Context, id int64) (models.User, error)
	UpdateUserRoleFunc func(ctx context.Context, id int64, role string) (models.User, error)
	SetUserEnabledFunc func(ctx context.Context, id int64, enabled bool) (models.User, error)
	DeleteUserFunc     func(ctx context.Context, id int64) error
}

func (m *MockAdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.ListUsersFunc == nil {
		return nil, nil
	}
	return m.ListUsersFunc(ctx)
}

func (m *MockAdminService) GetUser(ctx context.Context, id int64) (models.User, error) {
	if m.GetUserFunc == nil {
		return models.User{ID: id}, nil
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockAdminService) UpdateUserRole(ctx context.Context, id int64, role string) (models.User, error) {
	if m.UpdateUserRoleFunc == nil {
		return models.User{ID: id, Role: role}, nil
	}
	return m.UpdateUserRoleFunc(ctx, id, role)
}

func (m *MockAdminService) SetUserEnabled(ctx context.Context, id int64, enabled bool) (models.User, error) {
	if m.SetUserEnabledFunc == nil {
		return models.User{ID: id, Enabled: enabled}, nil
	}
	return m.SetUserEnabledFunc(ctx, id, enabled)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, id int64) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, id)
}
