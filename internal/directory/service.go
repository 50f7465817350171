// Package directory is the typed API of the ramen directory: one method per
// remote endpoint, envelopes decoded into models.
package directory

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"ramen-directory/internal/client"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/parser"
	"ramen-directory/internal/session"
)

type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Logout()
	RegisterUser(ctx context.Context, in models.SignupInput) error
	RegisterShopOwner(ctx context.Context, in models.ShopSignupInput, files []media.File) error
}

type ShopService interface {
	ListShops(ctx context.Context, q models.ListQuery) (models.ListPage[models.Shop], error)
	GetShop(ctx context.Context, id int64) (models.Shop, error)
	UpdateShop(ctx context.Context, id int64, in models.ShopInput) (models.Shop, error)
	DeleteShop(ctx context.Context, id int64) error
	TopShops(ctx context.Context, limit int) ([]models.Shop, error)
	SearchShops(ctx context.Context, query string) ([]models.Shop, error)
	UploadShopMedia(ctx context.Context, shopID int64, files []media.File) error
	DeleteShopMedia(ctx context.Context, shopID, mediaID int64) error
}

type ReviewService interface {
	ListShopReviews(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Comment], error)
	ListReplies(ctx context.Context, parentID int64) ([]models.Comment, error)
	CreateReview(ctx context.Context, shopID int64, in models.ReviewInput, files []media.File) (models.Comment, error)
	UpdateReview(ctx context.Context, id int64, in models.ReviewInput) (models.Comment, error)
	DeleteReview(ctx context.Context, id int64) error
	AddReviewMedia(ctx context.Context, reviewID int64, files []media.File) error
	DeleteReviewMedia(ctx context.Context, reviewID, mediaID int64) error
}

type EventService interface {
	CreateEvent(ctx context.Context, shopID int64, in models.EventInput, files []media.File) (models.Event, error)
	UpdateEvent(ctx context.Context, id int64, in models.EventInput) (models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	GetEvent(ctx context.Context, id int64) (models.Event, error)
	ListShopEvents(ctx context.Context, shopID int64, q models.ListQuery) (models.ListPage[models.Event], error)
	AddEventMedia(ctx context.Context, eventID int64, files []media.File) error
	DeleteEventMedia(ctx context.Context, eventID, mediaID int64) error
	ListPublicEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error)
	ListAdminEvents(ctx context.Context, q models.ListQuery) (models.ListPage[models.Event], error)
	HideEvent(ctx context.Context, id int64, notes string) (models.Event, error)
}

type ActivityService interface {
	ListActivities(ctx context.Context, page, size int) (models.ListPage[models.Activity], error)
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) (models.User, error)
	SetUserEnabled(ctx context.Context, id int64, enabled bool) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service implements every endpoint group over one raw client.
type Service struct {
	client  client.RamenClientInterface
	session *session.Store
	logger  *zap.Logger
}

func NewService(c client.RamenClientInterface, store *session.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, session: store, logger: logger}
}

var (
	_ AuthService     = (*Service)(nil)
	_ ShopService     = (*Service)(nil)
	_ ReviewService   = (*Service)(nil)
	_ EventService    = (*Service)(nil)
	_ ActivityService = (*Service)(nil)
	_ AdminService    = (*Service)(nil)
)

func id(n int64) string { return fmt.Sprintf("%d", n) }

// decodePage folds a transport failure and a malformed envelope into one
// error return.
func decodePage[T any](data json.RawMessage, err error, size int) (models.ListPage[T], error) {
	if err != nil {
		return models.ListPage[T]{}, err
	}
	return parser.Page[T](data, size)
}
