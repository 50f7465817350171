// internal/router/router.go
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ramen-directory/internal/config"
	"ramen-directory/internal/handler/http"
	"ramen-directory/internal/workspace"
)

// NewRouter mounts every workspace endpoint on e.
func NewRouter(e *echo.Echo, m *workspace.Manager, cfg *config.Config, logger *zap.Logger) {
	auth := http.NewAuthHandler(cfg.MaxUploadBytes, logger)
	home := http.NewHomeHandler(logger)
	evt := http.NewEventHandler(logger)
	shp := http.NewShopHandler(logger)
	own := http.NewOwnerHandler(logger)
	act := http.NewActivityHandler(logger)
	frm := http.NewFormHandler(cfg.MaxUploadBytes, logger)
	adm := http.NewAdminHandler(logger)

	g := e.Group("", http.WorkspaceMiddleware(m, cfg.CookieSecure))

	g.POST("/auth/login", auth.Login)
	g.POST("/auth/logout", auth.Logout)
	g.GET("/auth/session", auth.Session)
	g.POST("/auth/signup/user", auth.SignupUser)
	g.POST("/auth/signup/shop", auth.SignupShop)

	g.GET("/home", home.GetHome)
	g.GET("/home/search", home.Search)

	g.GET("/events", evt.ListPublic)
	g.GET("/events/:id", evt.GetEvent)
	g.GET("/activities", act.List)

	g.GET("/shops/:id", shp.GetShop)
	g.POST("/shops/:id/reviews/form", shp.OpenReviewForm)
	g.POST("/shops/:id/reviews", shp.CreateReview)
	g.PUT("/shops/:id/reviews/:reviewId", shp.UpdateReview)
	g.DELETE("/shops/:id/reviews/:reviewId", shp.DeleteReview)
	g.POST("/shops/:id/reviews/:reviewId/replies", shp.ToggleReplies)

	g.GET("/owner/shop", own.GetShop)
	g.POST("/owner/shop/form", own.OpenForm)
	g.PUT("/owner/shop", own.UpdateShop)

	g.GET("/manage/events", evt.ListManaged)
	g.POST("/manage/events/form", evt.OpenForm)
	g.POST("/manage/events", evt.Create)
	g.PUT("/manage/events/:id", evt.Update)
	g.DELETE("/manage/events/:id", evt.Delete)
	g.PATCH("/manage/events/:id/hide", evt.Hide)

	g.GET("/forms/:key", frm.GetForm)
	g.DELETE("/forms/:key", frm.CancelForm)
	g.POST("/forms/:key/files", frm.StageFiles)
	g.DELETE("/forms/:key/files/:index", frm.UnstageFile)
	g.POST("/forms/:key/media/:mediaId/toggle", frm.ToggleMedia)
	g.GET("/previews/:id", frm.Preview)

	admin := g.Group("/admin", http.RequireAdmin)
	admin.GET("/users", adm.ListUsers)
	admin.GET("/users/:id", adm.GetUser)
	admin.PUT("/users/:id/role", adm.UpdateRole)
	admin.PUT("/users/:id/enabled", adm.SetEnabled)
	admin.DELETE("/users/:id", adm.DeleteUser)
}
