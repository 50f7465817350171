// internal/app/app.go
package app

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"ramen-directory/internal/config"
	"ramen-directory/internal/logging"
	"ramen-directory/internal/media"
	"ramen-directory/internal/router"
	"ramen-directory/internal/views"
	"ramen-directory/internal/workspace"
)

type App struct {
	Config  *config.Config
	Echo    *echo.Echo
	Manager *workspace.Manager
	Logger  *zap.Logger

	stopJanitor context.CancelFunc
}

func Initialize() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	manager := workspace.NewManager(workspace.DirectoryBuilder(cfg), workspace.Options{
		Resolver: media.NewResolver(cfg.APIBaseURL, cfg.UploadPath),
		Limits: views.Limits{
			PageSizeMax:    cfg.PageSizeMax,
			EventMedia:     cfg.EventMediaLimit,
			ShopMedia:      cfg.ShopMediaLimit,
			ReviewMedia:    cfg.ReviewMediaLimit,
			SearchDebounce: cfg.SearchDebounce,
		},
		IdleTTL: cfg.WorkspaceIdleTTL,
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowCredentials: true}))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router.NewRouter(e, manager, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	return &App{
		Config:      cfg,
		Echo:        e,
		Manager:     manager,
		Logger:      logger,
		stopJanitor: cancel,
	}, nil
}

// bodyLimit leaves room for a full batch of the largest attachments.
func bodyLimit(maxUpload int64) string {
	const batch = 10
	return fmt.Sprintf("%dK", maxUpload*batch/1024+1024)
}

func (a *App) Start() error {
	port := a.Config.ServerPort
	if port == "" {
		port = "8080"
	}
	a.Logger.Info("server starting", zap.String("port", port))
	return a.Echo.Start(":" + port)
}

// Shutdown stops the server, then drops every workspace.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopJanitor()
	err := a.Echo.Shutdown(ctx)
	a.Manager.Close()
	_ = a.Logger.Sync()
	return err
}
