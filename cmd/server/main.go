// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "ramen-directory/docs"
	"ramen-directory/internal/app"
)

// @title Ramen Directory API
// @version 1.0
// @description Backend for the ramen directory front end. Each browser gets a workspace, keyed by the ramen_ws cookie, that keeps its paginated lists, expanded reply threads and staged media between requests.
//
// @contact.name API Support
// @contact.email support@example.com
//
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
//
// @BasePath /

func main() {
	application, err := app.Initialize()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	logger := application.Logger

	go func() {
		if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	logger.Info("swagger documentation available", zap.String("path", "/swagger/index.html"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	log.Println("Server stopped")
}
