package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"transcript-qa/internal/adapter/httpapi"
	"transcript-qa/internal/di"
	"transcript-qa/internal/infra/config"
	"transcript-qa/internal/infra/logger"
)

func main() {
	// 1. Load environment and config
	_ = godotenv.Load()
	cfg := config.Load()

	// 2. Initialize logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Wire components
	ctx := context.Background()
	components, err := di.NewApplicationComponents(ctx, cfg, log)
	if err != nil {
		log.Error("failed to wire components", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if components.Pool != nil {
		defer components.Pool.Close()
	}

	// 4. Initialize echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// 5. Register handlers
	sessions := httpapi.NewSessions(components.NewPipeline)
	handler := httpapi.NewHandler(sessions, log)
	handler.Register(e)

	// 6. Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
