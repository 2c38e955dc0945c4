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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/railwaystations/inbox-api/internal/api"
	"github.com/railwaystations/inbox-api/internal/config"
	"github.com/railwaystations/inbox-api/internal/inbox"
	"github.com/railwaystations/inbox-api/internal/logging"
	"github.com/railwaystations/inbox-api/internal/notify"
	"github.com/railwaystations/inbox-api/internal/repository"
	"github.com/railwaystations/inbox-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.SeedCountries(ctx); err != nil {
		logging.Fatalf("Failed to seed countries: %v", err)
	}

	photos, err := storage.NewLocalPhotoStorage(cfg.Photos.Dir, cfg.Photos.MaxSize)
	if err != nil {
		logging.Fatalf("Failed to initialize photo storage: %v", err)
	}

	sinks := []notify.Sink{notify.LogSink{}}
	if cfg.Notify.TelegramEnabled {
		monitor, err := notify.NewTelegramMonitor(cfg.Notify.TelegramToken, cfg.Notify.MonitorChatID)
		if err != nil {
			logging.Fatalf("Failed to create telegram monitor: %v", err)
		}
		announcer, err := notify.NewTelegramAnnouncer(cfg.Notify.TelegramToken, cfg.Notify.ChannelChatID, cfg.Photos.PhotoBaseURL)
		if err != nil {
			logging.Fatalf("Failed to create telegram announcer: %v", err)
		}
		sinks = append(sinks, monitor, announcer)
	}

	dispatcher := notify.NewDispatcher(cfg.Notify.WorkerCount, cfg.Notify.BufferSize, sinks...)
	dispatcher.Start(ctx)

	service := inbox.NewService(db, db, db, photos, dispatcher, cfg.Photos.MaxSize, cfg.Photos.InboxBaseURL)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Country", "Station-Id", "Station-Title", "Latitude", "Longitude", "Comment", "Active"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit))

	handler := api.NewHandler(service, db)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
