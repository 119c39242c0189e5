package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gallery/internal/api"
	"github.com/your-org/gallery/internal/api/handlers"
	"github.com/your-org/gallery/internal/api/ws"
	"github.com/your-org/gallery/internal/config"
	"github.com/your-org/gallery/internal/filestore"
	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/observability"
	"github.com/your-org/gallery/internal/queue"
	"github.com/your-org/gallery/internal/recognition"
	"github.com/your-org/gallery/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	migrate := flag.Bool("migrate", true, "apply database migrations on start")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting gallery API service", "port", cfg.Server.Port, "storage", cfg.Storage.Type)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			slog.Error("apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// Storage backend
	files, err := filestore.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer files.Close()

	recognizer := recognition.NewClient(cfg.Recognition)

	checks := []handlers.Check{
		{Name: "postgres", Fn: db.Ping},
		{Name: "storage", Fn: files.Ping},
		{Name: "recognizer", Fn: recognizer.Health},
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// NATS is optional; without it the live feed stays silent.
	var notifier gallery.Notifier
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStream(ctx); err != nil {
			slog.Warn("ensure nats stream", "error", err)
		}
		notifier = producer
		checks = append(checks, handlers.Check{Name: "nats", Fn: func(context.Context) error { return producer.Ping() }})

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create notification consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		hostname, _ := os.Hostname()
		err = consumer.ConsumeNotifications(ctx, "api-feed-"+sanitizeConsumerName(hostname), func(_ context.Context, n models.PhotoNotification) error {
			hub.BroadcastNotification(n)
			return nil
		})
		if err != nil {
			slog.Warn("start notification consumer", "error", err)
		}
	}

	svc := gallery.NewService(db, files, recognizer, notifier)

	routerCfg := api.RouterConfig{
		APIKey:              cfg.Server.APIKey,
		MaxUploadBytes:      int64(cfg.Server.MaxUploadMB) << 20,
		SearchRatePerMinute: cfg.Server.SearchRatePerMinute,
		Service:             svc,
		Hub:                 hub,
		Checks:              checks,
	}
	if cfg.Storage.Type == config.StorageLocal && strings.HasPrefix(cfg.Storage.Local.PublicURL, "/") {
		routerCfg.StaticPrefix = strings.TrimRight(cfg.Storage.Local.PublicURL, "/")
		routerCfg.StaticRoot = cfg.Storage.Local.BasePath
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(routerCfg)

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.Recognition.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// sanitizeConsumerName keeps characters NATS accepts in durable names.
func sanitizeConsumerName(s string) string {
	if s == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
