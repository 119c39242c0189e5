package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/your-org/gallery/internal/config"
	"github.com/your-org/gallery/internal/filestore"
	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/internal/observability"
	"github.com/your-org/gallery/internal/recognition"
	"github.com/your-org/gallery/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "galleryctl",
	Short: "Administer event photo galleries",
	Long: `galleryctl runs maintenance tasks against the gallery database, storage
backend and face recognition service using the same configuration file as
the API server.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// app holds the collaborators a command needs. Close releases them.
type app struct {
	cfg   *config.Config
	db    *storage.PostgresStore
	files *filestore.Gateway
	svc   *gallery.Service
}

func loadApp(ctx context.Context, withStorage bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	observability.SetupLogger(cfg.Logging.Level, "text")

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	if withStorage {
		files, err := filestore.New(ctx, cfg.Storage)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.files = files
		a.svc = gallery.NewService(db, files, recognition.NewClient(cfg.Recognition), nil)
	}
	return a, nil
}

func (a *app) Close() {
	if a.files != nil {
		_ = a.files.Close()
	}
	a.db.Close()
}
