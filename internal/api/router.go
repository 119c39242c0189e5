package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/gallery/internal/api/handlers"
	"github.com/your-org/gallery/internal/api/ws"
	"github.com/your-org/gallery/internal/auth"
	"github.com/your-org/gallery/internal/gallery"
)

type RouterConfig struct {
	APIKey              string
	MaxUploadBytes      int64
	SearchRatePerMinute int
	Service             *gallery.Service
	Hub                 *ws.Hub
	Checks              []handlers.Check
	// StaticPrefix and StaticRoot expose the local storage backend's files.
	// Both empty when objects live elsewhere.
	StaticPrefix string
	StaticRoot   string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks...)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.StaticPrefix != "" && cfg.StaticRoot != "" {
		r.Static(cfg.StaticPrefix, cfg.StaticRoot)
	}

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Photos
	photoH := handlers.NewPhotoHandler(cfg.Service, cfg.MaxUploadBytes)
	v1.POST("/events/:id/photos", photoH.Upload)
	v1.GET("/events/:id/photos", photoH.List)
	v1.GET("/photos/:id", photoH.Get)
	v1.DELETE("/photos/:id", photoH.Delete)

	// Face search
	searchH := handlers.NewSearchHandler(cfg.Service, cfg.MaxUploadBytes)
	v1.POST("/events/:id/search", RateLimitMiddleware(cfg.SearchRatePerMinute), searchH.Search)

	// Events
	eventH := handlers.NewEventHandler(cfg.Service)
	v1.DELETE("/events/:id/embeddings", eventH.DeleteEmbeddings)

	return r
}
