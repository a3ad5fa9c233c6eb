package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jeff496/PicAI-sub001/internal/api/handlers"
	"github.com/Jeff496/PicAI-sub001/internal/api/ws"
	"github.com/Jeff496/PicAI-sub001/internal/auth"
	"github.com/Jeff496/PicAI-sub001/internal/faces"
)

type RouterConfig struct {
	APIKey string
	DB     faces.Store
	Images handlers.ImageStore
	Faces  *faces.Service
	Hub    *ws.Hub
	Checks map[string]handlers.Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Photos & detection
	photoH := handlers.NewPhotoHandler(cfg.DB, cfg.Images, cfg.Faces)
	v1.POST("/photos", photoH.Upload)
	v1.DELETE("/photos/:id", photoH.Delete)
	v1.POST("/photos/:id/faces/detect", photoH.Detect)
	v1.GET("/photos/:id/faces", photoH.ListFaces)
	v1.POST("/photos/detect-bulk", photoH.BulkDetect)

	// Faces
	faceH := handlers.NewFaceHandler(cfg.DB, cfg.Faces)
	v1.POST("/faces/:id/tag", faceH.Tag)
	v1.POST("/faces/:id/untag", faceH.Untag)

	// Persons
	personH := handlers.NewPersonHandler(cfg.DB, cfg.Faces)
	v1.GET("/persons", personH.List)
	v1.DELETE("/persons/:id", personH.Delete)

	return r
}
