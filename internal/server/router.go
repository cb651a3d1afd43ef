package server

import (
	"net/http"
	"time"

	"github.com/abduss/atomupload/internal/bucket"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/enrich"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/abduss/atomupload/internal/metrics"
	"github.com/abduss/atomupload/internal/upload"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router. Consumer
// and Ledger are optional.
type Dependencies struct {
	Config     config.Config
	Logger     *zap.Logger
	Classifier *bucket.Classifier
	Uploads    *upload.Handler
	Consumer   *enrich.Consumer
	Ledger     *file.Repository
	Checks     []Check
}

// GinMode returns the gin mode for the configured environment.
func GinMode(devMode bool) string {
	if devMode {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(deps.Config.CORS)))

	router.GET("/", index(deps))
	registerHealthRoutes(router, deps.Checks)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	bucket.RegisterRoutes(router, deps.Classifier)
	upload.RegisterRoutes(router, deps.Uploads)
	if deps.Ledger != nil {
		file.RegisterRoutes(router, deps.Ledger)
	}
	if deps.Consumer != nil {
		enrich.RegisterRoutes(router, deps.Consumer)
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	if cfg.AllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", logger.CorrelationIDHeader}
	c.ExposeHeaders = []string{logger.CorrelationIDHeader}
	c.MaxAge = 12 * time.Hour
	return c
}

func index(deps Dependencies) gin.HandlerFunc {
	endpoints := gin.H{
		"health_check":    "/health",
		"readiness_check": "/health/ready",
		"file_upload":     "/upload",
		"bucket_list":     "/buckets",
		"metrics":         deps.Config.Metrics.PrometheusPath,
	}
	if deps.Ledger != nil {
		endpoints["upload_list"] = "/uploads"
	}
	if deps.Consumer != nil {
		endpoints["pubsub_push"] = "/pubsub/push"
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":             "ATOM Backend Server is running",
			"available_endpoints": endpoints,
		})
	}
}
