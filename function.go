// Package atomupload exposes the upload router as Cloud Functions:
// ProcessUpload (HTTP) and ProcessPubSubMessage (Pub/Sub CloudEvent).
package atomupload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/abduss/atomupload/internal/bucket"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/enrich"
	"github.com/abduss/atomupload/internal/event"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/abduss/atomupload/internal/server"
	"github.com/abduss/atomupload/internal/storage"
	"github.com/abduss/atomupload/internal/upload"
	cloudevents "github.com/cloudevents/sdk-go/v2/event"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	functions.HTTP("ProcessUpload", ProcessUpload)
	functions.CloudEvent("ProcessPubSubMessage", ProcessPubSubMessage)
}

// runtime holds the clients shared across invocations of one instance.
type runtime struct {
	engine   *gin.Engine
	consumer *enrich.Consumer
}

var (
	runtimeMu    sync.Mutex
	sharedRT     *runtime
	buildRuntime = newRuntime
)

// loadRuntime builds the clients on the first invocation so cold starts
// without credentials still serve a JSON error instead of crashing the
// instance. Only a successful build is kept; a failure is retried on the
// next invocation.
func loadRuntime() (*runtime, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if sharedRT != nil {
		return sharedRT, nil
	}
	rt, err := buildRuntime(context.Background())
	if err != nil {
		return nil, err
	}
	sharedRT = rt
	return rt, nil
}

// ProcessUpload accepts a multipart upload in the "file" field.
func ProcessUpload(w http.ResponseWriter, r *http.Request) {
	rt, err := loadRuntime()
	if err != nil {
		writeInitError(w, err)
		return
	}
	rt.engine.ServeHTTP(w, r)
}

// ProcessPubSubMessage enriches the object named by an upload announcement.
// A returned error makes the platform retry the delivery.
func ProcessPubSubMessage(ctx context.Context, e cloudevents.Event) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	return rt.handleEvent(ctx, e)
}

func (rt *runtime) handleEvent(ctx context.Context, e cloudevents.Event) error {
	if err := rt.consumer.HandleEnvelope(ctx, e.Data()); err != nil {
		return fmt.Errorf("event %s: %w", e.ID(), err)
	}
	return nil
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.DevMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	classifier := bucket.NewDefaultClassifier()
	store, err := storage.OpenObjectStore(ctx, cfg, classifier.Buckets(), log)
	if err != nil {
		return nil, err
	}

	pubsubClient, err := storage.NewPubSubClient(ctx, cfg.GCP)
	if err != nil {
		return nil, err
	}

	pipeline, err := upload.NewPipeline(upload.FunctionPolicy, upload.Dependencies{
		Classifier: classifier,
		Uploader:   file.NewService(store, cfg.Storage.UploadRetries),
		Publisher:  event.NewPublisher(pubsubClient, cfg.GCP.Topic),
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		engine:   newEngine(upload.NewHandler(pipeline, cfg.Server.MaxUploadBytes), cfg.CORS, cfg.DevMode, log),
		consumer: enrich.NewConsumer(store, log),
	}, nil
}

// newEngine routes every path and method to the upload handler; the
// function URL is the only address the platform exposes.
func newEngine(handler *upload.Handler, corsCfg config.CORSConfig, devMode bool, log *zap.Logger) *gin.Engine {
	gin.SetMode(server.GinMode(devMode))

	allowed := cors.DefaultConfig()
	if corsCfg.AllowAll() {
		allowed.AllowAllOrigins = true
	} else {
		allowed.AllowOrigins = corsCfg.AllowedOrigins
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.Middleware(log))
	engine.Use(cors.New(allowed))
	engine.NoRoute(handler.Upload)
	return engine
}

func writeInitError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
