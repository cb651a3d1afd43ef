// Command function runs the Cloud Functions locally through the functions
// framework. FUNCTION_TARGET selects ProcessUpload or ProcessPubSubMessage.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	_ "github.com/abduss/atomupload"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Incomplete config is reported by the functions on first invocation.
	cfg, cfgErr := config.Load()

	log, err := logger.Init(cfg.DevMode, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	if cfgErr != nil {
		log.Warn("config incomplete", zap.Error(cfgErr))
	}

	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Info("functions framework listening", zap.String("port", port), zap.String("target", os.Getenv("FUNCTION_TARGET")))
	if err := funcframework.Start(port); err != nil {
		log.Fatal("funcframework.Start", zap.Error(err))
	}
}
