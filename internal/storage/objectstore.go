package storage

import (
	"context"
	"fmt"

	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/file"
	"go.uber.org/zap"
)

// OpenObjectStore builds the backend selected by cfg.Storage.Backend.
// buckets are the routing destinations; the first one is probed by
// readiness checks on GCS and, on MinIO, all of them are created when
// MINIO_ENSURE_BUCKETS is set.
func OpenObjectStore(ctx context.Context, cfg config.Config, buckets []string, log *zap.Logger) (file.ObjectStore, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("open object store: no buckets configured")
	}

	switch cfg.Storage.Backend {
	case config.BackendMinIO:
		client, err := NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if cfg.MinIO.EnsureBuckets {
			if err := EnsureBuckets(ctx, client, buckets, cfg.MinIO.Region); err != nil {
				return nil, err
			}
		}
		log.Info("object store ready", zap.String("backend", config.BackendMinIO), zap.String("endpoint", cfg.MinIO.Endpoint))
		return file.NewMinIOStore(client), nil

	case config.BackendGCS:
		signing, err := LoadSigningOptions(cfg.Storage)
		if err != nil {
			return nil, err
		}
		client, err := NewGCSClient(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("object store ready", zap.String("backend", config.BackendGCS), zap.Bool("explicit_signing_key", signing.PrivateKey != nil))
		return file.NewGCSStore(client, signing, buckets[0]), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
