package storage

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/file"
	"golang.org/x/oauth2/google"
)

// NewGCSClient opens a Cloud Storage client with application default
// credentials. STORAGE_EMULATOR_HOST is honoured by the client library.
func NewGCSClient(ctx context.Context) (*gcs.Client, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// NewPubSubClient opens a Pub/Sub client for the configured project.
// PUBSUB_EMULATOR_HOST is honoured by the client library.
func NewPubSubClient(ctx context.Context, cfg config.GCPConfig) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return client, nil
}

// LoadSigningOptions reads an explicit service-account key for V4 signing.
// Without a key file the ambient credentials sign.
func LoadSigningOptions(cfg config.StorageConfig) (file.SigningOptions, error) {
	if cfg.SigningKeyFile == "" {
		return file.SigningOptions{GoogleAccessID: cfg.SigningAccount}, nil
	}

	data, err := os.ReadFile(cfg.SigningKeyFile)
	if err != nil {
		return file.SigningOptions{}, fmt.Errorf("read signing key: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data)
	if err != nil {
		return file.SigningOptions{}, fmt.Errorf("parse signing key: %w", err)
	}

	account := jwt.Email
	if cfg.SigningAccount != "" {
		account = cfg.SigningAccount
	}
	return file.SigningOptions{GoogleAccessID: account, PrivateKey: jwt.PrivateKey}, nil
}
