package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// SigningOptions overrides credential discovery for V4 signing. Zero value
// lets the client sign with the ambient service account.
type SigningOptions struct {
	GoogleAccessID string
	PrivateKey     []byte
}

// GCSStore adapts a Cloud Storage client to the object store contract.
type GCSStore struct {
	client     *gcs.Client
	signing    SigningOptions
	pingBucket string
}

// NewGCSStore constructs an adapter. pingBucket is probed by readiness checks.
func NewGCSStore(client *gcs.Client, signing SigningOptions, pingBucket string) *GCSStore {
	return &GCSStore{client: client, signing: signing, pingBucket: pingBucket}
}

// Put performs a single write attempt; retries belong to Service.
func (s *GCSStore) Put(ctx context.Context, in PutInput) (ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obj := s.client.Bucket(in.Bucket).Object(in.Key).Retryer(gcs.WithPolicy(gcs.RetryNever))
	w := obj.NewWriter(ctx)
	w.ContentType = in.ContentType

	if _, err := io.Copy(w, in.Content); err != nil {
		cancel()
		_ = w.Close()
		return ObjectInfo{}, fmt.Errorf("write object %s/%s: %w", in.Bucket, in.Key, translateGCSError(err))
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("finalize object %s/%s: %w", in.Bucket, in.Key, translateGCSError(err))
	}

	return fromAttrs(w.Attrs()), nil
}

func (s *GCSStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := s.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s/%s: %w", bucket, key, translateGCSError(err))
	}
	return fromAttrs(attrs), nil
}

// PatchMetadata merges metadata keys into the object's custom metadata.
func (s *GCSStore) PatchMetadata(ctx context.Context, bucket, key string, metadata map[string]string) (ObjectInfo, error) {
	obj := s.client.Bucket(bucket).Object(key)
	if _, err := obj.Attrs(ctx); err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s/%s: %w", bucket, key, translateGCSError(err))
	}

	attrs, err := obj.Update(ctx, gcs.ObjectAttrsToUpdate{Metadata: metadata})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("patch metadata %s/%s: %w", bucket, key, translateGCSError(err))
	}
	return fromAttrs(attrs), nil
}

func (s *GCSStore) SignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	}
	if s.signing.GoogleAccessID != "" {
		opts.GoogleAccessID = s.signing.GoogleAccessID
		opts.PrivateKey = s.signing.PrivateKey
	}

	u, err := s.client.Bucket(bucket).SignedURL(key, opts)
	if err != nil {
		return "", translateGCSError(err)
	}
	return u, nil
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.pingBucket).Attrs(ctx)
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func fromAttrs(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
		Created:     attrs.Created,
		Metadata:    attrs.Metadata,
	}
}

func translateGCSError(err error) error {
	switch {
	case errors.Is(err, gcs.ErrObjectNotExist):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case errors.Is(err, gcs.ErrBucketNotExist):
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
		}
	}
	return err
}
