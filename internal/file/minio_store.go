package file

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIOStore adapts minio.Client to the object store contract. Used for
// local development against a MinIO container.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore constructs an adapter.
func NewMinIOStore(client *minio.Client) *MinIOStore {
	return &MinIOStore{client: client}
}

func (s *MinIOStore) Put(ctx context.Context, in PutInput) (ObjectInfo, error) {
	info, err := s.client.PutObject(ctx, in.Bucket, in.Key, in.Content, in.Size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object %s/%s: %w", in.Bucket, in.Key, translateMinIOError(err))
	}

	created := info.LastModified
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return ObjectInfo{
		Bucket:      in.Bucket,
		Key:         in.Key,
		ContentType: in.ContentType,
		Size:        info.Size,
		Created:     created,
	}, nil
}

func (s *MinIOStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s/%s: %w", bucket, key, translateMinIOError(err))
	}

	metadata := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		metadata[strings.ToLower(k)] = v
	}
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		Created:     info.LastModified,
		Metadata:    metadata,
	}, nil
}

// PatchMetadata merges metadata into the object's user metadata. S3 has no
// in-place metadata update, so the object is copied onto itself.
func (s *MinIOStore) PatchMetadata(ctx context.Context, bucket, key string, metadata map[string]string) (ObjectInfo, error) {
	current, err := s.Stat(ctx, bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}

	merged := make(map[string]string, len(current.Metadata)+len(metadata))
	for k, v := range current.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[strings.ToLower(k)] = v
	}

	userMetadata := make(map[string]string, len(merged)+1)
	for k, v := range merged {
		userMetadata[k] = v
	}
	if current.ContentType != "" {
		userMetadata["Content-Type"] = current.ContentType
	}

	_, err = s.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          bucket,
			Object:          key,
			ReplaceMetadata: true,
			UserMetadata:    userMetadata,
		},
		minio.CopySrcOptions{Bucket: bucket, Object: key},
	)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("patch metadata %s/%s: %w", bucket, key, translateMinIOError(err))
	}

	current.Metadata = merged
	return current, nil
}

func (s *MinIOStore) SignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", translateMinIOError(err)
	}
	return u.String(), nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}

func (s *MinIOStore) Close() error {
	return nil
}

func translateMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	default:
		return err
	}
}
