package file

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetries        = 3
	defaultAttemptTimeout = 2 * time.Minute
)

// ObjectStore is the full backend contract implemented by GCSStore and MinIOStore.
type ObjectStore interface {
	Put(ctx context.Context, in PutInput) (ObjectInfo, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	PatchMetadata(ctx context.Context, bucket, key string, metadata map[string]string) (ObjectInfo, error)
	SignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ ObjectStore = (*GCSStore)(nil)
	_ ObjectStore = (*MinIOStore)(nil)
)

type objectWriter interface {
	Put(ctx context.Context, in PutInput) (ObjectInfo, error)
}

// Service writes uploads to the object store with bounded retry.
type Service struct {
	store          objectWriter
	retries        int
	attemptTimeout time.Duration
	buildBackoff   func() backoff.BackOff
}

// Option customizes a Service.
type Option func(*Service)

// WithBackoff replaces the delay policy between attempts.
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(s *Service) { s.buildBackoff = factory }
}

// WithAttemptTimeout bounds a single write attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) { s.attemptTimeout = d }
}

// NewService constructs an uploader. retries is the number of extra attempts
// after the first failure; negative values mean the default.
func NewService(store objectWriter, retries int, opts ...Option) *Service {
	if retries < 0 {
		retries = defaultRetries
	}
	s := &Service{
		store:          store,
		retries:        retries,
		attemptTimeout: defaultAttemptTimeout,
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store writes content under bucket/key. content is rewound before every
// attempt. Failures after the last retry wrap ErrStorageWrite.
func (s *Service) Store(ctx context.Context, bucket, key string, content io.ReadSeeker, size int64, contentType string) (StoredObject, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}

	var info ObjectInfo
	attempt := func() error {
		if _, err := content.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(fmt.Errorf("rewind content: %w", err))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		var err error
		info, err = s.store.Put(attemptCtx, PutInput{
			Bucket:      bucket,
			Key:         key,
			Content:     content,
			Size:        size,
			ContentType: contentType,
		})
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.buildBackoff(), uint64(s.retries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return StoredObject{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	stored := StoredObject{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		SizeBytes:   info.Size,
		CreatedAt:   info.Created,
	}
	if stored.SizeBytes <= 0 && size > 0 {
		stored.SizeBytes = size
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	return stored, nil
}
