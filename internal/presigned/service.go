package presigned

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxTTL is the longest validity the storage provider accepts.
const MaxTTL = 7 * 24 * time.Hour

const signTimeout = 10 * time.Second

// ErrURLIssuance signals that a signed URL could not be produced.
var ErrURLIssuance = errors.New("signed url issuance failed")

type urlSigner interface {
	SignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Service issues time-limited read URLs for stored objects.
type Service struct {
	signer urlSigner
	ttl    time.Duration
}

// NewService builds an issuer. ttl outside (0, MaxTTL] is clamped to MaxTTL.
func NewService(signer urlSigner, ttl time.Duration) *Service {
	if ttl <= 0 || ttl > MaxTTL {
		ttl = MaxTTL
	}
	return &Service{signer: signer, ttl: ttl}
}

// TTL returns the validity window of issued URLs.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GenerateGetURL returns a GET URL for bucket/key. It never returns an empty
// URL with a nil error.
func (s *Service) GenerateGetURL(ctx context.Context, bucket, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, signTimeout)
	defer cancel()

	u, err := s.signer.SignGetURL(ctx, bucket, key, s.ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrURLIssuance, err)
	}
	if u == "" {
		return "", fmt.Errorf("%w: provider returned an empty url", ErrURLIssuance)
	}
	return u, nil
}
