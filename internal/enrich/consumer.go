package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/atomupload/internal/event"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/metrics"
	"go.uber.org/zap"
)

const patchTimeout = 30 * time.Second

// objectPatcher fetches the object before writing metadata and fails with
// file.ErrObjectNotFound when it is absent.
type objectPatcher interface {
	PatchMetadata(ctx context.Context, bucket, key string, metadata map[string]string) (file.ObjectInfo, error)
}

type processedMarker interface {
	MarkProcessed(ctx context.Context, bucket, key string, at time.Time) error
}

// Consumer applies announcement-derived metadata to stored objects. Every
// delivery writes the same fields, so redelivery is harmless.
type Consumer struct {
	store  objectPatcher
	ledger processedMarker
	log    *zap.Logger
	now    func() time.Time
}

// Option customizes a Consumer.
type Option func(*Consumer)

// WithLedger marks enriched uploads as processed in the ledger.
func WithLedger(ledger processedMarker) Option {
	return func(c *Consumer) { c.ledger = ledger }
}

// NewConsumer builds a consumer writing through store.
func NewConsumer(store objectPatcher, log *zap.Logger, opts ...Option) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Consumer{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle processes one announcement payload. The announced object must
// already exist: a missing object fails with file.ErrObjectNotFound and the
// ledger is left untouched. Errors are returned unchanged in kind so the
// trigger can redeliver.
func (c *Consumer) Handle(ctx context.Context, data []byte) (err error) {
	defer func() { metrics.ObserveEnrichment(err == nil) }()

	a, err := event.DecodeAnnouncement(data)
	if err != nil {
		c.log.Error("discarding malformed announcement", zap.Error(err))
		return err
	}

	log := c.log.With(zap.String("bucket", a.Bucket), zap.String("object", a.Filename))
	log.Info("processing file")

	patchCtx, cancel := context.WithTimeout(ctx, patchTimeout)
	defer cancel()

	if _, err := c.store.PatchMetadata(patchCtx, a.Bucket, a.Filename, Metadata(a)); err != nil {
		log.Error("patch object metadata", zap.Error(err))
		return fmt.Errorf("enrich %s/%s: %w", a.Bucket, a.Filename, err)
	}

	if c.ledger != nil {
		if err := c.ledger.MarkProcessed(ctx, a.Bucket, a.Filename, c.now().UTC()); err != nil {
			log.Warn("mark upload processed", zap.Error(err))
		}
	}

	log.Info("processed file")
	return nil
}

// HandleEnvelope unwraps a Pub/Sub push or CloudEvent body and handles it.
func (c *Consumer) HandleEnvelope(ctx context.Context, body []byte) error {
	env, err := event.DecodeEnvelope(body)
	if err != nil {
		c.log.Error("discarding malformed envelope", zap.Error(err))
		metrics.ObserveEnrichment(false)
		return err
	}
	return c.Handle(ctx, env.Message.Data)
}

// Metadata is the patch derived from an announcement. Empty values are
// skipped because an empty value deletes the key on GCS.
func Metadata(a event.Announcement) map[string]string {
	original := a.OriginalFilename
	if original == "" {
		original = a.Filename
	}

	md := map[string]string{
		"original_filename": original,
		"processed":         "true",
	}
	if a.UploadTime != "" {
		md["upload_time"] = a.UploadTime
	}
	if a.ContentType != "" {
		md["content_type"] = a.ContentType
	}
	return md
}
