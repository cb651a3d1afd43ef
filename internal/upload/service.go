package upload

import (
	"context"
	"io"
	"time"

	"github.com/abduss/atomupload/internal/event"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/metrics"
	"go.uber.org/zap"
)

// Request is one upload as received from the client.
type Request struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
	// Logger replaces the pipeline logger for this request when set.
	Logger      *zap.Logger
}

// Result describes a completed upload.
type Result struct {
	Object         file.StoredObject
	SignedURL      string
	Announcement   event.Announcement
	EventPublished bool
}

type classifier interface {
	Classify(filename string) string
	Allowed(filename string) bool
}

type uploader interface {
	Store(ctx context.Context, bucket, key string, content io.ReadSeeker, size int64, contentType string) (file.StoredObject, error)
}

type urlIssuer interface {
	GenerateGetURL(ctx context.Context, bucket, key string) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, a event.Announcement) error
}

type recorder interface {
	Record(ctx context.Context, entry file.LedgerEntry) error
	MarkPublished(ctx context.Context, bucket, key string) error
}

// Dependencies are the collaborators of a Pipeline. Signer may be nil for
// policies that do not sign; Ledger is optional.
type Dependencies struct {
	Classifier classifier
	Uploader   uploader
	Signer     urlIssuer
	Publisher  publisher
	Ledger     recorder
	Logger     *zap.Logger
}

// Pipeline runs classify, name, store, sign and announce for one request.
type Pipeline struct {
	policy     Policy
	classifier classifier
	uploader   uploader
	signer     urlIssuer
	publisher  publisher
	ledger     recorder
	log        *zap.Logger
	now        func() time.Time
}

// NewPipeline wires a pipeline for policy.
func NewPipeline(policy Policy, deps Dependencies) (*Pipeline, error) {
	if policy.IssueSignedURL && deps.Signer == nil {
		return nil, ErrSignerRequired
	}
	if policy.Naming == nil {
		policy.Naming = file.StrictName
	}
	if policy.TimeLayout == "" {
		policy.TimeLayout = time.RFC3339
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		policy:     policy,
		classifier: deps.Classifier,
		uploader:   deps.Uploader,
		signer:     deps.Signer,
		publisher:  deps.Publisher,
		ledger:     deps.Ledger,
		log:        log.With(zap.String("entry_point", policy.Name)),
		now:        time.Now,
	}, nil
}

// Policy returns the pipeline's entry-point policy.
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Process handles one upload. Errors wrap ErrEmptyFilename,
// ErrExtensionNotAllowed, file.ErrStorageWrite or presigned.ErrURLIssuance.
// A failed publish is reported through Result.EventPublished.
func (p *Pipeline) Process(ctx context.Context, req Request) (Result, error) {
	if req.Filename == "" {
		return Result{}, ErrEmptyFilename
	}
	if p.policy.RejectUnknownExtensions && !p.classifier.Allowed(req.Filename) {
		return Result{}, ErrExtensionNotAllowed
	}

	// The client going away must not abandon a half-finished upload.
	ctx = context.WithoutCancel(ctx)

	at := p.now().UTC()
	key := p.policy.Naming(req.Filename, at)
	bucket := p.classifier.Classify(key)
	log := p.log
	if req.Logger != nil {
		log = req.Logger
	}
	log = log.With(zap.String("bucket", bucket), zap.String("object", key))

	stored, err := p.uploader.Store(ctx, bucket, key, req.Content, req.Size, req.ContentType)
	if err != nil {
		metrics.ObserveUpload(bucket, metrics.OutcomeFailure, 0)
		log.Error("store upload", zap.Error(err))
		return Result{}, err
	}
	metrics.ObserveUpload(bucket, metrics.OutcomeSuccess, stored.SizeBytes)

	var signedURL string
	if p.policy.IssueSignedURL {
		signedURL, err = p.signer.GenerateGetURL(ctx, bucket, key)
		if err != nil {
			// The object stays in place; no compensating delete.
			log.Error("object stored but signed url failed", zap.Error(err))
			return Result{}, err
		}
	}

	announcement := event.Announcement{
		Filename:         key,
		OriginalFilename: req.Filename,
		Bucket:           bucket,
		ContentType:      stored.ContentType,
		Size:             stored.SizeBytes,
		UploadTime:       at.Format(p.policy.TimeLayout),
		SignedURL:        signedURL,
	}
	// The row must exist before the event is visible, or a fast consumer's
	// MarkProcessed finds nothing to update.
	p.record(ctx, log, file.LedgerEntry{
		Bucket:           bucket,
		ObjectKey:        key,
		OriginalFilename: req.Filename,
		ContentType:      stored.ContentType,
		SizeBytes:        stored.SizeBytes,
		UploadedAt:       at,
	})

	published := p.publish(ctx, log, announcement)
	if published && p.ledger != nil {
		if err := p.ledger.MarkPublished(ctx, bucket, key); err != nil {
			log.Warn("mark upload published in ledger", zap.Error(err))
		}
	}

	log.Info("file uploaded", zap.Int64("size", stored.SizeBytes), zap.Bool("event_published", published))

	return Result{
		Object:         stored,
		SignedURL:      signedURL,
		Announcement:   announcement,
		EventPublished: published,
	}, nil
}

func (p *Pipeline) record(ctx context.Context, log *zap.Logger, entry file.LedgerEntry) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		log.Warn("record upload in ledger", zap.Error(err))
	}
}

func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, a event.Announcement) bool {
	if p.publisher == nil {
		metrics.ObservePublish(false)
		return false
	}
	if err := p.publisher.Publish(ctx, a); err != nil {
		log.Warn("publish upload event", zap.Error(err))
		metrics.ObservePublish(false)
		return false
	}
	metrics.ObservePublish(true)
	return true
}
