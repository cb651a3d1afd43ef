package file

import (
	"io"
	"time"
)

// DefaultContentType is recorded when the client declares none.
const DefaultContentType = "application/octet-stream"

// PutInput describes one object write.
type PutInput struct {
	Bucket      string
	Key         string
	Content     io.Reader
	Size        int64
	ContentType string
}

// ObjectInfo is what a backend reports about a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Created     time.Time
	Metadata    map[string]string
}

// StoredObject is the terminal effect of a successful upload.
type StoredObject struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// LedgerEntry is one row of the upload ledger.
type LedgerEntry struct {
	Bucket           string     `json:"bucket"`
	ObjectKey        string     `json:"object_key"`
	OriginalFilename string     `json:"original_filename"`
	ContentType      string     `json:"content_type"`
	SizeBytes        int64      `json:"size_bytes"`
	EventPublished   bool       `json:"event_published"`
	Processed        bool       `json:"processed"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}
