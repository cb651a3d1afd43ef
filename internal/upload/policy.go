package upload

import (
	"time"

	"github.com/abduss/atomupload/internal/file"
)

// Policy captures the differences between the two upload entry points.
type Policy struct {
	Name string
	// Naming derives the object key from the client filename.
	Naming file.Naming
	// RejectUnknownExtensions answers 400 instead of routing to the
	// miscellaneous bucket.
	RejectUnknownExtensions bool
	// IssueSignedURL adds a signed read URL to the response and announcement.
	IssueSignedURL bool
	// IncludeMetadata echoes the announcement in the response body.
	IncludeMetadata bool
	// TimeLayout formats upload_time in the announcement.
	TimeLayout string
	// MissingFileMessage is returned when the form has no file field.
	MissingFileMessage string
}

// ServicePolicy is used by the long-running API.
var ServicePolicy = Policy{
	Name:               "service",
	Naming:             file.StrictName,
	IssueSignedURL:     true,
	TimeLayout:         time.RFC3339,
	MissingFileMessage: "No file part",
}

// FunctionPolicy is used by the single-invocation function.
var FunctionPolicy = Policy{
	Name:                    "function",
	Naming:                  file.TimestampedName,
	RejectUnknownExtensions: true,
	IncludeMetadata:         true,
	TimeLayout:              file.TimestampLayout,
	MissingFileMessage:      "No file provided",
}
