package upload

import "errors"

var (
	// ErrEmptyFilename signals a file part with an empty filename.
	ErrEmptyFilename = errors.New("empty filename")
	// ErrExtensionNotAllowed signals an extension outside the routing table
	// under a policy that rejects unknown extensions.
	ErrExtensionNotAllowed = errors.New("extension not allowed")
	// ErrSignerRequired is returned when a signing policy has no issuer.
	ErrSignerRequired = errors.New("policy issues signed urls but no signer was provided")
)
