package file

import "errors"

var (
	// ErrStorageWrite signals that an object could not be written after retries.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrObjectNotFound signals that the object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrBucketNotFound signals that the destination bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrAccessDenied signals a credential or permission failure.
	ErrAccessDenied = errors.New("access denied")
)

// permanent reports whether retrying err cannot succeed.
func permanent(err error) bool {
	return errors.Is(err, ErrBucketNotFound) || errors.Is(err, ErrAccessDenied)
}
