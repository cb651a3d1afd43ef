package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedEnvelope signals a delivery body that is not a Pub/Sub envelope.
	ErrMalformedEnvelope = errors.New("malformed pubsub envelope")
	// ErrMalformedAnnouncement signals an announcement that cannot be used.
	ErrMalformedAnnouncement = errors.New("malformed upload announcement")
)

// Encode serializes an announcement to compact JSON.
func Encode(a Announcement) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode announcement: %w", err)
	}
	return data, nil
}

// DecodeAnnouncement parses and validates an announcement payload.
func DecodeAnnouncement(data []byte) (Announcement, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Announcement{}, fmt.Errorf("%w: empty payload", ErrMalformedAnnouncement)
	}

	var a Announcement
	if err := json.Unmarshal(data, &a); err != nil {
		return Announcement{}, fmt.Errorf("%w: %v", ErrMalformedAnnouncement, err)
	}
	if a.Bucket == "" || a.Filename == "" {
		return Announcement{}, fmt.Errorf("%w: missing bucket or filename", ErrMalformedAnnouncement)
	}
	return a, nil
}

// DecodeEnvelope extracts the message data from a push delivery body.
func DecodeEnvelope(body []byte) (PushEnvelope, error) {
	var env PushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PushEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(env.Message.Data) == 0 {
		return PushEnvelope{}, fmt.Errorf("%w: message has no data", ErrMalformedEnvelope)
	}
	return env, nil
}
