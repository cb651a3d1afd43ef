package event

import "time"

// DefaultTopic is the topic upload announcements are published to.
const DefaultTopic = "file-uploads"

// Announcement is the upload event payload.
type Announcement struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Bucket           string `json:"bucket"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	UploadTime       string `json:"upload_time"`
	SignedURL        string `json:"signed_url,omitempty"`
}

// PushEnvelope is the body Pub/Sub delivers to push endpoints and the
// CloudEvent data of a Pub/Sub triggered function.
type PushEnvelope struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

// PushMessage is the message part of a PushEnvelope. Data is base64 on the
// wire and decoded by encoding/json.
type PushMessage struct {
	Data        []byte            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId"`
	PublishTime time.Time         `json:"publishTime"`
}
