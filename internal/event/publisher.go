package event

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

const publishTimeout = 30 * time.Second

// Publisher sends announcements to a single topic and waits for the ack.
type Publisher struct {
	topic *pubsub.Topic
}

// NewPublisher binds a publisher to topicID on client.
func NewPublisher(client *pubsub.Client, topicID string) *Publisher {
	topic := client.Topic(topicID)
	// One message per request; do not hold it back for batching.
	topic.PublishSettings.CountThreshold = 1
	return &Publisher{topic: topic}
}

// Publish blocks until the broker acknowledges the message.
func (p *Publisher) Publish(ctx context.Context, a Announcement) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	attrs := map[string]string{"bucket": a.Bucket}
	if a.ContentType != "" {
		attrs["content_type"] = a.ContentType
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic.ID(), err)
	}
	return nil
}

// Stop flushes pending messages and releases the topic's goroutines.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
