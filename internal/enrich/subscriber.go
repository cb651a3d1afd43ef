package enrich

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Run pulls deliveries from sub until ctx is cancelled. Failed deliveries
// are nacked and left to the subscription's retry policy.
func (c *Consumer) Run(ctx context.Context, sub *pubsub.Subscription, maxOutstanding int) error {
	if maxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	}

	c.log.Info("enrichment subscriber started", zap.String("subscription", sub.ID()))
	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		if err := c.Handle(ctx, m.Data); err != nil {
			c.log.Warn("nack delivery", zap.String("message_id", m.ID), zap.Error(err))
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive from %s: %w", sub.ID(), err)
	}
	return nil
}
