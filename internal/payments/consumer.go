package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

// Consumer pulls payment success events from Pub/Sub and feeds the service.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	handler      Service
	logg         *logger.Logger
}

func NewConsumer(subscription *gcppubsub.Subscriber, handler Service, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("payments subscription is required")
	}
	if handler == nil {
		return nil, errors.New("payments handler is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		handler:      handler,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes payment messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	event, err := c.decodeEvent(msg)
	if err != nil {
		fields["error"] = err.Error()
		c.logg.Warn(c.logg.WithFields(ctx, fields), "invalid payment event payload")
		return processResult{}
	}
	fields["event_id"] = event.EventID
	fields["member_id"] = event.MemberID.String()
	logCtx = c.logg.WithFields(ctx, fields)

	if err := c.handler.HandlePaymentSucceeded(logCtx, *event); err != nil {
		if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "payment event dropped")
			return processResult{}
		}
		c.logg.Error(logCtx, "payment event handler failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "payment event handled")
	return processResult{}
}

func (c *Consumer) decodeEvent(msg *gcppubsub.Message) (*PaymentSucceededEvent, error) {
	var event PaymentSucceededEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, fmt.Errorf("decode payment event: %w", err)
	}
	if event.MemberID == uuid.Nil {
		return nil, errors.New("member_id missing")
	}
	return &event, nil
}
