package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

type stubHandler struct {
	called bool
	event  PaymentSucceededEvent
	err    error
}

func (h *stubHandler) HandlePaymentSucceeded(ctx context.Context, event PaymentSucceededEvent) error {
	h.called = true
	h.event = event
	return h.err
}

func newTestConsumer(handler Service) *Consumer {
	return &Consumer{
		handler: handler,
		logg:    logger.New(logger.Options{ServiceName: "payments-test"}),
	}
}

func buildPaymentMessage(t *testing.T, event PaymentSucceededEvent) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &gcppubsub.Message{ID: "msg-1", Data: data}
}

func TestProcessHandlesEvent(t *testing.T) {
	handler := &stubHandler{}
	consumer := newTestConsumer(handler)

	event := PaymentSucceededEvent{
		EventID:  uuid.NewString(),
		MemberID: uuid.New(),
		Items:    []PurchasedItem{{ProductID: uuid.New(), Quantity: 2}},
	}
	res := consumer.process(context.Background(), buildPaymentMessage(t, event))
	if res.nack {
		t.Fatalf("expected ack, got nack")
	}
	if !handler.called {
		t.Fatal("handler should be invoked")
	}
	if handler.event.MemberID != event.MemberID {
		t.Fatalf("unexpected member id %s", handler.event.MemberID)
	}
	if len(handler.event.Items) != 1 || handler.event.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", handler.event.Items)
	}
}

func TestProcessInvalidPayloadAcks(t *testing.T) {
	handler := &stubHandler{}
	consumer := newTestConsumer(handler)

	msg := &gcppubsub.Message{ID: "msg-1", Data: []byte("not json")}
	res := consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatalf("invalid payload should ack")
	}
	if handler.called {
		t.Fatal("handler should not be invoked")
	}
}

func TestProcessMissingMemberAcks(t *testing.T) {
	handler := &stubHandler{}
	consumer := newTestConsumer(handler)

	res := consumer.process(context.Background(), buildPaymentMessage(t, PaymentSucceededEvent{EventID: "evt-1"}))
	if res.nack {
		t.Fatalf("missing member should ack")
	}
	if handler.called {
		t.Fatal("handler should not be invoked")
	}
}

func TestProcessRetryableErrorNacks(t *testing.T) {
	handler := &stubHandler{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "insert entitlement")}
	consumer := newTestConsumer(handler)

	event := PaymentSucceededEvent{EventID: "evt-1", MemberID: uuid.New()}
	res := consumer.process(context.Background(), buildPaymentMessage(t, event))
	if !res.nack {
		t.Fatalf("expected nack on dependency error")
	}
}

func TestProcessNonRetryableErrorAcks(t *testing.T) {
	handler := &stubHandler{err: pkgerrors.New(pkgerrors.CodeValidation, "bad line")}
	consumer := newTestConsumer(handler)

	event := PaymentSucceededEvent{EventID: "evt-1", MemberID: uuid.New()}
	res := consumer.process(context.Background(), buildPaymentMessage(t, event))
	if res.nack {
		t.Fatalf("non-retryable error should ack")
	}
}

func TestNewConsumerRequiresCollaborators(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "payments-test"})
	if _, err := NewConsumer(nil, &stubHandler{}, logg); err == nil {
		t.Fatal("expected error without subscription")
	}
	if _, err := NewConsumer(&gcppubsub.Subscriber{}, nil, logg); err == nil {
		t.Fatal("expected error without handler")
	}
	if _, err := NewConsumer(&gcppubsub.Subscriber{}, &stubHandler{}, nil); err == nil {
		t.Fatal("expected error without logger")
	}
}
