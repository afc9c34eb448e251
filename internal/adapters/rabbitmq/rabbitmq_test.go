package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/contracts"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
	"web-larek/pkg/rabbitmq/rabbitmq_consumer"
)

type capturedPublish struct {
	routingKey string
	msg        amqp.Publishing
	deadline   bool
}

type fakePublisher struct {
	published []capturedPublish
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	_, hasDeadline := ctx.Deadline()
	p.published = append(p.published, capturedPublish{routingKey: routingKey, msg: msg, deadline: hasDeadline})
	return nil
}

type fakeInvalidate struct {
	calls [][]string
	err   error
}

func (f *fakeInvalidate) Execute(ctx context.Context, productIDs []string) error {
	f.calls = append(f.calls, productIDs)
	return f.err
}

func placedOrder() *domain.PlacedOrder {
	return &domain.PlacedOrder{
		ID:         uuid.NewString(),
		SessionID:  "session-1",
		UpstreamID: "28c57cb4-3002-4445-8aa1-2a06a5055ae5",
		Order: domain.OrderServer{
			Payment: domain.PaymentCash,
			Email:   "buyer@example.com",
			Phone:   "+71234567890",
			Address: "Москва",
			Items:   []string{"p1", "p1"},
			Total:   1500,
		},
		Lines:     []domain.OrderLine{{ProductID: "p1", Title: "+1 час в сутках", Quantity: 2, Price: 750}},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewOrderEventsAdapter_Validation(t *testing.T) {
	_, err := NewOrderEventsAdapter(nil, contracts.MustDefault(), "k")
	assert.Error(t, err)
	_, err = NewOrderEventsAdapter(&fakePublisher{}, nil, "k")
	assert.Error(t, err)
	_, err = NewOrderEventsAdapter(&fakePublisher{}, contracts.MustDefault(), "")
	assert.Error(t, err)
}

func TestOrderEventsAdapter_PublishesValidatedEvent(t *testing.T) {
	pub := &fakePublisher{}
	adapter, err := NewOrderEventsAdapter(pub, contracts.MustDefault(), constants.RoutingKeyOrderCreated)
	require.NoError(t, err)

	order := placedOrder()
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-42")
	require.NoError(t, adapter.PublishOrderCreated(ctx, order))

	require.Len(t, pub.published, 1)
	got := pub.published[0]
	assert.Equal(t, constants.RoutingKeyOrderCreated, got.routingKey)
	assert.True(t, got.deadline)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), got.msg.DeliveryMode)
	assert.Equal(t, "trace-42", got.msg.Headers[constants.HeaderTraceID])
	assert.Equal(t, contracts.OrderCreatedEventType, got.msg.Headers[constants.HeaderEventType])

	var body OrderCreatedEventDTO
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, order.ID, body.OrderID)
	assert.Equal(t, got.msg.MessageId, body.EventID)
	assert.Equal(t, "cash", body.Payment)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
}

func TestOrderEventsAdapter_RejectsEventBreakingContract(t *testing.T) {
	pub := &fakePublisher{}
	adapter, err := NewOrderEventsAdapter(pub, contracts.MustDefault(), constants.RoutingKeyOrderCreated)
	require.NoError(t, err)

	order := placedOrder()
	order.Lines = nil

	err = adapter.PublishOrderCreated(context.Background(), order)
	assert.Error(t, err)
	assert.Empty(t, pub.published)
}

func TestOrderEventsAdapter_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	adapter, err := NewOrderEventsAdapter(pub, contracts.MustDefault(), constants.RoutingKeyOrderCreated)
	require.NoError(t, err)

	err = adapter.PublishOrderCreated(context.Background(), placedOrder())
	assert.ErrorContains(t, err, "channel closed")
}

func catalogUpdate(t *testing.T, ids ...string) []byte {
	t.Helper()
	body, err := json.Marshal(CatalogUpdatedEventDTO{
		EventID:    uuid.NewString(),
		ProductIDs: ids,
		Reason:     "price_changed",
		UpdatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return body
}

func TestCatalogUpdatesHandler_InvalidatesCache(t *testing.T) {
	uc := &fakeInvalidate{}
	handler := newCatalogUpdatesHandler(uc, contracts.MustDefault(), contextkeys.NoopLogger())

	err := handler.handleMessage(amqp.Delivery{
		Body:    catalogUpdate(t, "p1", "p2"),
		Headers: amqp.Table{constants.HeaderTraceID: "trace-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p1", "p2"}}, uc.calls)
}

func TestCatalogUpdatesHandler_RejectsInvalidMessages(t *testing.T) {
	uc := &fakeInvalidate{}
	handler := newCatalogUpdatesHandler(uc, contracts.MustDefault(), contextkeys.NoopLogger())

	assert.ErrorIs(t, handler.handleMessage(amqp.Delivery{Body: []byte(`{"reason":"no id"}`)}), rabbitmq_consumer.ErrPermanent)
	assert.ErrorIs(t, handler.handleMessage(amqp.Delivery{Body: []byte(`not json`)}), rabbitmq_consumer.ErrPermanent)
	assert.Empty(t, uc.calls)
}

func TestCatalogUpdatesHandler_UseCaseErrorIsReturnedForRetry(t *testing.T) {
	uc := &fakeInvalidate{err: errors.New("redis is down")}
	handler := newCatalogUpdatesHandler(uc, contracts.MustDefault(), contextkeys.NoopLogger())

	err := handler.handleMessage(amqp.Delivery{Body: catalogUpdate(t)})
	assert.ErrorContains(t, err, "redis is down")
	assert.NotErrorIs(t, err, rabbitmq_consumer.ErrPermanent)
}

func TestCatalogUpdatesConsumerAdapter_NotInitialized(t *testing.T) {
	handler := newCatalogUpdatesHandler(&fakeInvalidate{}, contracts.MustDefault(), contextkeys.NoopLogger())
	assert.Error(t, handler.Start(context.Background()))
	assert.NoError(t, handler.Close())
}

type capturingLogger struct {
	fields port.Fields
}

func (l *capturingLogger) Info(msg string, fields port.Fields)             { l.fields = fields }
func (l *capturingLogger) Warn(msg string, fields port.Fields)             { l.fields = fields }
func (l *capturingLogger) Error(msg string, err error, fields port.Fields) { l.fields = fields }
func (l *capturingLogger) Debug(msg string, fields port.Fields)            { l.fields = fields }
func (l *capturingLogger) WithFields(fields port.Fields) port.LoggerPort   { return l }

func TestPkgLoggerBridge_ToFields(t *testing.T) {
	inner := &capturingLogger{}
	bridge := NewPkgLoggerBridge(inner)

	bridge.Info("connected", "url", "amqp://localhost", 42, "skipped", "dangling")
	assert.Equal(t, port.Fields{"url": "amqp://localhost"}, inner.fields)

	bridge.Error(errors.New("boom"), "failed", "attempt", 3)
	assert.Equal(t, port.Fields{"attempt": 3}, inner.fields)
}
