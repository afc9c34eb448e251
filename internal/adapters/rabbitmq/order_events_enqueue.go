package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/contracts"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher - то, что адаптеру нужно от rabbitmq_producer.Publisher.
type publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// eventValidator проверяет тело по схеме перед публикацией.
type eventValidator interface {
	ValidateEvent(eventType, eventVersion string, body []byte) error
}

// OrderEventsAdapter публикует orders.created в обменник витрины.
type OrderEventsAdapter struct {
	producer   publisher
	validator  eventValidator
	routingKey string
}

var _ port.OrderEventsPort = (*OrderEventsAdapter)(nil)

func NewOrderEventsAdapter(producer publisher, validator eventValidator, routingKey string) (*OrderEventsAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if validator == nil {
		return nil, fmt.Errorf("rabbitmq adapter: validator cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &OrderEventsAdapter{producer: producer, validator: validator, routingKey: routingKey}, nil
}

func toOrderCreatedDTO(order *domain.PlacedOrder) OrderCreatedEventDTO {
	items := make([]OrderItemEventDTO, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, OrderItemEventDTO{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return OrderCreatedEventDTO{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		UpstreamID: order.UpstreamID,
		SessionID:  order.SessionID,
		Payment:    string(order.Order.Payment),
		Email:      order.Order.Email,
		Phone:      order.Order.Phone,
		Address:    order.Order.Address,
		Total:      order.Order.Total,
		Items:      items,
		CreatedAt:  order.CreatedAt.UTC(),
	}
}

func (a *OrderEventsAdapter) PublishOrderCreated(ctx context.Context, order *domain.PlacedOrder) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "OrderEventsAdapter",
		"routing_key": a.routingKey,
		"order_id":    order.ID,
	})

	dto := toOrderCreatedDTO(order)
	body, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal order event: %w", err)
	}
	if err := a.validator.ValidateEvent(contracts.OrderCreatedEventType, contracts.EventVersionV1, body); err != nil {
		adapterLogger.Error("Order event does not match its contract", err, nil)
		return fmt.Errorf("rabbitmq adapter: invalid order event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    dto.EventID,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			constants.HeaderEventType:    contracts.OrderCreatedEventType,
			constants.HeaderEventVersion: contracts.EventVersionV1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers[constants.HeaderTraceID] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish order event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish order %s: %w", order.ID, err)
	}

	adapterLogger.Info("Order event published", port.Fields{"event_id": dto.EventID})
	return nil
}
