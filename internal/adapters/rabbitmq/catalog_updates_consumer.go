package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/contracts"
	"web-larek/internal/core/port"
	"web-larek/internal/core/port/usecases_port"
	"web-larek/pkg/rabbitmq/rabbitmq_common"
	"web-larek/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CatalogUpdatesConsumerAdapter слушает catalog.updated и сбрасывает кэш каталога.
type CatalogUpdatesConsumerAdapter struct {
	consumer  rabbitmq_consumer.Consumer
	useCase   usecases_port.InvalidateCatalogUseCasePort
	validator eventValidator
	logger    port.LoggerPort
}

var _ port.EventListenerPort = (*CatalogUpdatesConsumerAdapter)(nil)

func NewCatalogUpdatesConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.InvalidateCatalogUseCasePort,
	validator eventValidator,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*CatalogUpdatesConsumerAdapter, error) {
	adapter := newCatalogUpdatesHandler(useCase, validator, logger)

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.handleMessage, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for catalog updates: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

func newCatalogUpdatesHandler(useCase usecases_port.InvalidateCatalogUseCasePort, validator eventValidator, logger port.LoggerPort) *CatalogUpdatesConsumerAdapter {
	return &CatalogUpdatesConsumerAdapter{useCase: useCase, validator: validator, logger: logger}
}

// handleMessage: ошибка use case'а возвращает сообщение на ретрай, а после лимита - в DLQ.
// Нарушение контракта и битый JSON отправляются в DLQ сразу.
func (a *CatalogUpdatesConsumerAdapter) handleMessage(d amqp.Delivery) error {
	traceID, _ := d.Headers[constants.HeaderTraceID].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}
	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"adapter_name": "CatalogUpdatesConsumerAdapter",
		"message_id":   d.MessageId,
	})
	ctx := contextkeys.ContextWithTraceID(context.Background(), traceID)
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)

	if err := a.validator.ValidateEvent(contracts.CatalogUpdatedEventType, contracts.EventVersionV1, d.Body); err != nil {
		msgLogger.Error("Catalog update does not match its contract", err, nil)
		return rabbitmq_consumer.Permanent(err)
	}

	var event CatalogUpdatedEventDTO
	if err := json.Unmarshal(d.Body, &event); err != nil {
		msgLogger.Error("Failed to unmarshal catalog update", err, nil)
		return rabbitmq_consumer.Permanent(err)
	}

	msgLogger.Info("Catalog update received", port.Fields{"event_id": event.EventID, "products": len(event.ProductIDs)})
	return a.useCase.Execute(ctx, event.ProductIDs)
}

// Start блокируется до отмены ctx
func (a *CatalogUpdatesConsumerAdapter) Start(ctx context.Context) error {
	if a.consumer == nil {
		return fmt.Errorf("catalog updates consumer is not initialized")
	}
	return a.consumer.StartConsuming(ctx)
}

func (a *CatalogUpdatesConsumerAdapter) Close() error {
	if a.consumer == nil {
		return nil
	}
	return a.consumer.Close()
}
