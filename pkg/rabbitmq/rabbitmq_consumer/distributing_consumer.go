package rabbitmq_consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"web-larek/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение.
// Пакет сам решает, делать ack, отправлять на ретрай или в финальную DLQ.
type MessageHandler func(delivery amqp.Delivery) error

// ErrPermanent помечает ошибки, которые ретрай не исправит (битое тело, нарушение
// контракта). Такие сообщения сразу уходят в финальную DLQ.
var ErrPermanent = errors.New("permanent message error")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() []error { return []error{e.err, ErrPermanent} }

// Permanent оборачивает ошибку обработчика так, что errors.Is(err, ErrPermanent) истинно.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Consumer - общий контракт потребителей пакета
type Consumer interface {
	StartConsuming(ctx context.Context) error
	Close() error
}

type dlxPublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
	Close() error
}

// DistributingConsumer обрабатывает каждое сообщение в отдельной горутине
type DistributingConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
}

var _ Consumer = (*DistributingConsumer)(nil)

// NewDistributingConsumer создает нового потребителя
func NewDistributingConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*DistributingConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("distributing Consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("distributing Consumer: %w", err)
	}

	return &DistributingConsumer{
		baseConsumer: bc,
		handler:      handler,
	}, nil
}

// StartConsuming блокируется до отмены контекста или закрытия соединения
func (c *DistributingConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer
	if bc.channel == nil || bc.connection == nil || bc.connection.IsClosed() {
		return fmt.Errorf("distributing Consumer: not connected")
	}

	msgs, err := bc.channel.Consume(
		bc.actualQueueName,
		bc.config.ConsumerTag,
		false, // auto-ack
		bc.config.ExclusiveConsumer,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("distributing Consumer %s: failed to register a consumer on queue '%s': %w", bc.config.ConsumerTag, bc.actualQueueName, err)
	}

	bc.Logger.Info("[*] Waiting for messages on queue", "queue_name", bc.actualQueueName)

	go func() {
		for {
			// Приоритетная проверка: не берем новых сообщений после команды на остановку
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				bc.Logger.Info("Context cancelled for consumer. Exiting consumption loop.", "consumer_tag", bc.config.ConsumerTag)
				return
			case d, ok := <-msgs:
				if !ok {
					bc.Logger.Info("Deliveries channel closed by RabbitMQ. Exiting loop.", "consumer_tag", bc.config.ConsumerTag)
					return
				}
				bc.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer bc.wg.Done()
					c.handleDelivery(delivery)
				}(d)
			}
		}
	}()

	notifyClose := bc.connection.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-ctx.Done():
		bc.Logger.Info("Context cancelled. Shutting down consumer.", "consumer_tag", bc.config.ConsumerTag)
		return nil
	case amqpErr := <-notifyClose:
		if amqpErr == nil {
			return fmt.Errorf("distributing Consumer %s: connection closed", bc.config.ConsumerTag)
		}
		bc.Logger.Error(amqpErr, "Connection closed for consumer.", "consumer_tag", bc.config.ConsumerTag)
		return amqpErr
	}
}

// handleDelivery вызывает обработчик и решает судьбу сообщения
func (c *DistributingConsumer) handleDelivery(delivery amqp.Delivery) {
	bc := c.baseConsumer
	tag := bc.config.ConsumerTag

	processErr := c.handler(delivery)
	if processErr == nil {
		_ = delivery.Ack(false)
		bc.Logger.Debug("[+] Message Ack'd", "consumer_tag", tag, "delivery_tag", delivery.DeliveryTag)
		return
	}

	bc.Logger.Error(processErr, "Handler error for message", "consumer_tag", tag, "delivery_tag", delivery.DeliveryTag)

	if !bc.config.EnableRetryMechanism {
		_ = delivery.Nack(false, false)
		return
	}

	if errors.Is(processErr, ErrPermanent) {
		bc.Logger.Warn("Permanent handler error. Publishing to final DLX without retries.", "consumer_tag", tag, "delivery_tag", delivery.DeliveryTag)
		c.toFinalDLQ(delivery)
		return
	}

	deaths := deathCount(delivery, bc.actualQueueName)
	if deaths < int64(bc.config.MaxRetries) {
		bc.Logger.Info("Retrying message", "consumer_tag", tag, "delivery_tag", delivery.DeliveryTag, "death_count", deaths)
		_ = delivery.Nack(false, false)
		return
	}

	bc.Logger.Warn("Max retries reached for message. Publishing to final DLX.", "consumer_tag", tag, "delivery_tag", delivery.DeliveryTag)
	c.toFinalDLQ(delivery)
}

// toFinalDLQ копирует сообщение в финальный DLX и подтверждает оригинал.
func (c *DistributingConsumer) toFinalDLQ(delivery amqp.Delivery) {
	bc := c.baseConsumer
	err := bc.finalDlxPublisher.Publish(
		context.Background(),
		bc.config.FinalDLQRoutingKey,
		amqp.Publishing{
			ContentType:  delivery.ContentType,
			Body:         delivery.Body,
			Headers:      delivery.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		bc.Logger.Error(err, "Failed to publish to final DLX. Nacking to trigger retry loop again.", "consumer_tag", bc.config.ConsumerTag)
		_ = delivery.Nack(false, false)
		return
	}
	_ = delivery.Ack(false)
}

// Close закрывает потребителя
func (c *DistributingConsumer) Close() error {
	c.baseConsumer.Logger.Info("Closing consumer")
	return c.baseConsumer.Close()
}
