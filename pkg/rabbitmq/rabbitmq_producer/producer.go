package rabbitmq_producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"web-larek/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed - брокер ответил nack: сообщение не сохранено.
var ErrNotConfirmed = errors.New("producer: message was not confirmed by broker")

// PublisherConfig конфигурация для производителя
type PublisherConfig struct {
	rabbitmq_common.Config
	ExchangeName    string // Имя обменника для публикации
	ExchangeType    string // direct, fanout, topic, headers
	DurableExchange bool
	ExchangeArgs    amqp.Table

	// Если false, производитель считает, что обменник уже существует
	DeclareExchangeIfMissing bool

	// ConfirmPublish включает publisher confirms: Publish ждет ack брокера.
	ConfirmPublish bool
	// Mandatory: сообщение без подходящей очереди возвращается брокером.
	Mandatory bool

	Logger rabbitmq_common.Logger
}

func (cfg PublisherConfig) validate() error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid base config: %w", err)
	}
	if cfg.DeclareExchangeIfMissing && (cfg.ExchangeName == "" || cfg.ExchangeType == "") {
		return fmt.Errorf("producer: exchange name and type are required to declare an exchange")
	}
	return nil
}

// Publisher публикует сообщения в один обменник.
// Канал AMQP не потокобезопасен, поэтому Publish сериализован мьютексом.
// Закрытый канал (после обрыва соединения) открывается заново при следующем Publish.
type Publisher struct {
	config      PublisherConfig
	connManager *rabbitmq_common.ConnectionManager
	channel     *amqp.Channel
	mu          sync.Mutex

	Logger rabbitmq_common.Logger
}

// NewPublisher создает производителя и сразу открывает канал,
// чтобы ошибки топологии всплыли при старте.
func NewPublisher(cfg PublisherConfig, connManager *rabbitmq_common.ConnectionManager) (*Publisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if connManager == nil {
		return nil, fmt.Errorf("producer: connection manager is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	p := &Publisher{config: cfg, connManager: connManager, Logger: logger}
	if err := p.openChannel(); err != nil {
		return nil, err
	}
	return p, nil
}

// openChannel вызывается под p.mu (или до того, как Publisher стал доступен).
func (p *Publisher) openChannel() error {
	_, ch, err := p.connManager.GetChannel()
	if err != nil {
		return fmt.Errorf("producer: failed to get channel from manager: %w", err)
	}

	if p.config.ConfirmPublish {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return fmt.Errorf("producer: failed to enable confirm mode: %w", err)
		}
	}

	if p.config.DeclareExchangeIfMissing {
		p.Logger.Debug("Declaring exchange", "name", p.config.ExchangeName, "type", p.config.ExchangeType)
		err = ch.ExchangeDeclare(
			p.config.ExchangeName,
			p.config.ExchangeType,
			p.config.DurableExchange,
			false, // auto-delete
			false, // internal
			false, // no-wait
			p.config.ExchangeArgs,
		)
		if err != nil {
			_ = ch.Close()
			return fmt.Errorf("producer: failed to declare exchange '%s': %w", p.config.ExchangeName, err)
		}
	}

	p.channel = ch
	p.Logger.Debug("Producer channel opened", "confirm", p.config.ConfirmPublish)
	return nil
}

// Publish публикует сообщение. В режиме confirms возвращает ошибку,
// если брокер не подтвердил сообщение до отмены ctx.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		p.Logger.Warn("Producer channel is closed, reopening")
		if err := p.openChannel(); err != nil {
			return err
		}
	}

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.ExchangeName,
		routingKey,
		p.config.Mandatory,
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	if confirmation == nil {
		return nil
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("producer: waiting for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// Close закрывает канал производителя. Соединение принадлежит ConnectionManager.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		p.Logger.Error(err, "Error closing producer channel")
		return err
	}
	p.Logger.Info("Producer closed.")
	return nil
}
