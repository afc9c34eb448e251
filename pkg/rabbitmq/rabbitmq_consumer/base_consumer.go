package rabbitmq_consumer

import (
	"fmt"
	"sync"

	"web-larek/pkg/rabbitmq/rabbitmq_common"
	"web-larek/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig конфигурация для потребителя
type ConsumerConfig struct {
	rabbitmq_common.Config
	// Очередь
	QueueName       string // если пусто, имя будет сгенерировано сервером
	DeclareQueue    bool
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table
	// Обменник для привязки (если пусто, привязка не выполняется)
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	ExchangeArgsForBind    amqp.Table
	// Привязка
	RoutingKeyForBind string
	BindingArgs       amqp.Table
	// QoS
	PrefetchCount int
	PrefetchSize  int
	QosGlobal     bool
	// Потребитель
	ConsumerTag       string
	ExclusiveConsumer bool

	// Ретраи: основная очередь -> retry exchange -> wait-очередь с TTL -> основной обменник.
	// После MaxRetries сообщение уходит в финальную DLQ.
	EnableRetryMechanism bool
	RetryExchange        string
	RetryQueue           string
	RetryTTL             int // миллисекунды
	FinalDLXExchange     string
	FinalDLQ             string
	FinalDLQRoutingKey   string
	MaxRetries           int

	Logger rabbitmq_common.Logger
}

func (cfg ConsumerConfig) validate() error {
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return fmt.Errorf("queue name is required if DeclareQueue is false")
	}
	if cfg.ExchangeNameForBind != "" && cfg.ExchangeTypeForBind == "" && cfg.DeclareExchangeForBind {
		return fmt.Errorf("exchange type is required if declaring an exchange for binding")
	}
	if cfg.EnableRetryMechanism {
		if cfg.RetryExchange == "" || cfg.RetryQueue == "" || cfg.FinalDLXExchange == "" || cfg.FinalDLQ == "" {
			return fmt.Errorf("retry mechanism requires RetryExchange, RetryQueue, FinalDLXExchange and FinalDLQ")
		}
		if cfg.RetryTTL <= 0 {
			return fmt.Errorf("retry mechanism requires a positive RetryTTL")
		}
	}
	return nil
}

// baseConsumer содержит общую логику канала, QoS, топологии и ретраев
type baseConsumer struct {
	config            ConsumerConfig
	connection        *amqp.Connection
	channel           *amqp.Channel
	actualQueueName   string
	finalDlxPublisher dlxPublisher
	wg                sync.WaitGroup

	Logger rabbitmq_common.Logger
}

func newBaseConsumer(cfg ConsumerConfig, connManager *rabbitmq_common.ConnectionManager) (*baseConsumer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("base Consumer: invalid config: %w", err)
	}
	if connManager == nil {
		return nil, fmt.Errorf("base Consumer: connection manager is required")
	}

	c := &baseConsumer{
		config: cfg,
		Logger: logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("base Consumer: failed to get channel from manager: %w", err)
	}
	c.connection = conn
	c.channel = ch
	c.Logger.Debug("Channel obtained from ConnectionManager")

	if err := c.setupTopology(); err != nil {
		_ = c.channel.Close()
		return nil, fmt.Errorf("base Consumer: setup failed: %w", err)
	}

	if cfg.EnableRetryMechanism {
		dlxPublisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   cfg.Config,
			ExchangeName:             cfg.FinalDLXExchange,
			DeclareExchangeIfMissing: false, // уже объявлен в setupTopology
			Logger:                   logger,
		}, connManager)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("base Consumer: failed to create final DLX publisher: %w", err)
		}
		c.finalDlxPublisher = dlxPublisher
	}

	return c, nil
}

// topologyStep - одна декларация на канале; шаги выполняются по порядку.
type topologyStep struct {
	name string
	run  func(ch *amqp.Channel) error
}

// setupTopology настраивает QoS, очередь, привязку и инфраструктуру ретраев
func (c *baseConsumer) setupTopology() error {
	if c.config.EnableRetryMechanism {
		if c.config.QueueArgs == nil {
			c.config.QueueArgs = amqp.Table{}
		}
		// отклоненные сообщения основной очереди уходят в retry-exchange
		c.config.QueueArgs["x-dead-letter-exchange"] = c.config.RetryExchange
	}
	c.actualQueueName = c.config.QueueName

	for _, step := range c.topologySteps() {
		c.Logger.Debug("Topology step", "step", step.name)
		if err := step.run(c.channel); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	c.Logger.Debug("Setup complete", "queue", c.actualQueueName)
	return nil
}

func (c *baseConsumer) topologySteps() []topologyStep {
	cfg := c.config
	var steps []topologyStep

	if cfg.PrefetchCount > 0 || cfg.PrefetchSize > 0 {
		steps = append(steps, topologyStep{"qos", func(ch *amqp.Channel) error {
			return ch.Qos(cfg.PrefetchCount, cfg.PrefetchSize, cfg.QosGlobal)
		}})
	}
	if cfg.DeclareQueue {
		steps = append(steps, topologyStep{"declare queue " + cfg.QueueName, func(ch *amqp.Channel) error {
			q, err := ch.QueueDeclare(cfg.QueueName, cfg.DurableQueue, cfg.AutoDeleteQueue, cfg.ExclusiveQueue, false, cfg.QueueArgs)
			if err != nil {
				return err
			}
			c.actualQueueName = q.Name
			return nil
		}})
	}
	if cfg.DeclareExchangeForBind {
		steps = append(steps, topologyStep{"declare exchange " + cfg.ExchangeNameForBind, func(ch *amqp.Channel) error {
			return ch.ExchangeDeclare(cfg.ExchangeNameForBind, cfg.ExchangeTypeForBind, cfg.DurableExchangeForBind, false, false, false, cfg.ExchangeArgsForBind)
		}})
	}
	if cfg.ExchangeNameForBind != "" {
		steps = append(steps, topologyStep{"bind queue to " + cfg.ExchangeNameForBind, func(ch *amqp.Channel) error {
			return ch.QueueBind(c.actualQueueName, cfg.RoutingKeyForBind, cfg.ExchangeNameForBind, false, cfg.BindingArgs)
		}})
	}
	if cfg.EnableRetryMechanism {
		steps = append(steps, retrySteps(cfg)...)
	}
	return steps
}

// retrySteps: финальный DLX/DLQ и wait-очередь с TTL, которая возвращает
// сообщение в основной обменник с исходным ключом.
func retrySteps(cfg ConsumerConfig) []topologyStep {
	waitArgs := amqp.Table{
		"x-message-ttl":             int32(cfg.RetryTTL),
		"x-dead-letter-exchange":    cfg.ExchangeNameForBind,
		"x-dead-letter-routing-key": cfg.RoutingKeyForBind,
	}
	return []topologyStep{
		{"declare final DLX", func(ch *amqp.Channel) error {
			return ch.ExchangeDeclare(cfg.FinalDLXExchange, amqp.ExchangeDirect, true, false, false, false, nil)
		}},
		{"declare final DLQ", func(ch *amqp.Channel) error {
			_, err := ch.QueueDeclare(cfg.FinalDLQ, true, false, false, false, nil)
			return err
		}},
		{"bind final DLQ", func(ch *amqp.Channel) error {
			return ch.QueueBind(cfg.FinalDLQ, cfg.FinalDLQRoutingKey, cfg.FinalDLXExchange, false, nil)
		}},
		{"declare retry exchange", func(ch *amqp.Channel) error {
			return ch.ExchangeDeclare(cfg.RetryExchange, amqp.ExchangeFanout, true, false, false, false, nil)
		}},
		{"declare retry-wait queue", func(ch *amqp.Channel) error {
			_, err := ch.QueueDeclare(cfg.RetryQueue, true, false, false, false, waitArgs)
			return err
		}},
		{"bind retry-wait queue", func(ch *amqp.Channel) error {
			return ch.QueueBind(cfg.RetryQueue, "", cfg.RetryExchange, false, nil)
		}},
	}
}

// deathCount возвращает, сколько раз сообщение "умирало" в указанной очереди (заголовок x-death)
func deathCount(d amqp.Delivery, queueName string) int64 {
	if d.Headers == nil {
		return 0
	}
	deaths, ok := d.Headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	for _, death := range deaths {
		tbl, ok := death.(amqp.Table)
		if !ok {
			continue
		}
		if queue, ok := tbl["queue"].(string); ok && queue == queueName {
			if count, ok := tbl["count"].(int64); ok {
				return count
			}
		}
	}
	return 0
}

// Close дожидается обработчиков и закрывает канал потребителя
func (c *baseConsumer) Close() error {
	c.Logger.Debug("Waiting for message handlers to finish...")
	c.wg.Wait()

	var firstErr error
	if c.finalDlxPublisher != nil {
		if err := c.finalDlxPublisher.Close(); err != nil {
			c.Logger.Error(err, "Error closing final DLX publisher")
			firstErr = err
		}
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.Logger.Error(err, "Error closing channel")
			if firstErr == nil {
				firstErr = err
			}
		}
		c.channel = nil
	}

	c.Logger.Info("Consumer closed")
	return firstErr
}
