package fluentlogger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// Config хранит конфигурацию для подключения к Fluent Bit.
type Config struct {
	Host      string // Например, "127.0.0.1" или "fluent-bit" в Docker
	Port      int    // Например, 24224
	TagPrefix string // Общий префикс для всех тегов логов сервиса
	Async     bool
	Timeout   time.Duration
	// MaxRetry - сколько раз клиент переподключается перед тем, как отбросить запись.
	MaxRetry int
	// BufferLimit - размер буфера async-режима в байтах.
	BufferLimit int
}

const (
	defaultTimeout     = 3 * time.Second
	defaultMaxRetry    = 5
	defaultBufferLimit = 1 << 20
)

// NewClient создает клиент Fluent Bit. Записи уходят с точностью до
// долей секунды, чтобы сохранить порядок строк одного запроса.
func NewClient(cfg Config) (*fluent.Fluent, error) {
	if cfg.TagPrefix == "" {
		return nil, fmt.Errorf("fluentd tag prefix is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("fluentd host is required")
	}

	fc := fluent.Config{
		FluentHost:         cfg.Host,
		FluentPort:         cfg.Port,
		TagPrefix:          cfg.TagPrefix,
		Async:              cfg.Async,
		Timeout:            cfg.Timeout,
		MaxRetry:           cfg.MaxRetry,
		BufferLimit:        cfg.BufferLimit,
		SubSecondPrecision: true,
	}
	if fc.Timeout <= 0 {
		fc.Timeout = defaultTimeout
	}
	if fc.MaxRetry <= 0 {
		fc.MaxRetry = defaultMaxRetry
	}
	if fc.BufferLimit <= 0 {
		fc.BufferLimit = defaultBufferLimit
	}

	logger, err := fluent.New(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to create fluentd logger: %w", err)
	}
	// Пинга нет: ошибки соединения проявятся при первой отправке лога.
	return logger, nil
}
