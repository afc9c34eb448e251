package constants

// Обменники
const (
	StorefrontExchange     = "storefront_exchange"
	StorefrontExchangeType = "direct"
)

// Имена очередей
const (
	QueueCatalogUpdates = "catalog_updates"
)

// Ключи маршрутизации
const (
	RoutingKeyOrderCreated   = "orders.created"
	RoutingKeyCatalogUpdated = "catalog.updated"
)

// Ретраи и финальная DLQ для обновлений каталога
const (
	CatalogUpdatesRetryExchange = "catalog_updates_retry"
	CatalogUpdatesRetryQueue    = "catalog_updates_retry_wait"
	CatalogUpdatesRetryTTL      = 5000 // мс
	CatalogUpdatesMaxRetries    = 3

	FinalDLXExchange   = "catalog_updates_final_dlx"
	FinalDLQ           = "catalog_updates_final_dlq"
	FinalDLQRoutingKey = "catalog.dlq.key"
)

// Заголовки сообщений
const (
	HeaderTraceID      = "x-trace-id"
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)
