package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"web-larek/internal/adapters/eventbus"
	larek_api_client "web-larek/internal/adapters/larek_api_client"
	logger_adapter "web-larek/internal/adapters/logger"
	"web-larek/internal/adapters/memory"
	"web-larek/internal/adapters/notifier"
	postgres_adapter "web-larek/internal/adapters/postgres"
	rabbitmq_adapter "web-larek/internal/adapters/rabbitmq"
	redis_adapter "web-larek/internal/adapters/redis"
	"web-larek/internal/adapters/rest"
	"web-larek/internal/adapters/view"
	"web-larek/internal/configs"
	"web-larek/internal/constants"
	"web-larek/internal/contracts"
	"web-larek/internal/core/port"
	"web-larek/internal/core/usecase"
	fluentlogger "web-larek/pkg/fluent_logger"
	"web-larek/pkg/postgres"
	"web-larek/pkg/rabbitmq/rabbitmq_common"
	"web-larek/pkg/rabbitmq/rabbitmq_consumer"
	"web-larek/pkg/rabbitmq/rabbitmq_producer"
	pkgredis "web-larek/pkg/redis"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionSweepInterval = time.Minute
)

type App struct {
	config    *configs.AppConfig
	dbPool    *pgxpool.Pool
	redis     *goredis.Client
	apiServer *rest.Server
	notifier  *notifier.SSENotifier

	connManager           *rabbitmq_common.ConnectionManager
	orderPublisher        *rabbitmq_producer.Publisher
	catalogUpdateListener port.EventListenerPort

	// sweeper есть только у хранилища сессий в памяти
	sweeper *memory.SessionStore

	logger       port.LoggerPort
	fluentClient *fluent.Fluent
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.JSON,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	application := &App{config: appConfig, logger: appLogger, fluentClient: fluentClient}
	ctx := context.Background()

	// --- 3. POSTGRESQL: история заказов ---
	application.dbPool, err = postgres.NewClient(ctx, postgres.Config{
		DatabaseURL:     appConfig.Database.URL,
		ConnectAttempts: 5,
	})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		application.closeResources()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	orderRepo, err := postgres_adapter.NewPostgresOrderRepository(application.dbPool)
	if err != nil {
		application.closeResources()
		return nil, fmt.Errorf("failed to create postgres order repository: %w", err)
	}
	if err := orderRepo.ApplySchema(ctx); err != nil {
		appLogger.Error("Failed to apply order schema", err, nil)
		application.closeResources()
		return nil, fmt.Errorf("failed to apply order schema: %w", err)
	}

	// --- 4. СЕССИИ И КЭШ КАТАЛОГА: Redis или память процесса ---
	var sessionStore port.SessionStorePort
	var catalogCache port.CatalogCachePort
	if appConfig.Redis.Enabled {
		application.redis, err = pkgredis.NewClient(ctx, pkgredis.Config{URL: appConfig.Redis.URL})
		if err != nil {
			appLogger.Error("Failed to connect to Redis", err, nil)
			application.closeResources()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		redisSessions, err := redis_adapter.NewSessionStore(application.redis, appConfig.Session.TTL)
		if err != nil {
			application.closeResources()
			return nil, err
		}
		redisCatalog, err := redis_adapter.NewCatalogCache(application.redis, appConfig.Catalog.CacheTTL)
		if err != nil {
			application.closeResources()
			return nil, err
		}
		sessionStore, catalogCache = redisSessions, redisCatalog
		appLogger.Info("Redis session store initialized.", nil)
	} else {
		memorySessions := memory.NewSessionStore(appConfig.Session.TTL)
		application.sweeper = memorySessions
		sessionStore, catalogCache = memorySessions, memory.NewCatalogCache()
		appLogger.Warn("Redis is disabled, sessions are kept in memory.", nil)
	}

	// --- 5. RABBITMQ: публикация заказов ---
	var orderEvents port.OrderEventsPort
	if appConfig.RabbitMQ.Enabled {
		connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
		application.connManager, err = rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL}, connManagerBridge)
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			application.closeResources()
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}

		application.orderPublisher, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.StorefrontExchange,
			ExchangeType:             constants.StorefrontExchangeType,
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			ConfirmPublish:           true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
		}, application.connManager)
		if err != nil {
			appLogger.Error("Failed to create order publisher", err, nil)
			application.closeResources()
			return nil, fmt.Errorf("failed to create order publisher: %w", err)
		}

		orderEventsAdapter, err := rabbitmq_adapter.NewOrderEventsAdapter(application.orderPublisher, contracts.MustDefault(), constants.RoutingKeyOrderCreated)
		if err != nil {
			application.closeResources()
			return nil, err
		}
		orderEvents = orderEventsAdapter
		appLogger.Info("RabbitMQ order publisher initialized.", nil)
	} else {
		appLogger.Warn("RabbitMQ is disabled, order events will not be published.", nil)
	}

	// --- 6. ЯДРО ---
	catalogSource := larek_api_client.NewClient(larek_api_client.Config{
		BaseURL: appConfig.LarekAPI.BaseURL,
		CDNURL:  appConfig.LarekAPI.CDNURL,
		Timeout: appConfig.LarekAPI.Timeout,
	})

	application.notifier = notifier.NewSSENotifier(baseLogger)
	scope := usecase.NewSessionScope(sessionStore, eventbus.NewFactory(application.notifier))
	views := view.Views()

	invalidateCatalogUC := usecase.NewInvalidateCatalogUseCase(catalogCache)
	useCases := rest.UseCases{
		LoadCatalog:      usecase.NewLoadCatalogUseCase(scope, catalogSource, catalogCache),
		SelectProduct:    usecase.NewSelectProductUseCase(scope, catalogSource, views),
		ClosePreview:     usecase.NewClosePreviewUseCase(scope, views),
		AddToBasket:      usecase.NewAddToBasketUseCase(scope),
		RemoveFromBasket: usecase.NewRemoveFromBasketUseCase(scope),
		UpdateBasketItem: usecase.NewUpdateBasketItemUseCase(scope),
		ClearBasket:      usecase.NewClearBasketUseCase(scope),
		OpenBasket:       usecase.NewOpenBasketUseCase(scope, views),
		GetBasket:        usecase.NewGetBasketUseCase(scope, views),
		StartOrder:       usecase.NewStartOrderUseCase(scope),
		UpdateOrderForm:  usecase.NewUpdateOrderFormUseCase(scope),
		SubmitOrder:      usecase.NewSubmitOrderUseCase(scope, catalogSource, orderRepo, orderEvents),
		GetOrders:        usecase.NewGetOrdersUseCase(orderRepo),
		GetState:         usecase.NewGetStateUseCase(scope),
		GetModal:         usecase.NewGetModalUseCase(scope, views),
	}
	appLogger.Info("All use cases initialized.", nil)

	// --- 7. RABBITMQ: инвалидация каталога ---
	if appConfig.RabbitMQ.Enabled {
		consumerCfg := rabbitmq_consumer.ConsumerConfig{
			Config:                 rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:              constants.QueueCatalogUpdates,
			DeclareQueue:           true,
			DurableQueue:           true,
			ExchangeNameForBind:    constants.StorefrontExchange,
			DeclareExchangeForBind: true,
			ExchangeTypeForBind:    constants.StorefrontExchangeType,
			DurableExchangeForBind: true,
			RoutingKeyForBind:      constants.RoutingKeyCatalogUpdated,
			PrefetchCount:          5,
			ConsumerTag:            "catalog-updates-consumer-adapter",

			EnableRetryMechanism: true,
			RetryExchange:        constants.CatalogUpdatesRetryExchange,
			RetryQueue:           constants.CatalogUpdatesRetryQueue,
			RetryTTL:             constants.CatalogUpdatesRetryTTL,
			FinalDLXExchange:     constants.FinalDLXExchange,
			FinalDLQ:             constants.FinalDLQ,
			FinalDLQRoutingKey:   constants.FinalDLQRoutingKey,
			MaxRetries:           constants.CatalogUpdatesMaxRetries,
		}

		application.catalogUpdateListener, err = rabbitmq_adapter.NewCatalogUpdatesConsumerAdapter(
			consumerCfg, invalidateCatalogUC, contracts.MustDefault(), baseLogger, application.connManager)
		if err != nil {
			appLogger.Error("Failed to create catalog updates consumer", err, nil)
			application.closeResources()
			return nil, fmt.Errorf("failed to create catalog updates consumer adapter: %w", err)
		}
		appLogger.Info("RabbitMQ listeners initialized.", nil)
	}

	// --- 8. REST API ---
	apiHandlers := rest.NewStorefrontHandler(useCases, application.notifier)
	apiHandlers.WithHealthChecks(application.healthChecks())
	application.apiServer = rest.NewServer(appConfig.Rest.PORT, apiHandlers, appConfig.Rest.CORSAllowedOrigins, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	return application, nil
}

func (a *App) Run() error {
	// Единый контекст приложения для graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	var wg sync.WaitGroup
	errorsCh := make(chan error, 2)

	a.logger.Info("Application is starting...", nil)

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errorsCh <- fmt.Errorf("HTTP server start error: %w", err)
		}
	}()

	if a.catalogUpdateListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listenerLogger := a.logger.WithFields(port.Fields{"listener": "Catalog Updates Listener"})
			listenerLogger.Info("Starting listener...", nil)
			if err := a.catalogUpdateListener.Start(appCtx); err != nil {
				listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
				errorsCh <- fmt.Errorf("catalog updates listener error: %w", err)
				return
			}
			listenerLogger.Info("Listener stopped gracefully.", nil)
		}()
	}

	if a.sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.sweeper.RunSweeper(appCtx, sessionSweepInterval)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case runErr = <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", runErr, nil)
	}

	a.logger.Info("Shutdown sequence initiated...", nil)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.apiServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error during API server shutdown", err, nil)
	}

	cancelApp()
	a.logger.Info("Waiting for background processes to finish...", nil)
	wg.Wait()

	a.closeResources()
	return runErr
}

// healthChecks - проверки внешних зависимостей для GET /health.
func (a *App) healthChecks() map[string]rest.HealthCheck {
	checks := map[string]rest.HealthCheck{
		"postgres": func(ctx context.Context) error { return a.dbPool.Ping(ctx) },
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	if a.connManager != nil {
		checks["rabbitmq"] = func(ctx context.Context) error {
			if !a.connManager.IsConnected() {
				return fmt.Errorf("rabbitmq connection is closed")
			}
			return nil
		}
	}
	return checks
}

// closeResources освобождает все, что успели создать; вызывается и при ошибке в NewApp.
func (a *App) closeResources() {
	if a.catalogUpdateListener != nil {
		if err := a.catalogUpdateListener.Close(); err != nil {
			a.logger.Error("Error closing catalog updates listener", err, nil)
		}
	}
	if a.orderPublisher != nil {
		if err := a.orderPublisher.Close(); err != nil {
			a.logger.Error("Error closing order publisher", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}

	a.logger.Info("Application shut down.", nil)
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}
