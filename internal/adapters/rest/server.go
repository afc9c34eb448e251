package rest

import (
	"context"
	"fmt"
	"net/http"

	"web-larek/internal/constants"
	core_port "web-larek/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server - REST API витрины.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewRouter собирает роутер; вынесен отдельно, чтобы тесты работали без сокета.
func NewRouter(handlers *StorefrontHandler, allowedOrigins []string, baseLogger core_port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", constants.HeaderXSessionID, constants.HeaderXTraceID},
		ExposedHeaders:   []string{constants.HeaderXSessionID, constants.HeaderXTraceID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)

	r.Route(constants.APIPrefix, func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/catalog", handlers.GetCatalog)
		r.Post("/catalog/{productID}/preview", handlers.SelectProduct)
		r.Delete("/preview", handlers.ClosePreview)

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", handlers.GetBasket)
			r.Post("/open", handlers.OpenBasket)
			r.Delete("/", handlers.ClearBasket)
			r.Post("/items", handlers.AddBasketItem)
			r.Patch("/items/{productID}", handlers.UpdateBasketItem)
			r.Delete("/items/{productID}", handlers.RemoveBasketItem)
		})

		r.Post("/order", handlers.StartOrder)
		r.Put("/order/form", handlers.UpdateOrderForm)
		r.Post("/order/submit", handlers.SubmitOrder)
		r.Get("/orders", handlers.GetOrders)

		r.Get("/state", handlers.GetState)
		r.Get("/modal", handlers.GetModal)
		r.Get("/events", handlers.SubscribeToEvents)
	})

	return r
}

// NewServer создает новый экземпляр сервера.
func NewServer(port string, handlers *StorefrontHandler, allowedOrigins []string, baseLogger core_port.LoggerPort) *Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: NewRouter(handlers, allowedOrigins, baseLogger),
	}
	return &Server{httpServer: srv, logger: baseLogger}
}

// Start запускает HTTP-сервер и блокируется до его остановки.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер. SSE-подключения не завершаются сами,
// поэтому по истечении ctx соединения закрываются принудительно.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("Graceful shutdown timed out, closing connections", core_port.Fields{"error": err.Error()})
		return s.httpServer.Close()
	}
	return nil
}
