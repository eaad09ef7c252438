package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/adapters/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Health)
	r.Post("/orders", handler.CreateOrder)
	r.Get("/orders/{trackingId}", handler.TrackOrder)
	r.Get("/orders/{trackingId}/saga", handler.SagaLog)
	return r
}
