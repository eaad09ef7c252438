// Package httpx is the order service's REST API.
package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/cache"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

const (
	// IdempotencyTTL is how long a create-order response is replayed for the
	// same idempotency key.
	IdempotencyTTL = 24 * time.Hour
	// IdempotencyLockTTL bounds how long a crashed request keeps its key.
	IdempotencyLockTTL = 30 * time.Second
)

const internalErrorMessage = "There is an internal server error."

type OrderService interface {
	CreateOrder(ctx context.Context, cmd app.CreateOrderCommand) (app.CreateOrderResponse, error)
	TrackOrder(ctx context.Context, trackingID common.TrackingID) (app.TrackOrderResponse, error)
	SagaLog(ctx context.Context, trackingID common.TrackingID) ([]sagalog.Entry, error)
}

type Handler struct {
	orders OrderService
	cache  cache.Cache // nil disables idempotent replay
	logger *zap.Logger
}

func NewHandler(orders OrderService, c cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{orders: orders, cache: c, logger: logger.Named("http")}
}

// CreateOrder validates the request and starts the order saga. A repeated
// request with the same x-idempotency-key and body gets the first response
// back; the same key with another body is rejected.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	var req CreateOrderRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	cmd, err := toCommand(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cacheKey, fp := "", ""
	if key := propagation.IdempotencyKey(ctx); key != "" && h.cache != nil {
		cacheKey, fp = h.cache.GenerateKey("create-order", key), fingerprint(raw)
		if !h.reserve(ctx, w, cacheKey, fp) {
			return
		}
	}

	resp, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		if cacheKey != "" {
			h.release(ctx, cacheKey)
		}
		h.writeDomainError(ctx, w, err)
		return
	}

	body := CreateOrderResponse{
		OrderTrackingID: resp.OrderTrackingID.String(),
		OrderStatus:     string(resp.OrderStatus),
		Message:         resp.Message,
	}
	if cacheKey != "" {
		h.complete(ctx, cacheKey, fp, body)
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	trackingID, ok := trackingIDParam(w, r)
	if !ok {
		return
	}
	resp, err := h.orders.TrackOrder(r.Context(), trackingID)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, TrackOrderResponse{
		OrderTrackingID: resp.OrderTrackingID.String(),
		OrderStatus:     string(resp.OrderStatus),
		SagaStatus:      string(resp.SagaStatus),
		FailureMessages: resp.FailureMessages,
	})
}

// SagaLog lists the recorded transitions of the order's saga, oldest first.
func (h *Handler) SagaLog(w http.ResponseWriter, r *http.Request) {
	trackingID, ok := trackingIDParam(w, r)
	if !ok {
		return
	}
	entries, err := h.orders.SagaLog(r.Context(), trackingID)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	out := make([]SagaLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SagaLogEntryResponse{
			SagaID:          e.SagaID,
			OrderID:         e.OrderID,
			Step:            e.Step,
			SagaStatus:      string(e.Status),
			OrderStatus:     string(e.OrderStatus),
			FailureMessages: e.FailureMessages,
			TraceID:         e.TraceID,
			CreatedAt:       e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps invariant violations to 400 and failed lookups to
// 404. Anything else is logged and hidden behind a generic 500.
func (h *Handler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case common.IsInvariant(err):
		writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
	case common.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		telemetry.WithTrace(ctx, h.logger).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", internalErrorMessage)
	}
}

func trackingIDParam(w http.ResponseWriter, r *http.Request) (common.TrackingID, bool) {
	id, err := common.ParseID[common.TrackingID](chi.URLParam(r, "trackingId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tracking_id", err.Error())
		return common.TrackingID{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
