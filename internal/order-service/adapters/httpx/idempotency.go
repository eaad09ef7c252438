package httpx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

// idempotencyRecord is what the cache holds under an idempotency key. A
// record without a response is a reservation held by the request that is
// still creating the order.
type idempotencyRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Response    json.RawMessage `json:"response,omitempty"`
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// reserve claims cacheKey for a request with the given body fingerprint. It
// returns false when it has already answered the request: a replay, a
// conflicting body, or a request still in flight. When the cache is down the
// request goes through unprotected.
func (h *Handler) reserve(ctx context.Context, w http.ResponseWriter, cacheKey, fp string) bool {
	logger := telemetry.WithTrace(ctx, h.logger)
	pending, err := json.Marshal(idempotencyRecord{Fingerprint: fp})
	if err != nil {
		logger.Error("encode idempotency reservation", zap.Error(err))
		return true
	}
	claimed, err := h.cache.SetNX(ctx, cacheKey, string(pending), IdempotencyLockTTL)
	if err != nil {
		logger.Warn("idempotency reservation failed", zap.Error(err))
		return true
	}
	if claimed {
		return true
	}

	raw, err := h.cache.Get(ctx, cacheKey)
	if err != nil {
		logger.Warn("idempotency lookup failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "idempotency_unavailable", "Retry the request later.")
		return false
	}
	if raw == "" {
		// The reservation expired between the two calls.
		writeError(w, http.StatusConflict, "request_in_progress", "A request with this idempotency key is in progress.")
		return false
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logger.Error("decode idempotency record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", internalErrorMessage)
		return false
	}

	switch {
	case rec.Fingerprint != fp:
		writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
			"The idempotency key was already used with a different request body.")
	case len(rec.Response) == 0:
		writeError(w, http.StatusConflict, "request_in_progress", "A request with this idempotency key is in progress.")
	default:
		logger.Info("replaying create order response", zap.String("cache_key", cacheKey))
		writeRaw(w, http.StatusCreated, rec.Response)
	}
	return false
}

// complete replaces the reservation with the response to replay.
func (h *Handler) complete(ctx context.Context, cacheKey, fp string, body CreateOrderResponse) {
	response, err := json.Marshal(body)
	if err == nil {
		var rec []byte
		rec, err = json.Marshal(idempotencyRecord{Fingerprint: fp, Response: response})
		if err == nil {
			err = h.cache.Set(ctx, cacheKey, string(rec), IdempotencyTTL)
		}
	}
	if err != nil {
		telemetry.WithTrace(ctx, h.logger).Warn("idempotency store failed", zap.Error(err))
	}
}

// release drops the reservation of a request that failed, so it can be retried.
func (h *Handler) release(ctx context.Context, cacheKey string) {
	if err := h.cache.Delete(ctx, cacheKey); err != nil {
		telemetry.WithTrace(ctx, h.logger).Warn("idempotency release failed", zap.Error(err))
	}
}
