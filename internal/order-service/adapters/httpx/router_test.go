package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/cache"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
)

type fakeOrderService struct {
	created   []app.CreateOrderCommand
	createErr error
	track     app.TrackOrderResponse
	trackErr  error
	entries   []sagalog.Entry
	requestID string
	// during runs inside CreateOrder, while the order is being created.
	during func()
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, cmd app.CreateOrderCommand) (app.CreateOrderResponse, error) {
	f.requestID = propagation.RequestID(ctx)
	if f.during != nil {
		during := f.during
		f.during = nil
		during()
	}
	if f.createErr != nil {
		return app.CreateOrderResponse{}, f.createErr
	}
	f.created = append(f.created, cmd)
	return app.CreateOrderResponse{
		OrderTrackingID: common.NewID[common.TrackingID](),
		OrderStatus:     common.OrderStatusPending,
		Message:         "Order created successfully.",
	}, nil
}

func (f *fakeOrderService) TrackOrder(_ context.Context, id common.TrackingID) (app.TrackOrderResponse, error) {
	if f.trackErr != nil {
		return app.TrackOrderResponse{}, f.trackErr
	}
	resp := f.track
	resp.OrderTrackingID = id
	return resp, nil
}

func (f *fakeOrderService) SagaLog(context.Context, common.TrackingID) ([]sagalog.Entry, error) {
	return f.entries, nil
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return true, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.ttls, key)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *memCache) GenerateKey(operation, key string) string {
	return cache.GenerateKey("order-service", operation, key)
}

const createBody = `{
	"customer_id": "d215b5f8-0249-4dc5-89a3-51fd148cfb41",
	"restaurant_id": "d215b5f8-0249-4dc5-89a3-51fd148cfb45",
	"price": 200.00,
	"items": [
		{"product_id": "d215b5f8-0249-4dc5-89a3-51fd148cfb48", "quantity": 1, "price": 50.00, "sub_total": 50.00},
		{"product_id": "d215b5f8-0249-4dc5-89a3-51fd148cfb48", "quantity": 3, "price": "50.00", "sub_total": "150.00"}
	],
	"address": {"street": "street_1", "postal_code": "1000AB", "city": "Paris"}
}`

func serve(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeOrderService{}
	router := NewRouter(NewHandler(svc, nil, zap.NewNop()))

	rec := serve(t, router, http.MethodPost, "/orders", createBody, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING", resp.OrderStatus)
	assert.Equal(t, "Order created successfully.", resp.Message)
	assert.NotEmpty(t, resp.OrderTrackingID)
	assert.NotEmpty(t, svc.requestID, "the request id reaches the application layer")

	require.Len(t, svc.created, 1)
	cmd := svc.created[0]
	assert.Equal(t, "200.00", cmd.Price.String())
	require.Len(t, cmd.Items, 2)
	assert.Equal(t, "150.00", cmd.Items[1].SubTotal.String())
	assert.Equal(t, "Paris", cmd.Address.City)
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	svc := &fakeOrderService{}
	c := newMemCache()
	router := NewRouter(NewHandler(svc, c, zap.NewNop()))
	headers := map[string]string{propagation.HeaderXIdempotencyKey: "key-1"}

	first := serve(t, router, http.MethodPost, "/orders", createBody, headers)
	second := serve(t, router, http.MethodPost, "/orders", createBody, headers)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Len(t, svc.created, 1, "the second request is served from the cache")
	assert.Equal(t, IdempotencyTTL, c.ttls["order-service:create-order:key-1"])
}

func TestCreateOrder_IdempotencyKeyWithDifferentBody(t *testing.T) {
	svc := &fakeOrderService{}
	router := NewRouter(NewHandler(svc, newMemCache(), zap.NewNop()))
	headers := map[string]string{propagation.HeaderXIdempotencyKey: "key-1"}

	first := serve(t, router, http.MethodPost, "/orders", createBody, headers)
	other := strings.Replace(createBody, `"city": "Paris"`, `"city": "Lyon"`, 1)
	second := serve(t, router, http.MethodPost, "/orders", other, headers)

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
	assert.Contains(t, second.Body.String(), "idempotency_key_reused")
	assert.Len(t, svc.created, 1)
}

func TestCreateOrder_SameKeyWhileInFlight(t *testing.T) {
	svc := &fakeOrderService{}
	router := NewRouter(NewHandler(svc, newMemCache(), zap.NewNop()))
	headers := map[string]string{propagation.HeaderXIdempotencyKey: "key-1"}

	var concurrent *httptest.ResponseRecorder
	svc.during = func() {
		concurrent = serve(t, router, http.MethodPost, "/orders", createBody, headers)
	}
	first := serve(t, router, http.MethodPost, "/orders", createBody, headers)

	require.Equal(t, http.StatusCreated, first.Code)
	require.NotNil(t, concurrent)
	assert.Equal(t, http.StatusConflict, concurrent.Code)
	assert.Len(t, svc.created, 1, "only the request holding the key creates an order")

	replay := serve(t, router, http.MethodPost, "/orders", createBody, headers)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
}

func TestCreateOrder_FailedRequestReleasesKey(t *testing.T) {
	svc := &fakeOrderService{createErr: errors.New("database is locked")}
	c := newMemCache()
	router := NewRouter(NewHandler(svc, c, zap.NewNop()))
	headers := map[string]string{propagation.HeaderXIdempotencyKey: "key-1"}

	failed := serve(t, router, http.MethodPost, "/orders", createBody, headers)
	require.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.Empty(t, c.values)

	svc.createErr = nil
	retried := serve(t, router, http.MethodPost, "/orders", createBody, headers)
	assert.Equal(t, http.StatusCreated, retried.Code)
	assert.Len(t, svc.created, 1)
}

func TestCreateOrder_BadRequests(t *testing.T) {
	router := NewRouter(NewHandler(&fakeOrderService{}, nil, zap.NewNop()))

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{`, "invalid_json"},
		{"missing items", `{"customer_id":"d215b5f8-0249-4dc5-89a3-51fd148cfb41","restaurant_id":"d215b5f8-0249-4dc5-89a3-51fd148cfb45"}`, "invalid_request"},
		{"bad customer id", strings.Replace(createBody, "d215b5f8-0249-4dc5-89a3-51fd148cfb41", "nope", 1), "invalid_request"},
		{"zero quantity", strings.Replace(createBody, `"quantity": 1`, `"quantity": 0`, 1), "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, http.MethodPost, "/orders", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invariant", common.NewError("Total price is not equals to the sum of the items"), http.StatusBadRequest, "Total price is not equals to the sum of the items"},
		{"not found", common.NotFound("Customer does not exist"), http.StatusNotFound, "Customer does not exist"},
		{"internal", errors.New("disk I/O error"), http.StatusInternalServerError, "There is an internal server error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(&fakeOrderService{createErr: tt.err}, nil, zap.NewNop()))
			rec := serve(t, router, http.MethodPost, "/orders", createBody, nil)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestTrackOrder(t *testing.T) {
	svc := &fakeOrderService{track: app.TrackOrderResponse{
		OrderStatus:     common.OrderStatusCancelled,
		SagaStatus:      saga.StatusCompensated,
		FailureMessages: []string{"Restaurant is not active."},
	}}
	router := NewRouter(NewHandler(svc, nil, zap.NewNop()))
	id := common.NewID[common.TrackingID]()

	rec := serve(t, router, http.MethodGet, "/orders/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TrackOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp.OrderTrackingID)
	assert.Equal(t, "CANCELLED", resp.OrderStatus)
	assert.Equal(t, "COMPENSATED", resp.SagaStatus)
	assert.Equal(t, []string{"Restaurant is not active."}, resp.FailureMessages)

	rec = serve(t, router, http.MethodGet, "/orders/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.trackErr = common.NotFound("Could not find order with tracking id: %s", id)
	rec = serve(t, router, http.MethodGet, "/orders/"+id.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSagaLog(t *testing.T) {
	svc := &fakeOrderService{entries: []sagalog.Entry{
		{SagaID: "s", OrderID: "o", Step: sagalog.StepOrderCreated, Status: saga.StatusStarted, OrderStatus: common.OrderStatusPending},
		{SagaID: "s", OrderID: "o", Step: sagalog.StepPaymentCompleted, Status: saga.StatusProcessing, OrderStatus: common.OrderStatusPaid},
	}}
	router := NewRouter(NewHandler(svc, nil, zap.NewNop()))

	rec := serve(t, router, http.MethodGet, "/orders/"+common.NewID[common.TrackingID]().String()+"/saga", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []SagaLogEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "STARTED", resp[0].SagaStatus)
	assert.Equal(t, "payment_completed", resp[1].Step)
}

func TestHealth(t *testing.T) {
	router := NewRouter(NewHandler(&fakeOrderService{}, nil, zap.NewNop()))
	rec := serve(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
