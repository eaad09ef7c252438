package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "saga.db"), Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func TestRepository_SaveAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	spanCtx, span := tp.Tracer("test").Start(ctx, "step")
	defer span.End()

	created := sagalog.NewEntry(spanCtx, "saga-1", "order-1", domain.OrderStatusPending, sagalog.StepOrderCreated, `{"price":"200"}`, nil)
	paid := sagalog.NewEntry(spanCtx, "saga-1", "order-1", domain.OrderStatusPaid, sagalog.StepPaymentCompleted, "", nil)
	other := sagalog.NewEntry(ctx, "saga-2", "order-2", domain.OrderStatusCancelled, sagalog.StepPaymentCancelled, "", []string{"no credit"})
	for _, e := range []sagalog.Entry{created, paid, other} {
		require.NoError(t, repo.Save(ctx, e))
	}

	entries, err := repo.List(ctx, "saga-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, saga.StatusStarted, entries[0].Status)
	assert.Equal(t, `{"price":"200"}`, entries[0].Payload)
	assert.Equal(t, saga.StatusProcessing, entries[1].Status)
	assert.Equal(t, domain.OrderStatusPaid, entries[1].OrderStatus)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1].TraceID)
	assert.Empty(t, entries[1].FailureMessages)

	latest, err := repo.GetLatest(ctx, "saga-2")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensated, latest.Status)
	assert.Equal(t, []string{"no credit"}, latest.FailureMessages)
	assert.Empty(t, latest.TraceID)
}

func TestRepository_GetLatestNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetLatest(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}
