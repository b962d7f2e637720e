package postgres

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/order"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l := New(db)
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

func TestLedger_Lifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l := newLedger(t)
	owner := "pg-" + uuid.NewString()

	_, err := l.FindDraftOrder(ctx, owner)
	require.ErrorIs(t, err, order.ErrNoDraft)

	o, err := l.CreateOrder(ctx, owner)
	require.NoError(t, err)
	_, err = l.CreateOrder(ctx, owner)
	require.ErrorIs(t, err, order.ErrDraftExists)

	item := order.Item{ID: uuid.New(), BookID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), AddedAt: time.Now().UTC()}
	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		if err := tx.AppendItem(ctx, item); err != nil {
			return err
		}
		return tx.UpdateCost(ctx, decimal.RequireFromString("20.00"))
	})
	require.NoError(t, err)

	draft, err := l.FindDraftOrder(ctx, owner)
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, item.ID, draft.Items[0].ID)
	assert.True(t, draft.Cost.Equal(decimal.RequireFromString("20")))

	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		return tx.Finalize(ctx, order.DeliveryStandard, decimal.RequireFromString("23.00"))
	})
	require.NoError(t, err)

	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		return tx.Finalize(ctx, order.DeliveryCourier, decimal.RequireFromString("32.00"))
	})
	require.ErrorIs(t, err, order.ErrAlreadyPlaced)

	placed, err := l.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPlaced, placed.Status)
	require.NotNil(t, placed.Delivery)
	assert.Equal(t, order.DeliveryStandard, *placed.Delivery)
	assert.True(t, placed.Cost.Equal(decimal.RequireFromString("23")))
	assert.NotNil(t, placed.PlacedAt)

	_, err = l.FindDraftOrder(ctx, owner)
	require.ErrorIs(t, err, order.ErrNoDraft)

	next, err := l.CreateOrder(ctx, owner)
	require.NoError(t, err)
	list, err := l.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, next.ID, list[1].ID)

	_, err = l.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestLedger_ConcurrentCreateOrder(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	owner := "pg-" + uuid.NewString()

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.CreateOrder(ctx, owner); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}
