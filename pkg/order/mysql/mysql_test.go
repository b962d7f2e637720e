package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/order"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("mysql not available: %v", err)
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
	owner := "my-" + uuid.NewString()

	o, err := l.CreateOrder(ctx, owner)
	require.NoError(t, err)
	_, err = l.CreateOrder(ctx, owner)
	require.ErrorIs(t, err, order.ErrDraftExists)

	item := order.Item{ID: uuid.New(), BookID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("5.50"), AddedAt: time.Now().UTC()}
	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		if err := tx.AppendItem(ctx, item); err != nil {
			return err
		}
		return tx.UpdateCost(ctx, decimal.RequireFromString("5.50"))
	})
	require.NoError(t, err)

	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		assert.True(t, tx.Order().Cost.Equal(decimal.RequireFromString("5.50")))
		return tx.Finalize(ctx, order.DeliveryExpress, decimal.RequireFromString("13.00"))
	})
	require.NoError(t, err)

	err = l.WithOrder(ctx, o.ID, func(tx order.OrderTx) error {
		return tx.Finalize(ctx, order.DeliveryExpress, decimal.RequireFromString("20.50"))
	})
	require.ErrorIs(t, err, order.ErrAlreadyPlaced)

	got, err := l.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPlaced, got.Status)
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("13")))
	require.Len(t, got.Items, 1)

	_, err = l.FindDraftOrder(ctx, owner)
	require.ErrorIs(t, err, order.ErrNoDraft)
	_, err = l.CreateOrder(ctx, owner)
	require.NoError(t, err, "a placed order must not block a new draft")
}
