package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore/pkg/order"
	"bookstore/pkg/order/internal/sqlrow"
)

// Schema creates the ledger tables. The partial unique index keeps at most
// one draft per owner.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            UUID PRIMARY KEY,
	owner_id      TEXT          NOT NULL,
	status        TEXT          NOT NULL,
	delivery_type SMALLINT,
	cost          NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (cost >= 0),
	created_at    TIMESTAMPTZ   NOT NULL,
	placed_at     TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS orders_one_draft_per_owner ON orders (owner_id) WHERE status = 'draft';
CREATE INDEX IF NOT EXISTS orders_owner_created ON orders (owner_id, created_at);
CREATE TABLE IF NOT EXISTS ordered_items (
	seq        BIGSERIAL,
	id         UUID PRIMARY KEY,
	order_id   UUID          NOT NULL REFERENCES orders (id),
	book_id    UUID          NOT NULL,
	quantity   INT           NOT NULL CHECK (quantity >= 1),
	unit_price NUMERIC(14,2) NOT NULL CHECK (unit_price > 0),
	added_at   TIMESTAMPTZ   NOT NULL
);
CREATE INDEX IF NOT EXISTS ordered_items_order ON ordered_items (order_id, seq);
`

// Ledger persists orders in PostgreSQL.
type Ledger struct {
	db *sql.DB
}

// New creates a PostgreSQL ledger.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Migrate creates the ledger tables if they are missing.
func (l *Ledger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: apply schema: %w", err)
	}
	return nil
}

// FindDraftOrder returns the owner's draft order.
func (l *Ledger) FindDraftOrder(ctx context.Context, ownerID string) (order.Order, error) {
	o, err := reader.Get(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE owner_id=$1 AND status='draft'", ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNoDraft
	}
	return o, err
}

// CreateOrder inserts an empty draft order for the owner.
func (l *Ledger) CreateOrder(ctx context.Context, ownerID string) (order.Order, error) {
	o := order.Order{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Items:     []order.Item{},
		Cost:      decimal.Zero,
		Status:    order.StatusDraft,
		CreatedAt: time.Now().UTC(),
	}
	var id uuid.UUID
	err := l.db.QueryRowContext(ctx,
		"INSERT INTO orders (id,owner_id,status,cost,created_at) VALUES ($1,$2,$3,$4,$5) ON CONFLICT DO NOTHING RETURNING id",
		o.ID, o.OwnerID, o.Status, o.Cost, o.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrDraftExists
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("postgres: insert order: %w", err)
	}
	return o, nil
}

// GetByID retrieves an order by ID.
func (l *Ledger) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	o, err := reader.Get(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// ListByOwner fetches the owner's orders, oldest first.
func (l *Ledger) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	return reader.List(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE owner_id=$1 ORDER BY created_at, id", ownerID)
}

// WithOrder locks the order row for the duration of fn and commits fn's
// writes in one transaction.
func (l *Ledger) WithOrder(ctx context.Context, id uuid.UUID, fn func(tx order.OrderTx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := reader.Get(ctx, tx, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE id=$1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := fn(&orderTx{tx: tx, read: o}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

var reader = sqlrow.Reader{
	Name:       "postgres",
	ItemsQuery: "SELECT id,order_id,book_id,quantity,unit_price,added_at FROM ordered_items WHERE order_id=$1 ORDER BY seq",
}

type orderTx struct {
	tx   *sql.Tx
	read order.Order
}

func (t *orderTx) Order() order.Order { return t.read }

func (t *orderTx) AppendItem(ctx context.Context, item order.Item) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO ordered_items (id,order_id,book_id,quantity,unit_price,added_at) VALUES ($1,$2,$3,$4,$5,$6)",
		item.ID, t.read.ID, item.BookID, item.Quantity, item.UnitPrice, item.AddedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert item: %w", err)
	}
	return nil
}

func (t *orderTx) UpdateCost(ctx context.Context, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE orders SET cost=$2 WHERE id=$1 AND status='draft'", t.read.ID, total)
	if err != nil {
		return fmt.Errorf("postgres: update cost: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrAlreadyPlaced
	}
	return nil
}

func (t *orderTx) Finalize(ctx context.Context, delivery order.DeliveryType, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status='placed', delivery_type=$2, cost=$3, placed_at=$4 WHERE id=$1 AND status='draft'",
		t.read.ID, int(delivery), total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: finalize: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrAlreadyPlaced
	}
	return nil
}
