// Package mysql implements order.Ledger on MySQL 8.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore/pkg/order"
	"bookstore/pkg/order/internal/sqlrow"
)

// schema creates the ledger tables. draft_owner is only set while an order
// is a draft, so its unique key allows one draft per owner and any number of
// placed orders.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id            CHAR(36)      NOT NULL PRIMARY KEY,
		owner_id      VARCHAR(191)  NOT NULL,
		status        VARCHAR(16)   NOT NULL,
		delivery_type SMALLINT      NULL,
		cost          DECIMAL(14,2) NOT NULL DEFAULT 0,
		created_at    DATETIME(6)   NOT NULL,
		placed_at     DATETIME(6)   NULL,
		draft_owner   VARCHAR(191)  AS (IF(status = 'draft', owner_id, NULL)) STORED,
		UNIQUE KEY orders_one_draft_per_owner (draft_owner),
		KEY orders_owner_created (owner_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS ordered_items (
		seq        BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id         CHAR(36)      NOT NULL UNIQUE,
		order_id   CHAR(36)      NOT NULL,
		book_id    CHAR(36)      NOT NULL,
		quantity   INT           NOT NULL,
		unit_price DECIMAL(14,2) NOT NULL,
		added_at   DATETIME(6)   NOT NULL,
		KEY ordered_items_order (order_id, seq),
		FOREIGN KEY (order_id) REFERENCES orders (id)
	)`,
}

const (
	errDuplicateKey  = 1062
	defaultOpenConns = 50
	defaultIdleConns = 25
)

// Open connects to MySQL. Times are always parsed and stored as UTC.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(defaultOpenConns)
	db.SetMaxIdleConns(defaultIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Ledger persists orders in MySQL.
type Ledger struct {
	db *sql.DB
}

// New creates a MySQL ledger.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Migrate creates the ledger tables if they are missing.
func (l *Ledger) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: apply schema: %w", err)
		}
	}
	return nil
}

// FindDraftOrder returns the owner's draft order.
func (l *Ledger) FindDraftOrder(ctx context.Context, ownerID string) (order.Order, error) {
	o, err := reader.Get(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE draft_owner = ?", ownerID)
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
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO orders (id, owner_id, status, cost, created_at) VALUES (?, ?, ?, ?, ?)",
		o.ID, o.OwnerID, o.Status, o.Cost, o.CreatedAt)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateKey {
		return order.Order{}, order.ErrDraftExists
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("mysql: insert order: %w", err)
	}
	return o, nil
}

// GetByID retrieves an order by ID.
func (l *Ledger) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	o, err := reader.Get(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// ListByOwner fetches the owner's orders, oldest first.
func (l *Ledger) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	return reader.List(ctx, l.db, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE owner_id = ? ORDER BY created_at, id", ownerID)
}

// WithOrder locks the order row with SELECT ... FOR UPDATE and commits
// fn's writes in the same transaction.
func (l *Ledger) WithOrder(ctx context.Context, id uuid.UUID, fn func(tx order.OrderTx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := reader.Get(ctx, tx, "SELECT "+sqlrow.OrderColumns+" FROM orders WHERE id = ? FOR UPDATE", id)
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
		return fmt.Errorf("mysql: commit: %w", err)
	}
	return nil
}

var reader = sqlrow.Reader{
	Name:       "mysql",
	ItemsQuery: "SELECT id, order_id, book_id, quantity, unit_price, added_at FROM ordered_items WHERE order_id = ? ORDER BY seq",
}

type orderTx struct {
	tx   *sql.Tx
	read order.Order
}

func (t *orderTx) Order() order.Order { return t.read }

func (t *orderTx) AppendItem(ctx context.Context, item order.Item) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO ordered_items (id, order_id, book_id, quantity, unit_price, added_at) VALUES (?, ?, ?, ?, ?, ?)",
		item.ID, t.read.ID, item.BookID, item.Quantity, item.UnitPrice, item.AddedAt)
	if err != nil {
		return fmt.Errorf("mysql: insert item: %w", err)
	}
	return nil
}

// UpdateCost checks the status explicitly because the driver reports changed
// rows, not matched rows, and rewriting an unchanged cost is valid.
func (t *orderTx) UpdateCost(ctx context.Context, total decimal.Decimal) error {
	var status string
	err := t.tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", t.read.ID).Scan(&status)
	if err != nil {
		return fmt.Errorf("mysql: read status: %w", err)
	}
	if order.Status(status) != order.StatusDraft {
		return order.ErrAlreadyPlaced
	}
	if _, err := t.tx.ExecContext(ctx, "UPDATE orders SET cost = ? WHERE id = ?", total, t.read.ID); err != nil {
		return fmt.Errorf("mysql: update cost: %w", err)
	}
	return nil
}

func (t *orderTx) Finalize(ctx context.Context, delivery order.DeliveryType, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = 'placed', delivery_type = ?, cost = ?, placed_at = ? WHERE id = ? AND status = 'draft'",
		int(delivery), total, time.Now().UTC(), t.read.ID)
	if err != nil {
		return fmt.Errorf("mysql: finalize: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrAlreadyPlaced
	}
	return nil
}
