// Package sqlrow reads orders and their items from the row layout shared by
// the SQL ledgers. Only the placeholder syntax differs between dialects, so
// callers supply the item query.
package sqlrow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bookstore/pkg/order"
)

// OrderColumns is the column list ScanOrder expects, in order.
const OrderColumns = "id,owner_id,status,delivery_type,cost,created_at,placed_at"

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Reader loads orders for one dialect.
type Reader struct {
	// Name prefixes wrapped errors, e.g. "postgres".
	Name string
	// ItemsQuery selects id, order_id, book_id, quantity, unit_price and
	// added_at of one order's items in insertion order.
	ItemsQuery string
}

// Get runs query, which must select OrderColumns of a single row, and loads
// its items. A missing row is reported as sql.ErrNoRows.
func (r Reader) Get(ctx context.Context, q Querier, query string, arg any) (order.Order, error) {
	o, err := ScanOrder(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return order.Order{}, err
	}
	if o.Items, err = r.Items(ctx, q, o.ID); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// List runs query, which must select OrderColumns, and loads the items of
// every order it returns.
func (r Reader) List(ctx context.Context, q Querier, query string, arg any) ([]order.Order, error) {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: list orders: %w", r.Name, err)
	}
	var orders []order.Order
	for rows.Next() {
		o, err := ScanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.Items(ctx, q, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Items returns the items of an order in insertion order.
func (r Reader) Items(ctx context.Context, q Querier, orderID uuid.UUID) ([]order.Item, error) {
	rows, err := q.QueryContext(ctx, r.ItemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: query items: %w", r.Name, err)
	}
	defer rows.Close()
	out := []order.Item{}
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity, &it.UnitPrice, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ScanOrder reads one row of OrderColumns. Items are left nil.
func ScanOrder(s Scanner) (order.Order, error) {
	var (
		o        order.Order
		status   string
		delivery sql.NullInt16
		placedAt sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.OwnerID, &status, &delivery, &o.Cost, &o.CreatedAt, &placedAt); err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if delivery.Valid {
		d := order.DeliveryType(delivery.Int16)
		o.Delivery = &d
	}
	if placedAt.Valid {
		t := placedAt.Time
		o.PlacedAt = &t
	}
	return o, nil
}
