// Package memory implements an in-memory order ledger.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore/pkg/order"
)

// Ledger provides an in-memory implementation of order.Ledger. A single
// mutex serializes every write, which covers the per-order lock.
type Ledger struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]order.Order
	byOwner map[string][]uuid.UUID
	drafts  map[string]uuid.UUID
	now     func() time.Time
}

// New creates a new in-memory ledger.
func New() *Ledger {
	return &Ledger{
		orders:  make(map[uuid.UUID]order.Order),
		byOwner: make(map[string][]uuid.UUID),
		drafts:  make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// FindDraftOrder returns the owner's draft order.
func (l *Ledger) FindDraftOrder(ctx context.Context, ownerID string) (order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.drafts[ownerID]
	if !ok {
		return order.Order{}, order.ErrNoDraft
	}
	return clone(l.orders[id]), nil
}

// CreateOrder stores an empty draft order for the owner.
func (l *Ledger) CreateOrder(ctx context.Context, ownerID string) (order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.drafts[ownerID]; ok {
		return order.Order{}, order.ErrDraftExists
	}
	o := order.Order{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Items:     []order.Item{},
		Cost:      decimal.Zero,
		Status:    order.StatusDraft,
		CreatedAt: l.now().UTC(),
	}
	l.orders[o.ID] = o
	l.byOwner[ownerID] = append(l.byOwner[ownerID], o.ID)
	l.drafts[ownerID] = o.ID
	return clone(o), nil
}

// GetByID retrieves an order by ID.
func (l *Ledger) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return clone(o), nil
}

// ListByOwner returns the owner's orders in creation order.
func (l *Ledger) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := l.byOwner[ownerID]
	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(l.orders[id]))
	}
	return out, nil
}

// WithOrder runs fn on a staged copy of the order and stores the copy if
// fn succeeds.
func (l *Ledger) WithOrder(ctx context.Context, id uuid.UUID, fn func(tx order.OrderTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	tx := &orderTx{read: clone(o), staged: clone(o), now: l.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.orders[id] = tx.staged
	if tx.staged.Status == order.StatusPlaced && l.drafts[tx.staged.OwnerID] == id {
		delete(l.drafts, tx.staged.OwnerID)
	}
	return nil
}

type orderTx struct {
	read   order.Order
	staged order.Order
	now    func() time.Time
}

func (t *orderTx) Order() order.Order { return clone(t.read) }

func (t *orderTx) AppendItem(ctx context.Context, item order.Item) error {
	if t.staged.Status != order.StatusDraft {
		return order.ErrAlreadyPlaced
	}
	item.OrderID = t.staged.ID
	t.staged.Items = append(t.staged.Items, item)
	return nil
}

func (t *orderTx) UpdateCost(ctx context.Context, total decimal.Decimal) error {
	if t.staged.Status != order.StatusDraft {
		return order.ErrAlreadyPlaced
	}
	t.staged.Cost = total
	return nil
}

func (t *orderTx) Finalize(ctx context.Context, delivery order.DeliveryType, total decimal.Decimal) error {
	if t.staged.Status != order.StatusDraft {
		return order.ErrAlreadyPlaced
	}
	placedAt := t.now().UTC()
	t.staged.Status = order.StatusPlaced
	t.staged.Delivery = &delivery
	t.staged.Cost = total
	t.staged.PlacedAt = &placedAt
	return nil
}

func clone(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	if o.Delivery != nil {
		d := *o.Delivery
		o.Delivery = &d
	}
	if o.PlacedAt != nil {
		t := *o.PlacedAt
		o.PlacedAt = &t
	}
	return o
}
