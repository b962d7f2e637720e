package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusDraft orders accept items and have no delivery type yet.
	StatusDraft Status = "draft"
	// StatusPlaced orders are finalized and immutable.
	StatusPlaced Status = "placed"
)

// Order represents a customer purchase order.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Items     []Item          `json:"items"`
	Cost      decimal.Decimal `json:"cost"`
	Delivery  *DeliveryType   `json:"delivery_type,omitempty"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	PlacedAt  *time.Time      `json:"placed_at,omitempty"`
}

// Item is one line of an order. UnitPrice is the book price at the time
// the item was added.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	BookID    uuid.UUID       `json:"book_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// Ledger defines behavior for persisting orders.
type Ledger interface {
	FindDraftOrder(ctx context.Context, ownerID string) (Order, error)
	CreateOrder(ctx context.Context, ownerID string) (Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)

	// WithOrder runs fn while holding the write lock of a single order.
	// Writes made through the OrderTx are committed together when fn
	// returns nil and discarded otherwise.
	WithOrder(ctx context.Context, id uuid.UUID, fn func(tx OrderTx) error) error
}

// OrderTx is the write side of a locked order.
type OrderTx interface {
	// Order returns the order as read under the lock.
	Order() Order
	AppendItem(ctx context.Context, item Item) error
	UpdateCost(ctx context.Context, total decimal.Decimal) error
	// Finalize moves a draft order to placed. It returns ErrAlreadyPlaced
	// if the stored status is no longer draft.
	Finalize(ctx context.Context, delivery DeliveryType, total decimal.Decimal) error
}
