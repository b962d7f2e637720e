package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AddOrderItemCommand asks to add a book to the caller's draft order.
// A nil Quantity means one copy.
type AddOrderItemCommand struct {
	BookID   string `json:"book_id"`
	Quantity *int   `json:"quantity,omitempty"`
}

// CreateOrderCommand asks to place the caller's draft order.
type CreateOrderCommand struct {
	DeliveryType int `json:"delivery_type"`
}

// Service is the boundary the transport layer talks to. Every error it
// returns is an *Error.
type Service struct {
	agg *Aggregator
}

// NewService wraps an Aggregator.
func NewService(agg *Aggregator) *Service {
	return &Service{agg: agg}
}

// AddOrderItem handles AddOrderItemCommand for ownerID.
func (s *Service) AddOrderItem(ctx context.Context, ownerID string, cmd AddOrderItemCommand) (uuid.UUID, error) {
	const op = "add order item"
	if err := checkOwner(ownerID); err != nil {
		return uuid.Nil, wrap(op, err)
	}
	bookID, err := uuid.Parse(strings.TrimSpace(cmd.BookID))
	if err != nil {
		return uuid.Nil, wrap(op, fmt.Errorf("%w: book_id: %v", ErrInvalidCommand, err))
	}
	quantity := 1
	if cmd.Quantity != nil {
		quantity = *cmd.Quantity
	}
	id, err := s.agg.AddOrderItem(ctx, ownerID, bookID, quantity)
	if err != nil {
		return uuid.Nil, wrap(op, err)
	}
	return id, nil
}

// CreateOrder handles CreateOrderCommand for ownerID.
func (s *Service) CreateOrder(ctx context.Context, ownerID string, cmd CreateOrderCommand) (uuid.UUID, error) {
	const op = "create order"
	if err := checkOwner(ownerID); err != nil {
		return uuid.Nil, wrap(op, err)
	}
	delivery, err := ParseDeliveryType(cmd.DeliveryType)
	if err != nil {
		return uuid.Nil, wrap(op, err)
	}
	id, err := s.agg.CreateOrder(ctx, ownerID, delivery)
	if err != nil {
		return uuid.Nil, wrap(op, err)
	}
	return id, nil
}

// GetOrder returns one of ownerID's orders.
func (s *Service) GetOrder(ctx context.Context, ownerID, id string) (Order, error) {
	const op = "get order"
	if err := checkOwner(ownerID); err != nil {
		return Order{}, wrap(op, err)
	}
	orderID, err := uuid.Parse(id)
	if err != nil {
		return Order{}, wrap(op, fmt.Errorf("%w: id: %v", ErrInvalidCommand, err))
	}
	o, err := s.agg.Order(ctx, ownerID, orderID)
	if err != nil {
		return Order{}, wrap(op, err)
	}
	return o, nil
}

// ListOrders returns ownerID's orders, oldest first.
func (s *Service) ListOrders(ctx context.Context, ownerID string) ([]Order, error) {
	const op = "list orders"
	if err := checkOwner(ownerID); err != nil {
		return nil, wrap(op, err)
	}
	orders, err := s.agg.Orders(ctx, ownerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return orders, nil
}

func checkOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidCommand)
	}
	return nil
}

func wrap(op string, err error) error {
	return &Error{Kind: classify(err), Op: op, Err: err}
}
