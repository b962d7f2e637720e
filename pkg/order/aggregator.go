package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookstore/pkg/catalog"
)

// BookFinder resolves books for AddOrderItem.
type BookFinder interface {
	GetBookByID(ctx context.Context, id uuid.UUID) (catalog.Book, error)
}

// Aggregator builds draft orders item by item and places them.
type Aggregator struct {
	books  BookFinder
	ledger Ledger
	now    func() time.Time
}

// NewAggregator returns an Aggregator reading books from books and
// storing orders in ledger.
func NewAggregator(books BookFinder, ledger Ledger) *Aggregator {
	return &Aggregator{books: books, ledger: ledger, now: time.Now}
}

// AddOrderItem adds quantity copies of a book to the owner's draft order,
// creating the draft if needed, and returns the order ID.
func (a *Aggregator) AddOrderItem(ctx context.Context, ownerID string, bookID uuid.UUID, quantity int) (uuid.UUID, error) {
	book, err := a.books.GetBookByID(ctx, bookID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get book %s: %w", bookID, err)
	}
	line, err := LineCost(book.Price, quantity)
	if err != nil {
		return uuid.Nil, err
	}

	draft, err := a.draftFor(ctx, ownerID)
	if err != nil {
		return uuid.Nil, err
	}

	item := Item{
		ID:        uuid.New(),
		OrderID:   draft.ID,
		BookID:    book.ID,
		Quantity:  quantity,
		UnitPrice: book.Price,
		AddedAt:   a.now().UTC(),
	}
	err = a.ledger.WithOrder(ctx, draft.ID, func(tx OrderTx) error {
		current := tx.Order()
		if current.Status != StatusDraft {
			return ErrAlreadyPlaced
		}
		if err := tx.AppendItem(ctx, item); err != nil {
			return fmt.Errorf("append item: %w", err)
		}
		total, err := Accumulate(current.Cost, line)
		if err != nil {
			return err
		}
		if err := tx.UpdateCost(ctx, total); err != nil {
			return fmt.Errorf("update cost: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return draft.ID, nil
}

// draftFor returns the owner's draft order, creating one if there is none.
// A concurrent creation surfaces as ErrDraftExists and is answered by
// reading the winner's draft.
func (a *Aggregator) draftFor(ctx context.Context, ownerID string) (Order, error) {
	o, err := a.ledger.FindDraftOrder(ctx, ownerID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrNoDraft) {
		return Order{}, fmt.Errorf("find draft: %w", err)
	}

	o, err = a.ledger.CreateOrder(ctx, ownerID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrDraftExists) {
		return Order{}, fmt.Errorf("create draft: %w", err)
	}
	o, err = a.ledger.FindDraftOrder(ctx, ownerID)
	if err != nil {
		return Order{}, fmt.Errorf("find draft: %w", err)
	}
	return o, nil
}

// CreateOrder places the owner's draft order with the given delivery tier
// and returns its ID.
func (a *Aggregator) CreateOrder(ctx context.Context, ownerID string, delivery DeliveryType) (uuid.UUID, error) {
	draft, err := a.ledger.FindDraftOrder(ctx, ownerID)
	if errors.Is(err, ErrNoDraft) {
		return uuid.Nil, a.noDraft(ctx, ownerID)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find draft: %w", err)
	}

	fee, err := DeliveryFee(delivery)
	if err != nil {
		return uuid.Nil, err
	}

	err = a.ledger.WithOrder(ctx, draft.ID, func(tx OrderTx) error {
		current := tx.Order()
		if current.Status != StatusDraft {
			return ErrAlreadyPlaced
		}
		total, err := Accumulate(current.Cost, fee)
		if err != nil {
			return err
		}
		return tx.Finalize(ctx, delivery, total)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return draft.ID, nil
}

// noDraft explains why there is nothing to place: the owner's last order
// was placed already, or the owner never ordered.
func (a *Aggregator) noDraft(ctx context.Context, ownerID string) error {
	orders, err := a.ledger.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if n := len(orders); n > 0 && orders[n-1].Status == StatusPlaced {
		return fmt.Errorf("%w: %s", ErrAlreadyPlaced, orders[n-1].ID)
	}
	return ErrNoDraft
}

// Order returns one of the owner's orders.
func (a *Aggregator) Order(ctx context.Context, ownerID string, id uuid.UUID) (Order, error) {
	o, err := a.ledger.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.OwnerID != ownerID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// Orders returns all orders of the owner, oldest first.
func (a *Aggregator) Orders(ctx context.Context, ownerID string) ([]Order, error) {
	return a.ledger.ListByOwner(ctx, ownerID)
}
