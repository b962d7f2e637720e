// Package catalog holds the read-mostly book catalog orders are placed against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book is a sellable title.
type Book struct {
	ID    uuid.UUID       `json:"id" db:"id"`
	Title string          `json:"title" db:"title"`
	Price decimal.Decimal `json:"price" db:"price"`
}

// BookInfo is descriptive metadata attached to a book.
type BookInfo struct {
	ID          uuid.UUID `json:"id" db:"id"`
	BookID      uuid.UUID `json:"book_id" db:"book_id"`
	Author      string    `json:"author" db:"author"`
	Publisher   string    `json:"publisher" db:"publisher"`
	Year        int       `json:"year" db:"year"`
	Description string    `json:"description" db:"description"`
}

// Store defines behavior for reading and extending the catalog.
type Store interface {
	ListBooks(ctx context.Context) ([]Book, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (Book, error)
	GetBookByTitle(ctx context.Context, title string) (Book, error)
	AddBook(ctx context.Context, b Book) error
	AddBookInfo(ctx context.Context, info BookInfo) error
	GetBookInfo(ctx context.Context, bookID uuid.UUID) ([]BookInfo, error)
}

var (
	// ErrNotFound indicates the requested book or book info does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrAlreadyExists indicates a book with the same title is already listed.
	ErrAlreadyExists = errors.New("book already exists")
	// ErrInvalidBook indicates a book or book info failed validation.
	ErrInvalidBook = errors.New("invalid book")
)

// Validate checks the fields every stored book must have.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBook)
	}
	if !b.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidBook)
	}
	if !b.Price.Equal(b.Price.Round(2)) {
		return fmt.Errorf("%w: price has more than 2 decimal places", ErrInvalidBook)
	}
	return nil
}

// Validate checks that info refers to a book.
func (i BookInfo) Validate() error {
	if i.BookID == uuid.Nil {
		return fmt.Errorf("%w: book_id is required", ErrInvalidBook)
	}
	if i.Year < 0 {
		return fmt.Errorf("%w: year must not be negative", ErrInvalidBook)
	}
	return nil
}
