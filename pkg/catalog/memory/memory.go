// Package memory implements an in-memory catalog store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore/pkg/catalog"
)

// Store provides an in-memory implementation of catalog.Store.
type Store struct {
	mu    sync.RWMutex
	books map[uuid.UUID]catalog.Book
	info  map[uuid.UUID][]catalog.BookInfo
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		books: make(map[uuid.UUID]catalog.Book),
		info:  make(map[uuid.UUID][]catalog.BookInfo),
	}
}

// ListBooks returns all books ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// GetBookByID retrieves a book by ID.
func (s *Store) GetBookByID(ctx context.Context, id uuid.UUID) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return catalog.Book{}, catalog.ErrNotFound
	}
	return b, nil
}

// GetBookByTitle retrieves a book by its exact title.
func (s *Store) GetBookByTitle(ctx context.Context, title string) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.Title == title {
			return b, nil
		}
	}
	return catalog.Book{}, catalog.ErrNotFound
}

// AddBook stores a new book. Titles are unique.
func (s *Store) AddBook(ctx context.Context, b catalog.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[b.ID]; ok {
		return catalog.ErrAlreadyExists
	}
	for _, existing := range s.books {
		if existing.Title == b.Title {
			return catalog.ErrAlreadyExists
		}
	}
	s.books[b.ID] = b
	return nil
}

// SetPrice changes the list price of a stored book.
func (s *Store) SetPrice(id uuid.UUID, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return catalog.ErrNotFound
	}
	b.Price = price
	s.books[id] = b
	return nil
}

// AddBookInfo attaches info to an existing book.
func (s *Store) AddBookInfo(ctx context.Context, info catalog.BookInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[info.BookID]; !ok {
		return catalog.ErrNotFound
	}
	s.info[info.BookID] = append(s.info[info.BookID], info)
	return nil
}

// GetBookInfo returns the info entries of a book.
func (s *Store) GetBookInfo(ctx context.Context, bookID uuid.UUID) ([]catalog.BookInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.info[bookID]
	if len(entries) == 0 {
		return nil, catalog.ErrNotFound
	}
	out := make([]catalog.BookInfo, len(entries))
	copy(out, entries)
	return out, nil
}
