// Package sqlstore implements catalog.Store on PostgreSQL or MySQL. Queries
// are built with goqu for the connection's dialect and scanned with sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bookstore/pkg/catalog"
)

const (
	booksTable    = "books"
	bookInfoTable = "book_info"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id    CHAR(36)      NOT NULL PRIMARY KEY,
		title VARCHAR(255)  NOT NULL UNIQUE,
		price DECIMAL(14,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_info (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		book_id     CHAR(36)     NOT NULL REFERENCES books (id),
		author      VARCHAR(255) NOT NULL,
		publisher   VARCHAR(255) NOT NULL,
		pub_year    INT          NOT NULL,
		description TEXT         NOT NULL
	)`,
}

// Store reads and writes the catalog tables.
type Store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// New wraps db. driver is the database/sql driver name, "postgres" or "mysql".
func New(db *sql.DB, driver string) (*Store, error) {
	switch driver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	return &Store{db: sqlx.NewDb(db, driver), dialect: goqu.Dialect(driver)}, nil
}

// Migrate creates the catalog tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: apply schema: %w", err)
		}
	}
	return nil
}

// ListBooks returns all books ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	query, args, err := s.selectBooks().Order(goqu.C("title").Asc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}
	books := []catalog.Book{}
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: list books: %w", err)
	}
	return books, nil
}

// GetBookByID retrieves a book by ID.
func (s *Store) GetBookByID(ctx context.Context, id uuid.UUID) (catalog.Book, error) {
	return s.getBook(ctx, goqu.Ex{"id": id.String()})
}

// GetBookByTitle retrieves a book by its exact title.
func (s *Store) GetBookByTitle(ctx context.Context, title string) (catalog.Book, error) {
	return s.getBook(ctx, goqu.Ex{"title": title})
}

func (s *Store) getBook(ctx context.Context, where goqu.Ex) (catalog.Book, error) {
	query, args, err := s.selectBooks().Where(where).Limit(1).ToSQL()
	if err != nil {
		return catalog.Book{}, fmt.Errorf("sqlstore: build query: %w", err)
	}
	var b catalog.Book
	err = s.db.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Book{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Book{}, fmt.Errorf("sqlstore: get book: %w", err)
	}
	return b, nil
}

func (s *Store) selectBooks() *goqu.SelectDataset {
	return s.dialect.From(booksTable).Prepared(true).Select("id", "title", "price")
}

// AddBook inserts a new book.
func (s *Store) AddBook(ctx context.Context, b catalog.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	query, args, err := s.dialect.Insert(booksTable).Prepared(true).
		Rows(goqu.Record{"id": b.ID.String(), "title": b.Title, "price": b.Price.StringFixed(2)}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlstore: build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return catalog.ErrAlreadyExists
		}
		return fmt.Errorf("sqlstore: insert book: %w", err)
	}
	return nil
}

// AddBookInfo attaches info to an existing book.
func (s *Store) AddBookInfo(ctx context.Context, info catalog.BookInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if _, err := s.GetBookByID(ctx, info.BookID); err != nil {
		return err
	}
	query, args, err := s.dialect.Insert(bookInfoTable).Prepared(true).
		Rows(goqu.Record{
			"id":          info.ID.String(),
			"book_id":     info.BookID.String(),
			"author":      info.Author,
			"publisher":   info.Publisher,
			"pub_year":    info.Year,
			"description": info.Description,
		}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlstore: build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlstore: insert book info: %w", err)
	}
	return nil
}

// GetBookInfo returns the info entries of a book.
func (s *Store) GetBookInfo(ctx context.Context, bookID uuid.UUID) ([]catalog.BookInfo, error) {
	query, args, err := s.dialect.From(bookInfoTable).Prepared(true).
		Select("id", "book_id", "author", "publisher", goqu.C("pub_year").As("year"), "description").
		Where(goqu.Ex{"book_id": bookID.String()}).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}
	var entries []catalog.BookInfo
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: get book info: %w", err)
	}
	if len(entries) == 0 {
		return nil, catalog.ErrNotFound
	}
	return entries, nil
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
