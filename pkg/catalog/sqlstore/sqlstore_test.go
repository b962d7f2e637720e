package sqlstore

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/catalog"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(db, "postgres")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(nil, "sqlite")
	assert.Error(t, err)
}

func TestStore_Books(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	b := catalog.Book{ID: uuid.New(), Title: "Title " + uuid.NewString(), Price: decimal.RequireFromString("12.30")}
	require.NoError(t, s.AddBook(ctx, b))
	assert.ErrorIs(t, s.AddBook(ctx, catalog.Book{ID: uuid.New(), Title: b.Title, Price: b.Price}), catalog.ErrAlreadyExists)

	got, err := s.GetBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, got.Title)
	assert.True(t, got.Price.Equal(b.Price))

	got, err = s.GetBookByTitle(ctx, b.Title)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.GetBookByID(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, books)

	_, err = s.GetBookInfo(ctx, b.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	info := catalog.BookInfo{ID: uuid.New(), BookID: b.ID, Author: "A. Author", Publisher: "P", Year: 1999, Description: "d"}
	require.NoError(t, s.AddBookInfo(ctx, info))
	entries, err := s.GetBookInfo(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, info, entries[0])
}
