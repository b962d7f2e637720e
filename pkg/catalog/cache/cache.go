// Package cache puts a Redis read-through cache in front of a catalog.Store.
// Only single-book lookups are cached; they are the hot path of ordering.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"bookstore/pkg/catalog"
	"bookstore/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store caches GetBookByID results of the wrapped store.
type Store struct {
	catalog.Store
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// New wraps next. Keys are "<prefix>:book:<id>". Redis failures are logged
// to log at debug level and otherwise ignored.
func New(next catalog.Store, client *redis.Client, prefix string, ttl time.Duration, log *logger.Logger) *Store {
	return &Store{Store: next, client: client, prefix: prefix, ttl: ttl, log: log}
}

func (s *Store) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:book:%s", s.prefix, id)
}

// GetBookByID serves the book from Redis when present. Redis failures fall
// back to the wrapped store.
func (s *Store) GetBookByID(ctx context.Context, id uuid.UUID) (catalog.Book, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	switch {
	case err == nil:
		var b catalog.Book
		derr := json.Unmarshal(raw, &b)
		if derr == nil {
			return b, nil
		}
		s.log.Debug(ctx, "cache decode failed", "book_id", id.String(), "error", derr)
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return catalog.Book{}, ctx.Err()
	default:
		s.log.Debug(ctx, "cache read failed", "book_id", id.String(), "error", err)
	}

	b, err := s.Store.GetBookByID(ctx, id)
	if err != nil {
		return catalog.Book{}, err
	}
	if err := s.put(ctx, b); err != nil {
		s.log.Debug(ctx, "cache write failed", "book_id", b.ID.String(), "error", err)
	}
	return b, nil
}

// AddBook stores the book and primes the cache.
func (s *Store) AddBook(ctx context.Context, b catalog.Book) error {
	if err := s.Store.AddBook(ctx, b); err != nil {
		return err
	}
	if err := s.put(ctx, b); err != nil {
		s.log.Debug(ctx, "cache write failed", "book_id", b.ID.String(), "error", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, b catalog.Book) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("cache: encode book: %w", err)
	}
	if err := s.client.Set(ctx, s.key(b.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", s.key(b.ID), err)
	}
	return nil
}
