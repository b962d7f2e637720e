// Package session keeps login sessions in Redis and resolves them to the
// identity of the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Role is an authorization level. Higher roles include lower ones.
type Role string

// Roles, lowest first.
const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var rank = map[Role]int{RoleUser: 1, RoleManager: 2, RoleAdmin: 3}

// Identity is the authenticated caller.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Has reports whether the identity's role includes r.
func (i Identity) Has(r Role) bool {
	return rank[i.Role] >= rank[r] && rank[r] > 0
}

var (
	// ErrNoSession indicates the session ID is unknown or expired.
	ErrNoSession = errors.New("session not found")
	// ErrInvalidUsername is returned by Create for blank usernames.
	ErrInvalidUsername = errors.New("invalid username")
)

const keyPrefix = "session:"

// Store issues and resolves sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	roles  map[string]Role
}

// New returns a Store. Usernames listed in managers or admins receive that
// role on login; everyone else is a plain user.
func New(client *redis.Client, ttl time.Duration, managers, admins []string) *Store {
	roles := make(map[string]Role, len(managers)+len(admins))
	for _, m := range managers {
		roles[m] = RoleManager
	}
	for _, a := range admins {
		roles[a] = RoleAdmin
	}
	return &Store{client: client, ttl: ttl, roles: roles}
}

// TTL is the lifetime of a new session.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create opens a session for username and returns its ID.
func (s *Store) Create(ctx context.Context, username string) (string, Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", Identity{}, ErrInvalidUsername
	}
	id := Identity{Username: username, Role: RoleUser}
	if r, ok := s.roles[username]; ok {
		id.Role = r
	}
	sid := uuid.NewString()
	key := keyPrefix + sid
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "username", id.Username, "role", string(id.Role))
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", Identity{}, fmt.Errorf("session: create: %w", err)
	}
	return sid, id, nil
}

// Lookup resolves a session ID.
func (s *Store) Lookup(ctx context.Context, sid string) (Identity, error) {
	if sid == "" {
		return Identity{}, ErrNoSession
	}
	fields, err := s.client.HGetAll(ctx, keyPrefix+sid).Result()
	if err != nil {
		return Identity{}, fmt.Errorf("session: lookup: %w", err)
	}
	if fields["username"] == "" {
		return Identity{}, ErrNoSession
	}
	return Identity{Username: fields["username"], Role: Role(fields["role"])}, nil
}

// Delete ends a session.
func (s *Store) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
