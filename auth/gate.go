// Package auth implements the username/password gate over the user store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mcpgate/config"
	"mcpgate/storage"
)

var (
	ErrAlreadyExists   = errors.New("user already exists")
	ErrDenied          = errors.New("invalid credentials")
	ErrMissingFields   = errors.New("username and password are required")
	ErrPasswordTooLong = errors.New("password is too long")
)

// UserStore is the subset of storage.UserStore the gate needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*storage.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, user storage.User) error
}

type Gate struct {
	store UserStore
	cost  int
	now   func() time.Time

	decoyOnce sync.Once
	decoy     []byte
}

type GateOption func(*Gate)

// WithCost sets the bcrypt cost (tests use bcrypt.MinCost). Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func WithCost(cost int) GateOption {
	return func(g *Gate) {
		g.cost = cost
	}
}

func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(store UserStore, opts ...GateOption) *Gate {
	g := &Gate{
		store: store,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cost < bcrypt.MinCost || g.cost > bcrypt.MaxCost {
		g.cost = bcrypt.DefaultCost
	}
	return g
}

// CreateUser stores a new account. The existence lookup and the insert are
// separate steps; the primary key still rejects a concurrent duplicate, which
// is reported as ErrAlreadyExists as well.
func (g *Gate) CreateUser(ctx context.Context, username, password string, permissions []string) error {
	if username == "" || password == "" {
		return ErrMissingFields
	}

	exists, err := g.store.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if exists {
		return ErrAlreadyExists
	}

	hash, err := HashPassword(password, g.cost)
	if err != nil {
		return err
	}

	createdAt := g.now()
	err = g.store.Insert(ctx, storage.User{
		Username:     username,
		PasswordHash: hash,
		Permissions:  slices.Clone(permissions),
		CreatedAt:    &createdAt,
	})
	if errors.Is(err, storage.ErrUserExists) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[auth] created user %q with %d permissions", username, len(permissions))
	}

	return nil
}

// Authenticate returns the stored permissions on success. Unknown users and
// wrong passwords both return (empty, ErrDenied); an unknown user is still
// checked against a decoy hash so both paths cost one bcrypt comparison.
func (g *Gate) Authenticate(ctx context.Context, username, password string) ([]string, error) {
	user, err := g.store.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[auth] lookup failed for %q: %v", username, err)
			}
		}
		VerifyPassword(password, g.decoyHash())
		return []string{}, ErrDenied
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return []string{}, ErrDenied
	}

	permissions := slices.Clone(user.Permissions)
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}

func (g *Gate) decoyHash() []byte {
	g.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("mcpgate-decoy-password"), g.cost)
		if err != nil {
			hash, _ = bcrypt.GenerateFromPassword([]byte("mcpgate-decoy-password"), bcrypt.DefaultCost)
		}
		g.decoy = hash
	})
	return g.decoy
}
