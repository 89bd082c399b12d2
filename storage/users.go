package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserExists = errors.New("user already exists")
	ErrNotFound   = errors.New("user not found")
)

// User is one account document. CreatedAt is nil for records written
// without a timestamp.
type User struct {
	Username     string
	PasswordHash []byte
	Permissions  []string
	CreatedAt    *time.Time
}

// UserStore keeps user documents in a single sqlite table (the collection).
type UserStore struct {
	db         *sql.DB
	collection string
}

// NewUserStore opens the sqlite database at dsn and ensures the collection
// table exists. collection must already be validated as an identifier.
func NewUserStore(dsn, collection string) (*UserStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &UserStore{db: db, collection: collection}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (us *UserStore) initialize() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		username TEXT PRIMARY KEY,
		password_hash BLOB NOT NULL,
		permissions TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME
	);
	`, us.collection)

	_, err := us.db.Exec(schema)
	return err
}

// FindByUsername returns ErrNotFound when no document matches.
func (us *UserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`
	SELECT username, password_hash, permissions, created_at
	FROM %s
	WHERE username = ?
	`, us.collection)

	var user User
	var permissions string
	var createdAt sql.NullTime
	err := us.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&permissions,
		&createdAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := json.Unmarshal([]byte(permissions), &user.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions for %s: %w", username, err)
	}
	if createdAt.Valid {
		t := createdAt.Time
		user.CreatedAt = &t
	}

	return &user, nil
}

// Exists reports whether a document with username is present.
func (us *UserStore) Exists(ctx context.Context, username string) (bool, error) {
	_, err := us.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Insert writes a new document. A duplicate username yields ErrUserExists
// and leaves the stored document untouched.
func (us *UserStore) Insert(ctx context.Context, user User) error {
	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	var createdAt any
	if user.CreatedAt != nil {
		createdAt = user.CreatedAt.UTC()
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (username, password_hash, permissions, created_at)
	VALUES (?, ?, ?, ?)
	`, us.collection)

	_, err = us.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		string(encoded),
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Count returns the number of stored documents.
func (us *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, us.collection)
	if err := us.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (us *UserStore) Close() error {
	if us.db != nil {
		return us.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
