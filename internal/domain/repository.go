package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
)

// User is an account stored in the catalog database. Only credentials live
// here; activity history is keyed by username in the document store.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CatalogRepository captures emission-factor catalog operations. Empty status
// or owner arguments act as wildcards so the resolver can express its lookup
// tiers as successive narrowing queries.
type CatalogRepository interface {
	AllKeys(ctx context.Context) ([]string, error)
	Find(ctx context.Context, key string, status FactorStatus, owner string) ([]EmissionFactor, error)
	Insert(ctx context.Context, factor EmissionFactor) error
}

// HistoryStore persists activity records as documents keyed by username.
type HistoryStore interface {
	SaveRecord(ctx context.Context, record ActivityRecord) error
	ListByUser(ctx context.Context, username string, limit int) ([]ActivityRecord, error)
}

// UserRepository captures account persistence for register/login.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	FindUser(ctx context.Context, username string) (*User, error)
}
