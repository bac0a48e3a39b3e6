// Package storage declares the interface every storage backend must satisfy.
package storage

import (
	"context"

	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/user"
)

// Storage is the full contract of a storage backend: the user registry
// and the short-URL table.
//
// Insert-if-absent operations perform the existence check and the insert
// under the same lock, so callers may safely retry with a fresh code when
// the reported result is "already taken".
type Storage interface {
	// InsertUserIfAbsent stores the user unless the id is already taken.
	// It reports false without inserting when another user holds the id,
	// and fails with models.ErrEmailTaken when the email is registered.
	InsertUserIfAbsent(ctx context.Context, usr *user.User) (bool, error)

	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	// InsertURLIfAbsent stores the entry unless the code is already taken,
	// reporting whether the insert happened.
	InsertURLIfAbsent(ctx context.Context, entry models.ShortURLEntry) (bool, error)

	FindURLByCode(ctx context.Context, code string) (models.ShortURLEntry, bool, error)

	// UpdateURLDestination replaces the destination of an existing entry.
	UpdateURLDestination(ctx context.Context, code, destination string) error

	// DeleteURL removes the entry. Deleting an absent code fails with
	// models.ErrNotFound.
	DeleteURL(ctx context.Context, code string) error

	FindURLsByOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error)

	// AllURLs returns every stored entry. It backs the debug dump endpoint.
	AllURLs(ctx context.Context) ([]models.ShortURLEntry, error)

	Ping(ctx context.Context) error

	Close() error
}
