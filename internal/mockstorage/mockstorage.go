// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used in unit tests to script storage behavior,
// for example to force a code collision on the first insert attempt.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/user"
)

// StorageMock is a testify mock that implements the storage interfaces
// consumed by the auth and service packages.
type StorageMock struct {
	mock.Mock
}

// InsertUserIfAbsent mocks conditional user insertion.
func (m *StorageMock) InsertUserIfAbsent(ctx context.Context, usr *user.User) (bool, error) {
	args := m.Called(ctx, usr)
	return args.Bool(0), args.Error(1)
}

// FindUserByEmail mocks user lookup by email.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks user lookup by id.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// InsertURLIfAbsent mocks conditional entry insertion.
func (m *StorageMock) InsertURLIfAbsent(ctx context.Context, entry models.ShortURLEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

// FindURLByCode mocks entry lookup.
func (m *StorageMock) FindURLByCode(ctx context.Context, code string) (models.ShortURLEntry, bool, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(models.ShortURLEntry), args.Bool(1), args.Error(2)
}

// UpdateURLDestination mocks destination replacement.
func (m *StorageMock) UpdateURLDestination(ctx context.Context, code, destination string) error {
	args := m.Called(ctx, code, destination)
	return args.Error(0)
}

// DeleteURL mocks entry removal.
func (m *StorageMock) DeleteURL(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// FindURLsByOwner mocks the owner listing.
func (m *StorageMock) FindURLsByOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error) {
	args := m.Called(ctx, ownerID)
	entries, _ := args.Get(0).([]models.ShortURLEntry)
	return entries, args.Error(1)
}

// AllURLs mocks the full table dump.
func (m *StorageMock) AllURLs(ctx context.Context) ([]models.ShortURLEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]models.ShortURLEntry)
	return entries, args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks resource release.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
