// Package memorystorage is the in-memory storage backend. All state lives
// for the process lifetime only.
package memorystorage

import (
	"context"
	"sync"

	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/user"
)

// MemoryStorage keeps users and short URLs in maps guarded by a single
// read-write mutex. Check-then-act sequences (insert-if-absent) run under
// the write lock, which makes code issuance atomic across requests.
type MemoryStorage struct {
	mu           sync.RWMutex
	users        map[string]*user.User
	usersByEmail map[string]string
	urls         map[string]models.ShortURLEntry
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:        map[string]*user.User{},
		usersByEmail: map[string]string{},
		urls:         map[string]models.ShortURLEntry{},
	}, nil
}

// InsertUserIfAbsent stores the user unless the email or the id is taken.
func (theStorage *MemoryStorage) InsertUserIfAbsent(ctx context.Context, usr *user.User) (bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, exists := theStorage.usersByEmail[usr.Email]; exists {
		return false, models.ErrEmailTaken
	}
	if _, exists := theStorage.users[usr.ID]; exists {
		return false, nil
	}

	stored := *usr
	theStorage.users[usr.ID] = &stored
	theStorage.usersByEmail[usr.Email] = usr.ID

	return true, nil
}

// FindUserByEmail resolves a user by exact email match.
func (theStorage *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	userID, found := theStorage.usersByEmail[email]
	if !found {
		return nil, false, nil
	}
	usr := *theStorage.users[userID]

	return &usr, true, nil
}

// FindUserByID resolves a user by id.
func (theStorage *MemoryStorage) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	usr, found := theStorage.users[userID]
	if !found {
		return nil, false, nil
	}
	copied := *usr

	return &copied, true, nil
}

// InsertURLIfAbsent stores the entry unless the code is already taken.
func (theStorage *MemoryStorage) InsertURLIfAbsent(ctx context.Context, entry models.ShortURLEntry) (bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, exists := theStorage.urls[entry.Code]; exists {
		return false, nil
	}
	theStorage.urls[entry.Code] = entry

	return true, nil
}

// FindURLByCode looks up a single entry.
func (theStorage *MemoryStorage) FindURLByCode(ctx context.Context, code string) (models.ShortURLEntry, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	entry, found := theStorage.urls[code]

	return entry, found, nil
}

// UpdateURLDestination replaces the destination of an existing entry.
func (theStorage *MemoryStorage) UpdateURLDestination(ctx context.Context, code, destination string) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	entry, found := theStorage.urls[code]
	if !found {
		return models.ErrNotFound
	}
	entry.Destination = destination
	theStorage.urls[code] = entry

	return nil
}

// DeleteURL removes the entry irrevocably.
func (theStorage *MemoryStorage) DeleteURL(ctx context.Context, code string) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, found := theStorage.urls[code]; !found {
		return models.ErrNotFound
	}
	delete(theStorage.urls, code)

	return nil
}

// FindURLsByOwner returns every entry created by the given user, in no
// particular order.
func (theStorage *MemoryStorage) FindURLsByOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := []models.ShortURLEntry{}
	for _, entry := range theStorage.urls {
		if entry.OwnerID == ownerID {
			result = append(result, entry)
		}
	}

	return result, nil
}

// AllURLs returns every stored entry.
func (theStorage *MemoryStorage) AllURLs(ctx context.Context) ([]models.ShortURLEntry, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := make([]models.ShortURLEntry, 0, len(theStorage.urls))
	for _, entry := range theStorage.urls {
		result = append(result, entry)
	}

	return result, nil
}

// Ping always succeeds for the in-memory backend.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases nothing for the in-memory backend.
func (theStorage *MemoryStorage) Close() error {
	return nil
}
