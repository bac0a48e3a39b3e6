// Package service implements the ownership-scoped short URL operations.
// Every mutating path runs its authorization gate before touching the
// store, and code issuance resamples until the store accepts a free code.
package service

import (
	"context"

	"github.com/thoas/go-funk"

	"github.com/maxhur/tinyapp/internal/models"
)

type urlsKeeper interface {
	InsertURLIfAbsent(ctx context.Context, entry models.ShortURLEntry) (bool, error)

	FindURLByCode(ctx context.Context, code string) (models.ShortURLEntry, bool, error)

	UpdateURLDestination(ctx context.Context, code, destination string) error

	DeleteURL(ctx context.Context, code string) error

	FindURLsByOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error)

	AllURLs(ctx context.Context) ([]models.ShortURLEntry, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

// Service exposes the short URL operations over a storage backend.
type Service struct {
	db           urlsKeeper
	generator    codeGenerator
	shortURLBase string
}

// New creates a Service over the given storage, code generator and
// public base address of the resulting short URLs.
func New(db urlsKeeper, generator codeGenerator, shortURLBase string) *Service {
	return &Service{
		db:           db,
		generator:    generator,
		shortURLBase: shortURLBase,
	}
}

// Shorten stores the destination under a fresh unique code owned by
// ownerID and returns the code. The generator gives no uniqueness
// guarantee, so the insert-if-absent result decides whether to resample;
// the check and the insert are atomic inside the storage.
func (s *Service) Shorten(ctx context.Context, destination, ownerID string) (string, error) {
	if ownerID == "" {
		return "", models.ErrUnauthenticated
	}
	if destination == "" {
		return "", models.ErrInvalidInput
	}

	for {
		code, err := s.generator.Generate()
		if err != nil {
			return "", err
		}

		inserted, err := s.db.InsertURLIfAbsent(ctx, models.ShortURLEntry{
			Code:        code,
			Destination: destination,
			OwnerID:     ownerID,
		})
		if err != nil {
			return "", err
		}
		if inserted {
			return code, nil
		}
	}
}

// Resolve returns the destination behind a code for the public redirect
// path. A missing code fails with models.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	entry, found, err := s.db.FindURLByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !found {
		return "", models.ErrNotFound
	}

	return entry.Destination, nil
}

// GetForOwner is the authorization gate for viewing or editing a single
// entry: models.ErrNotFound when the code is absent, models.ErrForbidden
// when the requester is not the owner.
func (s *Service) GetForOwner(ctx context.Context, code, requesterID string) (models.ShortURLEntry, error) {
	if requesterID == "" {
		return models.ShortURLEntry{}, models.ErrUnauthenticated
	}

	entry, found, err := s.db.FindURLByCode(ctx, code)
	if err != nil {
		return models.ShortURLEntry{}, err
	}
	if !found {
		return models.ShortURLEntry{}, models.ErrNotFound
	}
	if entry.OwnerID != requesterID {
		return models.ShortURLEntry{}, models.ErrForbidden
	}

	return entry, nil
}

// Update replaces the destination of an entry owned by requesterID.
// Updating an absent code fails with models.ErrNotFound instead of
// silently inserting a new entry under the requester.
func (s *Service) Update(ctx context.Context, code, newDestination, requesterID string) error {
	if newDestination == "" {
		return models.ErrInvalidInput
	}

	if _, err := s.GetForOwner(ctx, code, requesterID); err != nil {
		return err
	}

	return s.db.UpdateURLDestination(ctx, code, newDestination)
}

// Delete removes an entry owned by requesterID. Deleting an absent code
// fails with models.ErrNotFound instead of silently succeeding.
func (s *Service) Delete(ctx context.Context, code, requesterID string) error {
	if _, err := s.GetForOwner(ctx, code, requesterID); err != nil {
		return err
	}

	return s.db.DeleteURL(ctx, code)
}

// ListForOwner returns every entry created by ownerID, in no particular order.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}

	return s.db.FindURLsByOwner(ctx, ownerID)
}

// DumpAll returns the whole URL table keyed by code. It backs the
// /urls.json debug endpoint.
func (s *Service) DumpAll(ctx context.Context) (map[string]models.ShortURLEntry, error) {
	entries, err := s.db.AllURLs(ctx)
	if err != nil {
		return nil, err
	}

	return funk.ToMap(entries, "Code").(map[string]models.ShortURLEntry), nil
}

// GetShortURL renders the public address of a code.
func (s *Service) GetShortURL(code string) string {
	return s.shortURLBase + "/u/" + code
}
