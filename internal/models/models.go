// Package models defines the domain entities and the sentinel errors
// shared between the storage, service, auth and router layers.
package models

import "errors"

// ShortURLEntry maps a short code to its destination URL and the user
// who created it. Only the owner may change or remove the entry.
type ShortURLEntry struct {
	Code        string `json:"code"`
	Destination string `json:"destination"`
	OwnerID     string `json:"owner_id"`
}

// Sentinel errors recovered at the request boundary and translated
// to a status code or redirect. None of them is fatal to the process.
var (
	// ErrInvalidInput means a required field was empty or absent.
	ErrInvalidInput = errors.New("required field is missing")

	// ErrUnauthenticated means the request carries no active session.
	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrForbidden means the session is valid but does not own the resource.
	ErrForbidden = errors.New("requester does not own the entry")

	// ErrNotFound means the referenced short code or user is absent.
	ErrNotFound = errors.New("no such entry")

	// ErrEmailTaken means another user is already registered under the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
