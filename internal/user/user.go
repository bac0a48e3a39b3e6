// Package user defines the user model used for authentication and
// for associating shortened URLs with their owners.
package user

// User represents a registered user. Records are created once and never
// updated or deleted afterwards.
type User struct {
	// ID is the unique identifier of the user. It is issued by the same
	// short-code generator that produces URL codes.
	ID string `json:"id"`

	// Email is unique across all users (case-sensitive exact match).
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// The plaintext is never stored nor logged.
	PasswordHash string `json:"-"`
}
