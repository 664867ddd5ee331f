package models

import "time"

// User represents an account entity used for authentication and for
// attributing query-history entries. Credentials are stored as an
// HMAC-SHA256 hash; plaintext passwords never reach the persistence layer.
type User struct {
	// UserID is the internal unique identifier of the user.
	// It is not exposed via JSON and is used only at the persistence layer.
	UserID int64 `json:"-"`

	// Login is the unique user login identifier.
	Login string `json:"login"`

	// Password carries the plaintext password on register/login requests
	// only. It is hashed immediately at the service boundary and is never
	// persisted.
	Password string `json:"password,omitempty"`

	// AuthHash is the HMAC-SHA256 hash of the password under the
	// configured key. Never exposed via JSON.
	AuthHash string `json:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
