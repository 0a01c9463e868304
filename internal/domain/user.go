package domain

import "time"

// User is the wire-side representation of a user record. FullName is
// plaintext here; the repository encrypts it before it reaches the store.
type User struct {
	ID        string
	FullName  string
	CreatedAt time.Time
}
