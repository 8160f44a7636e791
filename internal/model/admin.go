package model

import "time"

// AdminUser is a principal allowed to approve or deny key requests.
// Accounts are provisioned out-of-band with `kmbui admin create`; the
// core only ever reads them. Passwords are stored as Argon2id hashes.
type AdminUser struct {
	Username       string     `json:"username" db:"username"`
	HashedPassword string     `json:"-" db:"hashed_password"` // Argon2id hash, never expose
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt      *time.Time `json:"-" db:"deleted_at"`
}
