package model

import "time"

// APIKey is an issued credential bound to the key request that authorized
// it. Username is the primary key: at most one active key per username.
// An APIKey row exists for a request iff that request is approved; the two
// are written in the same transaction.
type APIKey struct {
	Username  string     `json:"username" db:"username"`
	KeyString string     `json:"-" db:"key_string"` // issued secret, returned only via claim
	RequestID int64      `json:"requestId" db:"request_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}
