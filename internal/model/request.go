package model

import "time"

// RequestStatus is the lifecycle state of a key request. A request starts
// as pending and moves to approved or denied exactly once, by administrator
// decision. Expired is part of the schema but no transition produces it yet.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
	StatusExpired  RequestStatus = "expired"
)

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s is a state no administrator decision can leave.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// KeyRequest is one requester's ask for an API key. The receipt is the
// bearer token handed back at creation; it is the only way to claim the
// key later. The password is stored as an Argon2id hash, never raw.
type KeyRequest struct {
	ID                 int64         `json:"id" db:"id"`
	RequesterName      string        `json:"requesterName" db:"requester_name"`
	RequestDescription string        `json:"requestDescription" db:"request_description"`
	Receipt            string        `json:"receipt" db:"receipt"`
	HashedPassword     string        `json:"-" db:"hashed_password"` // Argon2id hash, never expose
	Status             RequestStatus `json:"status" db:"status"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt          *time.Time    `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt          *time.Time    `json:"-" db:"deleted_at"`
}

// PendingRequest is the administrator-facing projection of a pending
// KeyRequest. Exposing the receipt here is deliberate: administrators use
// it as the request identifier when talking to requesters.
type PendingRequest struct {
	ID                 int64     `json:"id" db:"id"`
	RequesterName      string    `json:"requesterName" db:"requester_name"`
	RequestDescription string    `json:"requestDescription" db:"request_description"`
	Receipt            string    `json:"receipt" db:"receipt"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}
