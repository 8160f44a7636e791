// Package service holds the credential workflow and the authentication
// guard. Both are stateless: all persistent state lives in the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kmbui/kmbui-backend/internal/keygen"
	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// receiptRetries bounds the receipt-collision retry loop in Create. A
// collision between random UUIDs is astronomically unlikely; hitting the
// bound means something is wrong with the randomness source.
const receiptRetries = 3

// ClaimResult is the outcome of a successful claim lookup. Issued is
// false when the request exists and the password matched but no key was
// ever issued (denied, or still pending) — an informational outcome the
// receipt holder is entitled to, not an error.
type ClaimResult struct {
	Issued   bool
	Key      string
	Username string
}

// KeyRequestService drives the request state machine:
// create → (approve|deny) → claim. It holds no state of its own.
type KeyRequestService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewKeyRequestService creates a KeyRequestService.
func NewKeyRequestService(st *store.Store, logger *slog.Logger) *KeyRequestService {
	return &KeyRequestService{store: st, logger: logger}
}

// Create registers a new pending request and returns its receipt — the
// requester's only chance to capture it. The password is hashed before it
// reaches the store; its internal ID and hash are never returned. A
// receipt collision is retried transparently with a fresh receipt.
func (s *KeyRequestService) Create(ctx context.Context, requesterName, requestDescription, password string) (string, error) {
	hashed, err := keygen.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash request password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	for attempt := 0; attempt < receiptRetries; attempt++ {
		receipt, err := keygen.NewReceipt()
		if err != nil {
			return "", err
		}

		req := &model.KeyRequest{
			RequesterName:      requesterName,
			RequestDescription: requestDescription,
			Receipt:            receipt,
			HashedPassword:     hashed,
		}
		err = s.store.CreateKeyRequest(ctx, req)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return "", err
		}
		s.logger.Warn("receipt collision, retrying", "attempt", attempt+1)
	}
	return "", fmt.Errorf("create key request: %d consecutive receipt collisions", receiptRetries)
}

// ListPending returns the administrator-visible queue of undecided
// requests, oldest first.
func (s *KeyRequestService) ListPending(ctx context.Context) ([]model.PendingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.store.ListPendingRequests(ctx)
}

// Decide settles a pending request. Approval generates a key string and
// writes the status flip plus the key row atomically; either both land or
// neither does. Denial flips the status with no key. In both cases a
// request that is absent or already decided comes back as
// store.ErrNotFound and nothing is written.
func (s *KeyRequestService) Decide(ctx context.Context, id int64, approve bool, username string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if !approve {
		if err := s.store.DenyRequest(ctx, id); err != nil {
			return err
		}
		s.logger.Info("key request denied", "request_id", id)
		return nil
	}

	keyString, err := keygen.NewKeyString(keygen.KeyLength)
	if err != nil {
		return fmt.Errorf("generate key string: %w", err)
	}

	key := &model.APIKey{
		Username:  username,
		KeyString: keyString,
	}
	if err := s.store.ApproveRequest(ctx, id, key); err != nil {
		return err
	}
	s.logger.Info("key request approved", "request_id", id, "username", username)
	return nil
}

// Claim resolves a receipt + password pair to its outcome. Lookup order
// matters: the password is verified before the key lookup, so a caller
// with a wrong password always sees the same rejection whatever the
// request's decision status — no probing the state through error codes.
func (s *KeyRequestService) Claim(ctx context.Context, receipt, password string) (*ClaimResult, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	req, err := s.store.GetKeyRequestByReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}

	ok, err := keygen.VerifyPassword(password, req.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("verify claim password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	key, err := s.store.GetAPIKeyByRequestID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Denied or still pending: a legitimate outcome, not an error.
			return &ClaimResult{Issued: false}, nil
		}
		return nil, err
	}

	return &ClaimResult{Issued: true, Key: key.KeyString, Username: key.Username}, nil
}
