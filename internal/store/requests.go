package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kmbui/kmbui-backend/internal/model"
)

// CreateKeyRequest inserts a new pending request. The ID, Status, and
// CreatedAt fields on req are populated after a successful insert. A
// receipt collision returns ErrConflict; callers retry with a fresh
// receipt.
func (s *Store) CreateKeyRequest(ctx context.Context, req *model.KeyRequest) error {
	req.Status = model.StatusPending
	req.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO key_requests
		(requester_name, request_description, receipt, hashed_password, status, created_at)
		VALUES
		(:requester_name, :request_description, :receipt, :hashed_password, :status, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, req)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert key request: %w", ErrConflict)
		}
		return fmt.Errorf("insert key request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		// Postgres has no LastInsertId; fall back to a receipt lookup.
		created, lookupErr := s.GetKeyRequestByReceipt(ctx, req.Receipt)
		if lookupErr != nil {
			return fmt.Errorf("get key request id: %w", lookupErr)
		}
		req.ID = created.ID
		return nil
	}
	req.ID = id
	return nil
}

// ListPendingRequests returns every pending request ordered by creation
// time ascending, oldest first, so administrators see a stable queue.
func (s *Store) ListPendingRequests(ctx context.Context) ([]model.PendingRequest, error) {
	var rows []model.PendingRequest
	q := s.rebind(`SELECT id, requester_name, request_description, receipt, created_at
		FROM key_requests WHERE status = ? ORDER BY created_at ASC, id ASC`)
	if err := s.db.SelectContext(ctx, &rows, q, model.StatusPending); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return rows, nil
}

// GetKeyRequestByID returns a request by its surrogate ID.
func (s *Store) GetKeyRequestByID(ctx context.Context, id int64) (*model.KeyRequest, error) {
	var req model.KeyRequest
	q := s.rebind("SELECT * FROM key_requests WHERE id = ?")
	if err := s.db.GetContext(ctx, &req, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get key request: %w", err)
	}
	return &req, nil
}

// GetKeyRequestByReceipt returns the request holding the given receipt.
// Zero matches is ErrNotFound. More than one match should be structurally
// impossible given the unique constraint; it returns ErrInconsistent so
// the caller surfaces an internal error instead of a misleading 404.
func (s *Store) GetKeyRequestByReceipt(ctx context.Context, receipt string) (*model.KeyRequest, error) {
	var rows []model.KeyRequest
	q := s.rebind("SELECT * FROM key_requests WHERE receipt = ?")
	if err := s.db.SelectContext(ctx, &rows, q, receipt); err != nil {
		return nil, fmt.Errorf("get key request by receipt: %w", err)
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%d requests share receipt: %w", len(rows), ErrInconsistent)
	}
}

// ApproveRequest flips a pending request to approved and inserts the
// issued key in one transaction. The status update is a compare-and-set
// that matches only rows still pending, so of two concurrent approvals
// exactly one succeeds; the other sees zero affected rows and gets
// ErrNotFound with no key row written.
func (s *Store) ApproveRequest(ctx context.Context, id int64, key *model.APIKey) error {
	now := time.Now().UTC()
	key.RequestID = id
	key.CreatedAt = now

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE key_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?"),
			model.StatusApproved, now, id, model.StatusPending)
		if err != nil {
			return fmt.Errorf("approve request: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("approve request rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}

		const insertQ = `INSERT INTO api_keys (username, key_string, request_id, created_at)
			VALUES (:username, :key_string, :request_id, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertQ, key); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert api key: %w", ErrConflict)
			}
			return fmt.Errorf("insert api key: %w", err)
		}
		return nil
	})
}

// DenyRequest flips a pending request to denied. Like ApproveRequest the
// update matches only pending rows; a request already decided (or absent)
// returns ErrNotFound.
func (s *Store) DenyRequest(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE key_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?"),
		model.StatusDenied, now, id, model.StatusPending)
	if err != nil {
		return fmt.Errorf("deny request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deny request rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAPIKeyByRequestID returns the key issued for a request. Zero matches
// means the request was denied or is still pending. More than one match is
// an inconsistency: issuance is supposed to be exactly-once.
func (s *Store) GetAPIKeyByRequestID(ctx context.Context, requestID int64) (*model.APIKey, error) {
	var rows []model.APIKey
	q := s.rebind("SELECT * FROM api_keys WHERE request_id = ?")
	if err := s.db.SelectContext(ctx, &rows, q, requestID); err != nil {
		return nil, fmt.Errorf("get api key by request id: %w", err)
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%d keys issued for request %d: %w", len(rows), requestID, ErrInconsistent)
	}
}

// CountAPIKeysForRequest returns the number of key rows bound to a
// request. Used by tests asserting exactly-once issuance.
func (s *Store) CountAPIKeysForRequest(ctx context.Context, requestID int64) (int, error) {
	var count int
	q := s.rebind("SELECT COUNT(*) FROM api_keys WHERE request_id = ?")
	if err := s.db.GetContext(ctx, &count, q, requestID); err != nil {
		return 0, fmt.Errorf("count api keys: %w", err)
	}
	return count, nil
}

// CreateAdmin inserts an admin account. Provisioning happens out-of-band
// through the CLI; the request workflow never writes admins.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.AdminUser) error {
	admin.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO admin_users (username, hashed_password, created_at)
		VALUES (:username, :hashed_password, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, admin); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert admin: %w", ErrConflict)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdmin returns an admin account by username. A multi-row match is
// reported as ErrInconsistent: it cannot happen while username stays the
// primary key, but if the schema ever drifts this must surface as a data
// bug, not a login failure.
func (s *Store) GetAdmin(ctx context.Context, username string) (*model.AdminUser, error) {
	var rows []model.AdminUser
	q := s.rebind("SELECT * FROM admin_users WHERE username = ?")
	if err := s.db.SelectContext(ctx, &rows, q, username); err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%d admin rows for username: %w", len(rows), ErrInconsistent)
	}
}

// ListAdmins returns all admin accounts ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var admins []model.AdminUser
	if err := s.db.SelectContext(ctx, &admins, "SELECT * FROM admin_users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}
