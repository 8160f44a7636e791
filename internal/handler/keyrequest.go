package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/service"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// KeyRequestHandler adapts the credential workflow to HTTP. All workflow
// decisions live in the service; this layer only validates input and maps
// outcomes to status codes.
type KeyRequestHandler struct {
	svc    *service.KeyRequestService
	store  *store.Store
	logger *slog.Logger
}

// NewKeyRequestHandler creates a KeyRequestHandler.
func NewKeyRequestHandler(svc *service.KeyRequestService, st *store.Store, logger *slog.Logger) *KeyRequestHandler {
	return &KeyRequestHandler{svc: svc, store: st, logger: logger}
}

// createRequest is the expected payload for Create.
type createRequest struct {
	RequesterName      string `json:"requesterName"`
	RequestDescription string `json:"requestDescription"`
	Password           string `json:"password"`
}

// Create registers a new key request and returns the receipt — the one
// and only time the requester can capture it.
// POST /key-requests
func (h *KeyRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSON(r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": "invalid JSON: " + err.Error()})
		return
	}

	fields := make(map[string]string)
	if req.RequesterName == "" {
		fields["requesterName"] = "Required property"
	}
	if req.RequestDescription == "" {
		fields["requestDescription"] = "Required property"
	}
	if req.Password == "" {
		fields["password"] = "Required property"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	receipt, err := h.svc.Create(r.Context(), req.RequesterName, req.RequestDescription, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create key request")
		return
	}

	writeJSON(w, http.StatusCreated, model.ReceiptResponse{Receipt: receipt})
}

// ListPending returns the administrator-visible queue of pending
// requests. Authentication happens in the RequireAdmin middleware; a
// rejected request never reaches this handler.
// GET /key-requests
func (h *KeyRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list key requests")
		return
	}
	if pending == nil {
		pending = []model.PendingRequest{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// decideRequest is the expected payload for Decide. Username is required
// when approving: it becomes the issued key's identity.
type decideRequest struct {
	Username string `json:"username,omitempty"`
	Approved bool   `json:"approved"`
}

// Decide approves or denies a pending request by ID.
// PATCH /key-requests/{id}
func (h *KeyRequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeText(w, http.StatusNotFound, "Key request not found")
		return
	}

	var req decideRequest
	if err := readJSON(r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": "invalid JSON: " + err.Error()})
		return
	}
	if req.Approved && req.Username == "" {
		writeValidationError(w, map[string]string{"username": "Required property when approving"})
		return
	}

	if err := h.svc.Decide(r.Context(), id, req.Approved, req.Username); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeText(w, http.StatusNotFound, fmt.Sprintf("Key request with ID %d doesn't exist", id))
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "A key already exists for that username")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to decide key request")
		}
		return
	}

	if req.Approved {
		writeText(w, http.StatusOK, fmt.Sprintf("API key request with ID %d has been approved", id))
	} else {
		writeText(w, http.StatusOK, fmt.Sprintf("API key request with ID %d has been denied", id))
	}
}

// claimRequest is the expected payload for Claim.
type claimRequest struct {
	Receipt  string `json:"receipt"`
	Password string `json:"password"`
}

// Claim resolves a receipt + password to the issued key, a notice that no
// key was issued, or a rejection. This is the one requester-self-service
// operation: no administrator identity involved, and the claim is
// repeatable.
// POST /key-claims
func (h *KeyRequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := readJSON(r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": "invalid JSON: " + err.Error()})
		return
	}

	fields := make(map[string]string)
	if req.Receipt == "" {
		fields["receipt"] = "Required property"
	}
	if req.Password == "" {
		fields["password"] = "Required property"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	result, err := h.svc.Claim(r.Context(), req.Receipt, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeText(w, http.StatusNotFound, "Key request not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			// Inconsistencies and store failures alike: internal, opaque.
			writeError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	if !result.Issued {
		writeText(w, http.StatusOK, "No key has been issued for this request")
		return
	}

	h.auditClaim(r, result.Username)
	writeJSON(w, http.StatusOK, model.ClaimResponse{Key: result.Key})
}

// auditClaim records a successful claim in the usage log, best-effort.
func (h *KeyRequestHandler) auditClaim(r *http.Request, username string) {
	log := &model.UsageLog{
		APIUsername: &username,
		Endpoint:    r.Method + " " + r.URL.Path,
		Status:      http.StatusOK,
	}
	if err := h.store.InsertUsageLog(context.WithoutCancel(r.Context()), log); err != nil {
		h.logger.Warn("usage log write failed", "error", err, "endpoint", log.Endpoint)
	}
}
