package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kmbui/kmbui-backend/internal/keygen"
	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/store"
)

var (
	// ErrMalformedCredentials means the Authorization header was missing
	// or not a decodable Basic credential pair. Handlers map it to the
	// same 401 as ErrInvalidCredentials so a probing caller cannot tell
	// which part of the credential was wrong.
	ErrMalformedCredentials = errors.New("malformed credentials")

	// ErrInvalidCredentials means the username is unknown or the password
	// does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// storeTimeout bounds every store call made on behalf of one request.
// Timeouts surface as internal errors, never as a hung request.
const storeTimeout = 5 * time.Second

// AuthService verifies administrator identity from a per-request Basic
// credential header. There are no sessions or tokens: every call carries
// the full credential and is checked against the stored Argon2id hash.
type AuthService struct {
	store *store.Store
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(st *store.Store) *AuthService {
	return &AuthService{store: st}
}

// Authenticate validates an `Authorization: Basic <base64(user:pass)>`
// header and returns the admin it identifies. Malformed headers and wrong
// credentials both come back as 401-class errors indistinguishable to the
// caller; a multi-row admin match is passed through as the store's
// inconsistency error and surfaces as a 500, since it is a data bug
// rather than a caller mistake.
func (s *AuthService) Authenticate(ctx context.Context, header string) (*model.AdminUser, error) {
	username, password, err := decodeBasicHeader(header)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	admin, err := s.store.GetAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	ok, err := keygen.VerifyPassword(password, admin.HashedPassword)
	if err != nil {
		// A hash we cannot parse is stored-data corruption, not a bad login.
		return nil, fmt.Errorf("verify admin password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// decodeBasicHeader extracts the (username, password) pair from a Basic
// authorization header.
func decodeBasicHeader(header string) (string, string, error) {
	if header == "" {
		return "", "", ErrMalformedCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", ErrMalformedCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrMalformedCredentials
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found || username == "" {
		return "", "", ErrMalformedCredentials
	}
	return username, password, nil
}
