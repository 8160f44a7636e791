package service

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/kmbui/kmbui-backend/internal/keygen"
	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/store"
)

func newAuthFixture(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hash, err := keygen.HashPassword("sunlit-meadow-42")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := st.CreateAdmin(t.Context(), &model.AdminUser{
		Username:       "keeper",
		HashedPassword: hash,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return NewAuthService(st), st
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t)

	admin, err := svc.Authenticate(t.Context(), basicHeader("keeper", "sunlit-meadow-42"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if admin.Username != "keeper" {
		t.Errorf("username = %q, want keeper", admin.Username)
	}
}

func TestAuthenticateMalformedHeaders(t *testing.T) {
	svc, _ := newAuthFixture(t)

	cases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"wrong scheme", "Bearer abc"},
		{"scheme only", "Basic"},
		{"bad base64", "Basic !!!"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("keeperonly"))},
		{"empty username", "Basic " + base64.StdEncoding.EncodeToString([]byte(":pw"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(t.Context(), tc.header)
			if !errors.Is(err, ErrMalformedCredentials) {
				t.Errorf("got %v, want ErrMalformedCredentials", err)
			}
		})
	}
}

func TestAuthenticateWrongCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, err := svc.Authenticate(t.Context(), basicHeader("keeper", "not-the-password")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(t.Context(), basicHeader("stranger", "whatever")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateCaseInsensitiveScheme(t *testing.T) {
	svc, _ := newAuthFixture(t)

	header := "basic " + base64.StdEncoding.EncodeToString([]byte("keeper:sunlit-meadow-42"))
	if _, err := svc.Authenticate(t.Context(), header); err != nil {
		t.Errorf("lowercase scheme rejected: %v", err)
	}
}
