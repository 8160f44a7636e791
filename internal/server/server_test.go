package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kmbui/kmbui-backend/internal/keygen"
	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/service"
	"github.com/kmbui/kmbui-backend/internal/store"
)

const (
	testAdminUser = "root-admin"
	testAdminPass = "correct horse battery staple"
)

type testEnv struct {
	srv   *Server
	store *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(store.Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hash, err := keygen.HashPassword(testAdminPass)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	if err := st.CreateAdmin(t.Context(), &model.AdminUser{
		Username:       testAdminUser,
		HashedPassword: hash,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(DefaultConfig(), st,
		service.NewAuthService(st),
		service.NewKeyRequestService(st, logger),
		logger)

	return &testEnv{srv: srv, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, method, path, body, "", "")
}

func (e *testEnv) doAdmin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, method, path, body, testAdminUser, testAdminPass)
}

func (e *testEnv) doAs(t *testing.T, method, path string, body any, user, pass string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set("Authorization", "Basic "+cred)
	}

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// submit creates a key request and returns its receipt.
func (e *testEnv) submit(t *testing.T, name, desc, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/key-requests", map[string]string{
		"requesterName":      name,
		"requestDescription": desc,
		"password":           password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request: got %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[model.ReceiptResponse](t, rec)
	if resp.Receipt == "" {
		t.Fatal("create request returned empty receipt")
	}
	return resp.Receipt
}

// pendingID looks up the pending request carrying the given receipt.
func (e *testEnv) pendingID(t *testing.T, receipt string) int64 {
	t.Helper()
	rec := e.doAdmin(t, http.MethodGet, "/key-requests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list pending: got %d, want 200", rec.Code)
	}
	for _, p := range decodeJSON[[]model.PendingRequest](t, rec) {
		if p.Receipt == receipt {
			return p.ID
		}
	}
	t.Fatalf("receipt %s not found in pending list", receipt)
	return 0
}

func TestRootMetadata(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	meta := decodeJSON[model.APIMetadata](t, rec)
	if meta.Name != APIName || meta.APIVersion != APIVersion {
		t.Errorf("got %+v, want name %q version %q", meta, APIName, APIVersion)
	}
}

func TestHealthProbes(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz: got %d, want 200", rec.Code)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/openapi.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi.json is not valid JSON: %v", err)
	}
	if _, ok := doc["paths"]; !ok {
		t.Error("openapi.json has no paths object")
	}
}

func TestCreateKeyRequestValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/key-requests", map[string]string{
		"requesterName": "partial",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422", rec.Code)
	}
	resp := decodeJSON[model.ErrorResponse](t, rec)
	for _, field := range []string{"requestDescription", "password"} {
		if _, ok := resp.Error.Fields[field]; !ok {
			t.Errorf("missing validation entry for %q in %+v", field, resp.Error.Fields)
		}
	}
	if _, ok := resp.Error.Fields["requesterName"]; ok {
		t.Error("requesterName was provided but still flagged")
	}
}

func TestApproveAndClaimFlow(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "alice", "ci pipeline access", "hunter2hunter2")
	id := env.pendingID(t, receipt)

	// Claim before any decision: succeeds but reports no key.
	rec := env.do(t, http.MethodPost, "/key-claims", map[string]string{
		"receipt": receipt, "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pre-decision claim: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No key has been issued") {
		t.Fatalf("pre-decision claim body: %q", rec.Body.String())
	}

	rec = env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
		"approved": true, "username": "alice-ci",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: got %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	// Approved requests leave the pending queue.
	rec = env.doAdmin(t, http.MethodGet, "/key-requests", nil)
	for _, p := range decodeJSON[[]model.PendingRequest](t, rec) {
		if p.ID == id {
			t.Error("approved request still listed as pending")
		}
	}

	// Claim now returns the key, and claiming again returns the same key.
	var first string
	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/key-claims", map[string]string{
			"receipt": receipt, "password": "hunter2hunter2",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("claim %d: got %d, want 200 (body %q)", i, rec.Code, rec.Body.String())
		}
		resp := decodeJSON[model.ClaimResponse](t, rec)
		if len(resp.Key) != keygen.KeyLength {
			t.Fatalf("claim %d: key length %d, want %d", i, len(resp.Key), keygen.KeyLength)
		}
		if i == 0 {
			first = resp.Key
		} else if resp.Key != first {
			t.Error("repeated claim returned a different key")
		}
	}
}

func TestDenyFlow(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "bob", "just curious", "swordfish-123")
	id := env.pendingID(t, receipt)

	rec := env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
		"approved": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("deny: got %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "denied") {
		t.Errorf("deny body: %q", rec.Body.String())
	}

	// Denied requests still answer claims, with the no-key notice.
	rec = env.do(t, http.MethodPost, "/key-claims", map[string]string{
		"receipt": receipt, "password": "swordfish-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("post-deny claim: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No key has been issued") {
		t.Errorf("post-deny claim body: %q", rec.Body.String())
	}
}

func TestDecideTwiceReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "carol", "dashboard feed", "pass-word-123")
	id := env.pendingID(t, receipt)

	rec := env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
		"approved": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first decide: got %d", rec.Code)
	}

	// The request is no longer pending, so a second decision misses.
	rec = env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
		"approved": true, "username": "carol-app",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second decide: got %d, want 404", rec.Code)
	}
}

func TestClaimWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "dave", "batch uploads", "original-pass")
	id := env.pendingID(t, receipt)

	// Wrong password rejects identically before and after approval.
	for _, phase := range []string{"pending", "approved"} {
		rec := env.do(t, http.MethodPost, "/key-claims", map[string]string{
			"receipt": receipt, "password": "not-the-password",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s claim with wrong password: got %d, want 401", phase, rec.Code)
		}

		if phase == "pending" {
			rec = env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
				"approved": true, "username": "dave-batch",
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("approve: got %d", rec.Code)
			}
		}
	}
}

func TestClaimUnknownReceipt(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/key-claims", map[string]string{
		"receipt": "00000000-0000-4000-8000-000000000000", "password": "whatever",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestAdminEndpointsRejectBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not basic", "Bearer abc123"},
		{"bad base64", "Basic %%%not-base64%%%"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon"))},
		{"unknown user", "Basic " + base64.StdEncoding.EncodeToString([]byte("ghost:pw"))},
		{"wrong password", "Basic " + base64.StdEncoding.EncodeToString([]byte(testAdminUser + ":wrong"))},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/key-requests", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			env.srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want 401", rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Malformed and wrong credentials must be indistinguishable.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("rejection bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestCreateIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	// Garbage credentials on the public endpoints are simply ignored.
	rec := env.doAs(t, http.MethodPost, "/key-requests", map[string]string{
		"requesterName":      "eve",
		"requestDescription": "public endpoint",
		"password":           "some-password",
	}, "nobody", "nothing")
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201", rec.Code)
	}
}

func TestConcurrentApproveIssuesOneKey(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "frank", "load test rig", "concurrent-pw")
	id := env.pendingID(t, receipt)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
				"approved": true, "username": fmt.Sprintf("frank-%d", i),
			})
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	var ok int
	for _, c := range codes {
		if c == http.StatusOK {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("%d approvals succeeded, want exactly 1 (codes %v)", ok, codes)
	}

	n, err := env.store.CountAPIKeysForRequest(t.Context(), id)
	if err != nil {
		t.Fatalf("count keys: %v", err)
	}
	if n != 1 {
		t.Errorf("%d keys issued for one request, want 1", n)
	}
}

func TestContentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/make-article", map[string]string{
		"title":    "August Issue Notes",
		"subtitle": "Behind the scenes",
		"theme":    "production",
		"writer":   "editorial",
		"content":  "Long form text.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create article: got %d (body %q)", rec.Code, rec.Body.String())
	}
	article := decodeJSON[model.Article](t, rec)
	if article.ID == 0 {
		t.Fatal("created article has no ID")
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/article/%d", article.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get article: got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/article", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list articles: got %d", rec.Code)
	}
	if got := decodeJSON[[]model.Article](t, rec); len(got) != 1 {
		t.Errorf("listed %d articles, want 1", len(got))
	}

	rec = env.do(t, http.MethodGet, "/article/99999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing article: got %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/make-magazine", map[string]string{
		"title":        "Vol. 12",
		"description":  "Quarterly print run",
		"thumbnailUrl": "https://cdn.example.com/v12-thumb.png",
		"contentUrl":   "https://cdn.example.com/v12.pdf",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create magazine: got %d (body %q)", rec.Code, rec.Body.String())
	}
}

func TestAdminActionsAreAudited(t *testing.T) {
	env := newTestEnv(t)

	receipt := env.submit(t, "grace", "metrics poller", "audit-pw-123")
	id := env.pendingID(t, receipt)
	env.doAdmin(t, http.MethodPatch, fmt.Sprintf("/key-requests/%d", id), map[string]any{
		"approved": true, "username": "grace-metrics",
	})

	logs, err := env.store.ListUsageLogs(t.Context(), 50)
	if err != nil {
		t.Fatalf("list usage logs: %v", err)
	}
	var sawDecide bool
	for _, l := range logs {
		if l.AdminUsername != nil && *l.AdminUsername == testAdminUser &&
			strings.HasPrefix(l.Endpoint, "PATCH ") {
			sawDecide = true
		}
	}
	if !sawDecide {
		t.Errorf("no audit entry for the admin decision in %+v", logs)
	}
}
