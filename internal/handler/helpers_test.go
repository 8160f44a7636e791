package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmbui/kmbui-backend/internal/model"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusConflict, "already exists")

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var resp model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != http.StatusConflict || resp.Error.Message != "already exists" {
		t.Errorf("error = %+v", resp.Error)
	}
	if resp.Error.Fields != nil {
		t.Errorf("fields should be omitted, got %v", resp.Error.Fields)
	}
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeValidationError(rec, map[string]string{"password": "Required property"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	var resp model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Fields["password"] != "Required property" {
		t.Errorf("fields = %v", resp.Error.Fields)
	}
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()
	writeText(rec, http.StatusNotFound, "Key request not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.String() != "Key request not found" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
