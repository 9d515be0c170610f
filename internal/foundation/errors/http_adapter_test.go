package errors

import (
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: http.StatusBadRequest},
		{name: "auth", err: AuthError("bad signature").Build(), expected: http.StatusUnauthorized},
		{name: "not found", err: NotFoundError("missing").Build(), expected: http.StatusNotFound},
		{name: "network", err: NetworkError("upstream 500").Build(), expected: http.StatusBadGateway},
		{name: "filesystem", err: FileSystemError("read failed").Build(), expected: http.StatusInternalServerError},
		{name: "unclassified", err: stdErrors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.expected {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	req := httptest.NewRequest(http.MethodPost, "/__hooks/github", nil)
	rec := httptest.NewRecorder()

	adapter.WriteErrorResponse(rec, req, AuthError("invalid webhook signature").Build())

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}
	var body HTTPErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid webhook signature" || body.Code != string(CategoryAuth) {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestHTTPErrorAdapter_FormatErrorResponse_HidesRawErrors(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	resp := adapter.FormatErrorResponse(stdErrors.New("dial tcp 10.0.0.1: refused"))
	if resp.Error != "internal error" {
		t.Fatalf("expected generic message, got %q", resp.Error)
	}
}
