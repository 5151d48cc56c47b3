package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler writes 200 "ok".
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKeyMiddleware_ModeNone_PassesThrough(t *testing.T) {
	mw := APIKeyMiddleware("none", "x-api-key", "secret")
	// No key on the request — should still pass because mode != "apikey".
	rr := callWithKey(t, mw, "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKeyMiddleware_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured → allow all.
	mw := APIKeyMiddleware("apikey", "x-api-key", "")
	rr := callWithKey(t, mw, "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKeyMiddleware_CorrectKey_Passes(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "x-api-key", "supersecret")
	rr := callWithKey(t, mw, "x-api-key", "supersecret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestAPIKeyMiddleware_WrongKey_Unauthorized(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "x-api-key", "supersecret")
	rr := callWithKey(t, mw, "x-api-key", "wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestAPIKeyMiddleware_MissingHeader_Unauthorized(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "x-api-key", "supersecret")
	rr := callWithKey(t, mw, "x-api-key", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestAPIKeyMiddleware_CustomHeader(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "x-kw-token", "mytoken")
	rr := callWithKey(t, mw, "x-kw-token", "mytoken")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}
