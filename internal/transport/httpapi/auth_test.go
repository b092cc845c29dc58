package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(keys []string) http.Handler {
	mw := BearerAuthMiddleware(keys)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestBearerAuth_Disabled(t *testing.T) {
	h := authedHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("no keys configured: status = %d, want pass-through", rec.Code)
	}
}

func TestBearerAuth_ValidKey(t *testing.T) {
	h := authedHandler([]string{"secret-key"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("valid key rejected: status = %d", rec.Code)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	h := authedHandler([]string{"secret-key"})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret-key"},
		{"wrong key", "Bearer other-key"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	h := authedHandler([]string{"secret-key"})

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("%s should bypass auth, got %d", path, rec.Code)
		}
	}
}
