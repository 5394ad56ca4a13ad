package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSWildcardSubdomain(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://*.mbw.vn"},
		AllowedMethods: []string{"GET", "POST"},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/appointment/jane", nil)
	req.Header.Set("Origin", "https://mia.mbw.vn")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "https://mia.mbw.vn" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/appointment/jane", nil)
	req.Header.Set("Origin", "https://mbw.vn.evil.com")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected origin to be rejected, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://crm.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/appointment/jane/selection", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if called {
		t.Fatalf("preflight must not reach the handler")
	}
	if rw.Header().Get("Access-Control-Allow-Methods") != "GET, POST" {
		t.Fatalf("unexpected methods header: %q", rw.Header().Get("Access-Control-Allow-Methods"))
	}
}
