package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(deps Dependencies, basePath string) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(":0", logger, nil, deps, basePath)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(Dependencies{}, "")

	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestFlushSheetCacheWithoutClient(t *testing.T) {
	srv := testServer(Dependencies{}, "")

	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/flush-sheet-cache", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestBasePathMount(t *testing.T) {
	srv := testServer(Dependencies{}, "/bot")

	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bot/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 under base path, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside base path, got %d", rec.Code)
	}
}

func TestNormaliseBasePath(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"/":     "",
		"bot":   "/bot",
		"/bot":  "/bot",
		"/bot/": "/bot",
	}
	for input, want := range cases {
		if got := normaliseBasePath(input); got != want {
			t.Fatalf("%q: expected %q, got %q", input, want, got)
		}
	}
}
