package server

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/brk3/fifty/internal/config"
	"github.com/brk3/fifty/internal/queue"
	"github.com/brk3/fifty/internal/tracker"
)

func newAuthedTestServer(t *testing.T) http.Handler {
	t.Helper()
	q, err := queue.Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("failed to open queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	// No verifier is wired: these tests only exercise the paths that reject
	// a request before token verification happens.
	s := &Server{
		cfg:      &config.Config{AuthEnabled: true},
		store:    newMemStore(),
		queue:    q,
		hub:      NewHub(),
		trackers: make(map[string]*tracker.Tracker),
	}
	return s.Router()
}

func TestAuth_MissingToken(t *testing.T) {
	h := newAuthedTestServer(t)

	rr := mockRequest(h, http.MethodGet, "/profile", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != `Bearer realm="fifty"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestAuth_NonBearerScheme(t *testing.T) {
	h := newAuthedTestServer(t)

	req, rr := mockRequestRaw(http.MethodGet, "/profile")
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
}

func TestAuth_OpenEndpointsSkipAuth(t *testing.T) {
	h := newAuthedTestServer(t)

	for _, path := range []string{"/healthz", "/version", "/metrics"} {
		rr := mockRequest(h, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d want 200", path, rr.Code)
		}
	}
}
