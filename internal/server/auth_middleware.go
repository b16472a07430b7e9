package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/brk3/fifty/internal/logger"
)

type userCtxKey struct{}

// identity is the authenticated caller. With auth disabled the UID comes from
// the X-User-ID header so multi-user local setups still work.
type identity struct {
	UID   string
	Email string
}

const anonymousUID = "default"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		ah := r.Header.Get("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			recordAuthEvent("verification", "missing_token")
			w.Header().Set("WWW-Authenticate", `Bearer realm="fifty"`)
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		token, err := s.verifier.Verify(r.Context(), strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			logger.Debug("Bearer token verification failed", "error", err)
			recordAuthEvent("verification", "failed")
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		var claims struct {
			Email string `json:"email"`
		}
		if err := token.Claims(&claims); err != nil {
			logger.Warn("Failed to extract claims from token", "error", err)
		}
		recordAuthEvent("verification", "success")

		user := identity{UID: token.Subject, Email: claims.Email}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, user)))
	})
}

func (s *Server) identityFromRequest(r *http.Request) identity {
	if !s.cfg.AuthEnabled {
		uid := r.Header.Get("X-User-ID")
		if uid == "" {
			uid = anonymousUID
		}
		return identity{UID: uid, Email: r.Header.Get("X-User-Email")}
	}

	user, ok := r.Context().Value(userCtxKey{}).(identity)
	if !ok {
		logger.Error("No user in request context")
	}
	return user
}
