package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lenedabridge/lenedabridge/pkg/log"
)

// requireAuth validates the Bearer ID token on mutating endpoints (manual
// refresh and reauth are typically invoked by Cloud Scheduler or an
// operator). When no OIDC audience is configured the check is bypassed.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))
		r = r.WithContext(ctx)

		if s.bypassAuth {
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		idToken, err := s.oidcVerifier(ctx, token)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to validate id token", slog.Any("error", err))
			writeJSONError(w, "invalid id token", http.StatusUnauthorized)
			return
		}

		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
			log.Ctx(ctx).WarnContext(ctx, "invalid email in id token", slog.Any("error", err))
			writeJSONError(w, "invalid token claims", http.StatusForbidden)
			return
		}

		var allowed bool
		for _, email := range s.allowedEmails {
			if claims.Email == email {
				allowed = true
				break
			}
		}
		if !allowed {
			log.Ctx(ctx).WarnContext(ctx, "unauthorized email", slog.String("email", claims.Email))
			writeJSONError(w, "unauthorized email", http.StatusForbidden)
			return
		}

		log.Ctx(ctx).DebugContext(ctx, "authorized", slog.String("email", claims.Email))
		next(w, r)
	}
}
