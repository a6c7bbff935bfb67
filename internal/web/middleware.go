package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmrivas/conteo/internal/domain"
)

type contextKey string

const usuarioKey contextKey = "usuario"

// withUsuario resolves the Authorization bearer token to a usuario and
// attaches it to the request context. Requests without a resolvable token
// proceed anonymously; registradoPor is a display-only weak reference and
// authentication proper is enforced upstream.
func (s *Server) withUsuario(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" {
			usuario, err := s.usuarios.GetByID(r.Context(), token)
			if err == nil {
				ctx := context.WithValue(r.Context(), usuarioKey, usuario)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// currentUsuario returns the acting usuario resolved by withUsuario, or nil.
func currentUsuario(r *http.Request) *domain.Usuario {
	u, _ := r.Context().Value(usuarioKey).(*domain.Usuario)
	return u
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
