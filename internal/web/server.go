package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmrivas/conteo/internal/domain"
	"github.com/jmrivas/conteo/internal/notify"
	"github.com/jmrivas/conteo/internal/service"
)

// usuarioResolver turns a bearer token into the acting usuario. Session
// management lives outside this service; this is only the boundary seam.
type usuarioResolver interface {
	GetByID(ctx context.Context, id string) (*domain.Usuario, error)
}

type Server struct {
	service  *service.ConteoService
	usuarios usuarioResolver
	hub      *notify.Hub
	logger   *slog.Logger
	router   chi.Router
}

func NewServer(svc *service.ConteoService, usuarios usuarioResolver, hub *notify.Hub, logger *slog.Logger) *Server {
	s := &Server{
		service:  svc,
		usuarios: usuarios,
		hub:      hub,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	r.Use(requestLogger(logger))
	r.Use(s.withUsuario)

	r.Route("/conteo", func(r chi.Router) {
		r.Post("/", s.handleCreateConteo)
		r.Get("/", s.handleListConteos)
		r.Get("/estadisticas", s.handleEstadisticas)
		r.Get("/areas", s.handleAreas)
		r.Get("/iglesias", s.handleIglesias)
		r.Put("/{id}", s.handleUpdateConteo)
		r.Delete("/{id}", s.handleDeleteConteo)
	})

	r.Get("/health", s.handleHealth)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The WebSocket upgrade hijacks the connection and needs the raw
	// ResponseWriter, so the change channel bypasses the middleware chain.
	if r.URL.Path == "/ws" {
		s.hub.ServeHTTP(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

// respuesta is the JSON envelope every endpoint answers with.
type respuesta struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Grouped *bool  `json:"grouped,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, message string) {
	s.json(w, code, respuesta{Success: false, Message: message})
}

// serviceError maps domain errors onto HTTP statuses: validation to 400, a
// missing record to 404, everything else to 500 with a server-side log.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.fail(w, http.StatusNotFound, "conteo no encontrado")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.fail(w, http.StatusInternalServerError, "error interno del servidor")
	}
}
