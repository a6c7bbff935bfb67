package web

import (
	"net/http"

	"github.com/jmrivas/conteo/internal/domain"
)

func (s *Server) handleIglesias(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, respuesta{Success: true, Data: domain.Iglesias()})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	tipo := domain.Tipo(r.URL.Query().Get("tipo"))
	if tipo != "" && !domain.ValidTipo(tipo) {
		s.fail(w, http.StatusBadRequest, "tipo must be personas or materiales")
		return
	}
	s.json(w, http.StatusOK, respuesta{Success: true, Data: domain.Areas(tipo)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
