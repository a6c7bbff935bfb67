package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmrivas/conteo/internal/domain"
	"github.com/jmrivas/conteo/internal/service"
)

type conteoRequest struct {
	Fecha         string      `json:"fecha"`
	Iglesia       string      `json:"iglesia"`
	Tipo          domain.Tipo `json:"tipo"`
	Area          string      `json:"area"`
	SubArea       string      `json:"subArea"`
	Cantidad      int         `json:"cantidad"`
	Observaciones string      `json:"observaciones"`
}

func (r conteoRequest) draft() service.Draft {
	return service.Draft{
		Fecha:         r.Fecha,
		Iglesia:       r.Iglesia,
		Tipo:          r.Tipo,
		Area:          r.Area,
		SubArea:       r.SubArea,
		Cantidad:      r.Cantidad,
		Observaciones: r.Observaciones,
	}
}

func (s *Server) handleCreateConteo(w http.ResponseWriter, r *http.Request) {
	var req conteoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}

	conteo, merged, err := s.service.Submit(r.Context(), req.draft(), currentUsuario(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	message := "conteo registrado"
	if merged {
		message = "cantidad actualizada en conteo existente"
	}
	s.json(w, http.StatusCreated, respuesta{Success: true, Data: conteo, Message: message})
}

func (s *Server) handleListConteos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.ListFilter{
		Fecha:   q.Get("fecha"),
		Iglesia: q.Get("iglesia"),
		Tipo:    domain.Tipo(q.Get("tipo")),
		Area:    q.Get("area"),
	}
	grouped := q.Get("groupByArea") == "true"

	var (
		data any
		err  error
	)
	if grouped {
		data, err = s.service.ListGrouped(r.Context(), filter)
	} else {
		data, err = s.service.List(r.Context(), filter)
	}
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, respuesta{Success: true, Data: data, Grouped: &grouped})
}

func (s *Server) handleUpdateConteo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req conteoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}

	conteo, err := s.service.Update(r.Context(), id, req.draft(), currentUsuario(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, respuesta{Success: true, Data: conteo, Message: "conteo actualizado"})
}

func (s *Server) handleDeleteConteo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.Remove(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, respuesta{Success: true, Message: "conteo eliminado"})
}

func (s *Server) handleEstadisticas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	est, err := s.service.Statistics(r.Context(), q.Get("fechaInicio"), q.Get("fechaFin"), domain.Tipo(q.Get("tipo")))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, respuesta{Success: true, Data: est})
}
