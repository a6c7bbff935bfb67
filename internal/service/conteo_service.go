package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmrivas/conteo/internal/domain"
	"github.com/jmrivas/conteo/internal/notify"
	"github.com/jmrivas/conteo/internal/store"
)

// conteoRepository is the subset of store.ConteoStore that ConteoService
// requires.
type conteoRepository interface {
	Insert(ctx context.Context, c *domain.Conteo) (*domain.Conteo, error)
	UpsertMateriales(ctx context.Context, c *domain.Conteo) (*domain.Conteo, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Conteo, error)
	List(ctx context.Context, f store.Filter) ([]*domain.Conteo, error)
	Update(ctx context.Context, id string, c *domain.Conteo) (*domain.Conteo, error)
	Delete(ctx context.Context, id string) error
}

type ConteoService struct {
	conteos  conteoRepository
	notifier notify.Publisher
	logger   *slog.Logger
}

func NewConteoService(conteos conteoRepository, notifier notify.Publisher, logger *slog.Logger) *ConteoService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ConteoService{
		conteos:  conteos,
		notifier: notifier,
		logger:   logger,
	}
}

// Draft carries the caller-supplied fields of a submission. The acting
// usuario is passed separately; it never comes from the draft.
type Draft struct {
	Fecha         string
	Iglesia       string
	Tipo          domain.Tipo
	Area          string
	SubArea       string
	Cantidad      int
	Observaciones string
}

// Submit validates and persists a new count. For materiales the store
// performs an atomic increment-or-insert keyed on
// (fecha, iglesia, area, subArea); for personas every submission is a new
// record. The second return value reports whether an existing record was
// merged into. On success one change event is broadcast; broadcast problems
// never fail the request.
func (s *ConteoService) Submit(ctx context.Context, d Draft, usuario *domain.Usuario) (*domain.Conteo, bool, error) {
	rec, err := s.buildRecord(d, usuario)
	if err != nil {
		return nil, false, err
	}

	var (
		stored *domain.Conteo
		merged bool
	)
	if rec.Tipo == domain.TipoMateriales {
		stored, merged, err = s.conteos.UpsertMateriales(ctx, rec)
	} else {
		stored, err = s.conteos.Insert(ctx, rec)
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("conteo registrado",
		"id", stored.ID, "tipo", stored.Tipo, "iglesia", stored.Iglesia,
		"area", stored.Area, "cantidad", stored.Cantidad, "merged", merged)

	s.publish(notify.ActionCreate, stored.Tipo, stored)
	return stored, merged, nil
}

// Update replaces the full record with the given id. Unlike Submit this is
// never a merge, even for materiales.
func (s *ConteoService) Update(ctx context.Context, id string, d Draft, usuario *domain.Usuario) (*domain.Conteo, error) {
	rec, err := s.buildRecord(d, usuario)
	if err != nil {
		return nil, err
	}

	stored, err := s.conteos.Update(ctx, id, rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("conteo actualizado", "id", stored.ID, "tipo", stored.Tipo)

	s.publish(notify.ActionUpdate, stored.Tipo, stored)
	return stored, nil
}

// Remove deletes the record with the given id and broadcasts the deletion.
func (s *ConteoService) Remove(ctx context.Context, id string) error {
	rec, err := s.conteos.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.conteos.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("conteo eliminado", "id", id, "tipo", rec.Tipo)

	s.publish(notify.ActionDelete, rec.Tipo, map[string]string{"id": id})
	return nil
}

// ListFilter narrows List and ListGrouped.
type ListFilter struct {
	Fecha   string
	Iglesia string
	Tipo    domain.Tipo
	Area    string
}

// List returns matching records ordered newest fecha first, with
// registradoPor resolved for display.
func (s *ConteoService) List(ctx context.Context, f ListFilter) ([]*domain.Conteo, error) {
	return s.conteos.List(ctx, store.Filter{
		Fecha:   f.Fecha,
		Iglesia: f.Iglesia,
		Tipo:    f.Tipo,
		Area:    f.Area,
	})
}

// ListGrouped returns one summary per distinct (fecha, iglesia, tipo, area)
// key among the matching records. SubArea is not part of the key: every raw
// record lands in exactly one group and each group's total is the sum over
// its registros.
func (s *ConteoService) ListGrouped(ctx context.Context, f ListFilter) ([]*domain.ConteoGrupo, error) {
	conteos, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	type clave struct {
		fecha   string
		iglesia string
		tipo    domain.Tipo
		area    string
	}

	grupos := make([]*domain.ConteoGrupo, 0)
	index := make(map[clave]int)
	for _, c := range conteos {
		k := clave{c.Fecha, c.Iglesia, c.Tipo, c.Area}
		i, ok := index[k]
		if !ok {
			i = len(grupos)
			index[k] = i
			grupos = append(grupos, &domain.ConteoGrupo{
				Fecha:   c.Fecha,
				Iglesia: c.Iglesia,
				Tipo:    c.Tipo,
				Area:    c.Area,
			})
		}
		grupos[i].TotalCantidad += c.Cantidad
		grupos[i].Registros = append(grupos[i].Registros, c)
	}

	return grupos, nil
}

// Statistics summarizes the records between fechaInicio and fechaFin
// inclusive, optionally narrowed by tipo. An empty range yields all zeros,
// not a division fault.
func (s *ConteoService) Statistics(ctx context.Context, fechaInicio, fechaFin string, tipo domain.Tipo) (*domain.Estadisticas, error) {
	desde, err := normalizeFecha(fechaInicio)
	if err != nil {
		return nil, fmt.Errorf("%w: fechaInicio must be a valid date", domain.ErrValidation)
	}
	hasta, err := normalizeFecha(fechaFin)
	if err != nil {
		return nil, fmt.Errorf("%w: fechaFin must be a valid date", domain.ErrValidation)
	}
	if tipo != "" && !domain.ValidTipo(tipo) {
		return nil, fmt.Errorf("%w: tipo must be personas or materiales", domain.ErrValidation)
	}

	conteos, err := s.conteos.List(ctx, store.Filter{
		FechaDesde: desde,
		FechaHasta: hasta,
		Tipo:       tipo,
	})
	if err != nil {
		return nil, err
	}

	est := &domain.Estadisticas{PorArea: []*domain.AreaResumen{}}
	porArea := make(map[string]*domain.AreaResumen)
	for _, c := range conteos {
		est.TotalRegistros++
		est.TotalCantidad += c.Cantidad

		r, ok := porArea[c.Area]
		if !ok {
			r = &domain.AreaResumen{Area: c.Area}
			porArea[c.Area] = r
			est.PorArea = append(est.PorArea, r)
		}
		r.Registros++
		r.Cantidad += c.Cantidad
	}
	if est.TotalRegistros > 0 {
		est.PromedioCantidad = float64(est.TotalCantidad) / float64(est.TotalRegistros)
	}

	return est, nil
}

func (s *ConteoService) buildRecord(d Draft, usuario *domain.Usuario) (*domain.Conteo, error) {
	if err := validate(&d); err != nil {
		return nil, err
	}
	return &domain.Conteo{
		ID:            uuid.NewString(),
		Fecha:         d.Fecha,
		Iglesia:       d.Iglesia,
		Tipo:          d.Tipo,
		Area:          d.Area,
		SubArea:       d.SubArea,
		Cantidad:      d.Cantidad,
		Observaciones: d.Observaciones,
		RegistradoPor: usuario,
	}, nil
}

// validate rejects a draft before any storage mutation. It also normalizes
// fecha down to its calendar day.
func validate(d *Draft) error {
	if strings.TrimSpace(d.Fecha) == "" {
		return fmt.Errorf("%w: fecha is required", domain.ErrValidation)
	}
	fecha, err := normalizeFecha(d.Fecha)
	if err != nil {
		return fmt.Errorf("%w: fecha must be a valid date", domain.ErrValidation)
	}
	d.Fecha = fecha

	if d.Iglesia == "" {
		return fmt.Errorf("%w: iglesia is required", domain.ErrValidation)
	}
	if !domain.ValidIglesia(d.Iglesia) {
		return fmt.Errorf("%w: unknown iglesia %q", domain.ErrValidation, d.Iglesia)
	}
	if !domain.ValidTipo(d.Tipo) {
		return fmt.Errorf("%w: tipo must be personas or materiales", domain.ErrValidation)
	}
	if d.Area == "" {
		return fmt.Errorf("%w: area is required", domain.ErrValidation)
	}
	if !domain.ValidArea(d.Tipo, d.Area) {
		return fmt.Errorf("%w: unknown area %q for tipo %s", domain.ErrValidation, d.Area, d.Tipo)
	}
	if d.Cantidad < 0 {
		return fmt.Errorf("%w: cantidad must not be negative", domain.ErrValidation)
	}
	if d.Tipo == domain.TipoMateriales && strings.TrimSpace(d.SubArea) == "" {
		return fmt.Errorf("%w: subArea is required for materiales", domain.ErrValidation)
	}
	if d.Tipo == domain.TipoPersonas {
		d.SubArea = ""
	}
	return nil
}

// normalizeFecha reduces a date string to YYYY-MM-DD, accepting either a
// bare date or an RFC 3339 timestamp.
func normalizeFecha(fecha string) (string, error) {
	fecha = strings.TrimSpace(fecha)
	if t, err := time.Parse("2006-01-02", fecha); err == nil {
		return t.Format("2006-01-02"), nil
	}
	t, err := time.Parse(time.RFC3339, fecha)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// publish is best-effort: the notifier never blocks and never propagates
// failure into the request path.
func (s *ConteoService) publish(action notify.Action, tipo domain.Tipo, data any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("change notification failed", "action", action, "panic", r)
		}
	}()
	s.notifier.Publish(notify.Event{
		Event:  notify.EventName,
		Action: action,
		Tipo:   tipo,
		Data:   data,
	})
}
