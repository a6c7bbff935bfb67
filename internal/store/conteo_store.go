package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmrivas/conteo/internal/domain"
)

type ConteoStore struct {
	db *sql.DB
}

func NewConteoStore(db *sql.DB) *ConteoStore {
	return &ConteoStore{db: db}
}

// Filter narrows List results. Fecha matches one calendar day exactly;
// FechaDesde/FechaHasta select an inclusive range. Zero values are ignored.
type Filter struct {
	Fecha      string
	FechaDesde string
	FechaHasta string
	Iglesia    string
	Tipo       domain.Tipo
	Area       string
}

const conteoColumns = `
	c.id, c.fecha, c.iglesia, c.tipo, c.area, c.sub_area, c.cantidad,
	c.observaciones, c.created_at, c.updated_at,
	u.id, u.nombre, u.email`

// Insert stores a new count record. Used for personas submissions and for
// materiales only through UpsertMateriales.
func (s *ConteoStore) Insert(ctx context.Context, c *domain.Conteo) (*domain.Conteo, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conteos (id, fecha, iglesia, tipo, area, sub_area, cantidad, observaciones, registrado_por, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Fecha, c.Iglesia, c.Tipo, c.Area, c.SubArea, c.Cantidad, c.Observaciones, registradoPorID(c.RegistradoPor), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conteo: %w", err)
	}

	return s.GetByID(ctx, c.ID)
}

// UpsertMateriales performs the atomic increment-or-insert for a materiales
// submission. The partial unique index on (fecha, iglesia, area, sub_area)
// drives the conflict: when a record for the merge key already exists its
// cantidad is incremented by the submitted amount and observaciones and
// registrado_por are overwritten with the latest submission. sqlite
// serializes the statement, so concurrent submissions for the same key never
// lose an increment. The second return value reports whether an existing
// record was merged into rather than a new one created.
func (s *ConteoStore) UpsertMateriales(ctx context.Context, c *domain.Conteo) (*domain.Conteo, bool, error) {
	now := time.Now().UTC()
	var storedID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conteos (id, fecha, iglesia, tipo, area, sub_area, cantidad, observaciones, registrado_por, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fecha, iglesia, area, sub_area) WHERE tipo = 'materiales' DO UPDATE SET
			cantidad = cantidad + excluded.cantidad,
			observaciones = excluded.observaciones,
			registrado_por = excluded.registrado_por,
			updated_at = excluded.updated_at
		RETURNING id
	`, c.ID, c.Fecha, c.Iglesia, c.Tipo, c.Area, c.SubArea, c.Cantidad, c.Observaciones, registradoPorID(c.RegistradoPor), now, now).Scan(&storedID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert conteo: %w", err)
	}

	stored, err := s.GetByID(ctx, storedID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID != c.ID, nil
}

// GetByID returns the record with the given id, with registrado_por resolved
// to the usuario's name and email. Returns domain.ErrNotFound when absent.
func (s *ConteoStore) GetByID(ctx context.Context, id string) (*domain.Conteo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conteoColumns+`
		FROM conteos c
		LEFT JOIN usuarios u ON u.id = c.registrado_por
		WHERE c.id = ?
	`, id)

	c, err := scanConteo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conteo: %w", err)
	}
	return c, nil
}

// List returns all records matching the filter, newest fecha first.
func (s *ConteoStore) List(ctx context.Context, f Filter) ([]*domain.Conteo, error) {
	query := `
		SELECT ` + conteoColumns + `
		FROM conteos c
		LEFT JOIN usuarios u ON u.id = c.registrado_por
		WHERE 1=1`
	var args []any

	if f.Fecha != "" {
		query += " AND c.fecha = ?"
		args = append(args, f.Fecha)
	}
	if f.FechaDesde != "" {
		query += " AND c.fecha >= ?"
		args = append(args, f.FechaDesde)
	}
	if f.FechaHasta != "" {
		query += " AND c.fecha <= ?"
		args = append(args, f.FechaHasta)
	}
	if f.Iglesia != "" {
		query += " AND c.iglesia = ?"
		args = append(args, f.Iglesia)
	}
	if f.Tipo != "" {
		query += " AND c.tipo = ?"
		args = append(args, f.Tipo)
	}
	if f.Area != "" {
		query += " AND c.area = ?"
		args = append(args, f.Area)
	}
	query += " ORDER BY c.fecha DESC, c.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conteos: %w", err)
	}
	defer rows.Close()

	var conteos []*domain.Conteo
	for rows.Next() {
		c, err := scanConteo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conteo: %w", err)
		}
		conteos = append(conteos, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conteos: %w", err)
	}

	return conteos, nil
}

// Update replaces every mutable field of the record with the given id.
func (s *ConteoStore) Update(ctx context.Context, id string, c *domain.Conteo) (*domain.Conteo, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE conteos
		SET fecha = ?, iglesia = ?, tipo = ?, area = ?, sub_area = ?, cantidad = ?, observaciones = ?, registrado_por = ?, updated_at = ?
		WHERE id = ?
	`, c.Fecha, c.Iglesia, c.Tipo, c.Area, c.SubArea, c.Cantidad, c.Observaciones, registradoPorID(c.RegistradoPor), time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update conteo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// Delete removes the record with the given id.
func (s *ConteoStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM conteos WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conteo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConteo(row scanner) (*domain.Conteo, error) {
	c := &domain.Conteo{}
	var usuarioID, nombre, email sql.NullString
	err := row.Scan(
		&c.ID, &c.Fecha, &c.Iglesia, &c.Tipo, &c.Area, &c.SubArea, &c.Cantidad,
		&c.Observaciones, &c.CreatedAt, &c.UpdatedAt,
		&usuarioID, &nombre, &email,
	)
	if err != nil {
		return nil, err
	}
	if usuarioID.Valid {
		c.RegistradoPor = &domain.Usuario{
			ID:     usuarioID.String,
			Nombre: nombre.String,
			Email:  email.String,
		}
	}
	return c, nil
}

func registradoPorID(u *domain.Usuario) any {
	if u == nil {
		return nil
	}
	return u.ID
}
