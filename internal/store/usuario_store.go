package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmrivas/conteo/internal/domain"
)

type UsuarioStore struct {
	db *sql.DB
}

func NewUsuarioStore(db *sql.DB) *UsuarioStore {
	return &UsuarioStore{db: db}
}

func (s *UsuarioStore) Create(ctx context.Context, nombre, email string) (*domain.Usuario, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usuarios (id, nombre, email, created_at) VALUES (?, ?, ?, ?)
	`, id, nombre, email, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create usuario: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *UsuarioStore) GetByID(ctx context.Context, id string) (*domain.Usuario, error) {
	u := &domain.Usuario{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, email, created_at FROM usuarios WHERE id = ?
	`, id).Scan(&u.ID, &u.Nombre, &u.Email, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usuario: %w", err)
	}

	return u, nil
}

func (s *UsuarioStore) GetByEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	u := &domain.Usuario{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, email, created_at FROM usuarios WHERE email = ?
	`, email).Scan(&u.ID, &u.Nombre, &u.Email, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usuario: %w", err)
	}

	return u, nil
}
