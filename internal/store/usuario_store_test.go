package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmrivas/conteo/internal/domain"
)

func TestUsuarioStoreCreateAndGet(t *testing.T) {
	d := openTestDB(t)
	store := NewUsuarioStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, "Juan Perez", "juan@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Juan Perez", created.Nombre)

	byID, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := store.GetByEmail(ctx, "juan@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUsuarioStoreNotFound(t *testing.T) {
	d := openTestDB(t)
	store := NewUsuarioStore(d)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsuarioStoreDuplicateEmail(t *testing.T) {
	d := openTestDB(t)
	store := NewUsuarioStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	_, err = store.Create(ctx, "Ana Otra", "ana@example.com")
	assert.Error(t, err)
}
