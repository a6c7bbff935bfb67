package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmrivas/conteo/internal/db"
	"github.com/jmrivas/conteo/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func nuevoConteo(tipo domain.Tipo, area, subArea string, cantidad int) *domain.Conteo {
	return &domain.Conteo{
		ID:       uuid.NewString(),
		Fecha:    "2025-01-10",
		Iglesia:  "Central",
		Tipo:     tipo,
		Area:     area,
		SubArea:  subArea,
		Cantidad: cantidad,
	}
}

func TestConteoStoreInsertAndGet(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	rec := nuevoConteo(domain.TipoPersonas, "adultos", "", 120)
	rec.Observaciones = "servicio dominical"

	created, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, created.ID)
	assert.Equal(t, "2025-01-10", created.Fecha)
	assert.Equal(t, 120, created.Cantidad)
	assert.Equal(t, "servicio dominical", created.Observaciones)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.RegistradoPor)
}

func TestConteoStoreGetByIDNotFound(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)

	_, err := store.GetByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConteoStoreResolvesRegistradoPor(t *testing.T) {
	d := openTestDB(t)
	conteos := NewConteoStore(d)
	usuarios := NewUsuarioStore(d)
	ctx := context.Background()

	u, err := usuarios.Create(ctx, "Maria Lopez", "maria@example.com")
	require.NoError(t, err)

	rec := nuevoConteo(domain.TipoPersonas, "jovenes", "", 40)
	rec.RegistradoPor = u

	created, err := conteos.Insert(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, created.RegistradoPor)
	assert.Equal(t, "Maria Lopez", created.RegistradoPor.Nombre)
	assert.Equal(t, "maria@example.com", created.RegistradoPor.Email)
}

func TestConteoStoreUpsertCreatesWhenAbsent(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	rec := nuevoConteo(domain.TipoMateriales, "cafeteria", "vasos", 20)
	stored, merged, err := store.UpsertMateriales(ctx, rec)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, rec.ID, stored.ID)
	assert.Equal(t, 20, stored.Cantidad)
}

func TestConteoStoreUpsertMergesSameKey(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	first := nuevoConteo(domain.TipoMateriales, "cafeteria", "vasos", 20)
	_, _, err := store.UpsertMateriales(ctx, first)
	require.NoError(t, err)

	second := nuevoConteo(domain.TipoMateriales, "cafeteria", "vasos", 5)
	second.Observaciones = "segunda entrega"
	stored, merged, err := store.UpsertMateriales(ctx, second)
	require.NoError(t, err)

	assert.True(t, merged)
	assert.Equal(t, first.ID, stored.ID, "merge keeps the original record")
	assert.Equal(t, 25, stored.Cantidad)
	assert.Equal(t, "segunda entrega", stored.Observaciones, "latest observaciones win")

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConteoStoreUpsertDistinctSubAreasDoNotMerge(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	_, _, err := store.UpsertMateriales(ctx, nuevoConteo(domain.TipoMateriales, "cafeteria", "vasos", 20))
	require.NoError(t, err)
	_, merged, err := store.UpsertMateriales(ctx, nuevoConteo(domain.TipoMateriales, "cafeteria", "platos", 10))
	require.NoError(t, err)

	assert.False(t, merged)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConteoStoreListFilters(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	a := nuevoConteo(domain.TipoPersonas, "adultos", "", 100)
	b := nuevoConteo(domain.TipoPersonas, "jovenes", "", 50)
	c := nuevoConteo(domain.TipoPersonas, "adultos", "", 80)
	c.Fecha = "2025-01-11"
	c.Iglesia = "Norte"

	for _, rec := range []*domain.Conteo{a, b, c} {
		_, err := store.Insert(ctx, rec)
		require.NoError(t, err)
	}

	byFecha, err := store.List(ctx, Filter{Fecha: "2025-01-10"})
	require.NoError(t, err)
	assert.Len(t, byFecha, 2)

	byIglesia, err := store.List(ctx, Filter{Iglesia: "Norte"})
	require.NoError(t, err)
	assert.Len(t, byIglesia, 1)

	byArea, err := store.List(ctx, Filter{Area: "adultos"})
	require.NoError(t, err)
	assert.Len(t, byArea, 2)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-01-11", all[0].Fecha, "newest fecha first")
}

func TestConteoStoreListDateRange(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	for _, fecha := range []string{"2025-01-08", "2025-01-10", "2025-01-12"} {
		rec := nuevoConteo(domain.TipoPersonas, "adultos", "", 10)
		rec.Fecha = fecha
		_, err := store.Insert(ctx, rec)
		require.NoError(t, err)
	}

	ranged, err := store.List(ctx, Filter{FechaDesde: "2025-01-08", FechaHasta: "2025-01-10"})
	require.NoError(t, err)
	assert.Len(t, ranged, 2, "range is inclusive on both ends")
}

func TestConteoStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	created, err := store.Insert(ctx, nuevoConteo(domain.TipoPersonas, "adultos", "", 100))
	require.NoError(t, err)

	replacement := nuevoConteo(domain.TipoPersonas, "jovenes", "", 60)
	updated, err := store.Update(ctx, created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "jovenes", updated.Area)
	assert.Equal(t, 60, updated.Cantidad)
}

func TestConteoStoreUpdateNotFound(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)

	_, err := store.Update(context.Background(), "no-such-id", nuevoConteo(domain.TipoPersonas, "adultos", "", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConteoStoreDelete(t *testing.T) {
	d := openTestDB(t)
	store := NewConteoStore(d)
	ctx := context.Background()

	created, err := store.Insert(ctx, nuevoConteo(domain.TipoPersonas, "adultos", "", 100))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, created.ID), domain.ErrNotFound)
}
