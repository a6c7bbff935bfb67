package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAreasByTipo(t *testing.T) {
	personas := Areas(TipoPersonas)
	materiales := Areas(TipoMateriales)
	union := Areas("")

	assert.Contains(t, personas, "adultos")
	assert.NotContains(t, personas, "cafeteria")
	assert.Contains(t, materiales, "cafeteria")
	assert.Len(t, union, len(personas)+len(materiales))
}

func TestValidArea(t *testing.T) {
	assert.True(t, ValidArea(TipoPersonas, "adultos"))
	assert.False(t, ValidArea(TipoPersonas, "cafeteria"))
	assert.True(t, ValidArea(TipoMateriales, "cafeteria"))
	assert.False(t, ValidArea(TipoMateriales, "nave espacial"))
}

func TestValidIglesia(t *testing.T) {
	assert.True(t, ValidIglesia("Central"))
	assert.False(t, ValidIglesia("Inexistente"))
}

func TestValidTipo(t *testing.T) {
	assert.True(t, ValidTipo(TipoPersonas))
	assert.True(t, ValidTipo(TipoMateriales))
	assert.False(t, ValidTipo("otros"))
}

func TestVocabulariesReturnCopies(t *testing.T) {
	first := Iglesias()
	first[0] = "mutated"
	assert.NotEqual(t, first[0], Iglesias()[0])
}
