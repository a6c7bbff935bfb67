package domain

import "time"

// Tipo distinguishes the two count categories. The merge behavior on
// ingestion depends on it: materiales submissions for the same day, church,
// area and sub-area are folded into one record, personas never merge.
type Tipo string

const (
	TipoPersonas   Tipo = "personas"
	TipoMateriales Tipo = "materiales"
)

// Conteo is one count record: a headcount or a material tally for a given
// date, church and area. Fecha is a calendar date in YYYY-MM-DD form; any
// time-of-day is discarded at the ingestion boundary.
type Conteo struct {
	ID            string   `json:"id"`
	Fecha         string   `json:"fecha"`
	Iglesia       string   `json:"iglesia"`
	Tipo          Tipo     `json:"tipo"`
	Area          string   `json:"area"`
	SubArea       string   `json:"subArea,omitempty"`
	Cantidad      int      `json:"cantidad"`
	Observaciones string   `json:"observaciones,omitempty"`
	RegistradoPor *Usuario `json:"registradoPor,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Usuario is the weak reference a count record keeps to the person who
// entered it. It exists for display and audit only; accounts themselves are
// managed elsewhere.
type Usuario struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
}

// ConteoGrupo is one row of the grouped view: all records sharing a
// (fecha, iglesia, tipo, area) key rolled up into a single total. SubArea is
// deliberately not part of the key, so multiple sub-areas contribute to one
// group's total and appear individually in Registros.
type ConteoGrupo struct {
	Fecha         string    `json:"fecha"`
	Iglesia       string    `json:"iglesia"`
	Tipo          Tipo      `json:"tipo"`
	Area          string    `json:"area"`
	TotalCantidad int       `json:"totalCantidad"`
	Registros     []*Conteo `json:"registros"`
}

// AreaResumen is the per-area slice of a statistics response.
type AreaResumen struct {
	Area      string `json:"area"`
	Registros int    `json:"registros"`
	Cantidad  int    `json:"cantidad"`
}

// Estadisticas summarizes the records in a date range. PromedioCantidad is 0
// when no records match.
type Estadisticas struct {
	TotalRegistros   int            `json:"totalRegistros"`
	TotalCantidad    int            `json:"totalCantidad"`
	PromedioCantidad float64        `json:"promedioCantidad"`
	PorArea          []*AreaResumen `json:"porArea"`
}
