package domain

// Static vocabularies for the iglesia and area fields. These are fixed at
// compile time, not derived from stored data; the client populates its
// selects from them and ingestion rejects anything outside them.

var iglesias = []string{
	"Central",
	"Norte",
	"Sur",
	"Oriente",
	"Bethel",
}

var areasPersonas = []string{
	"adultos",
	"jovenes",
	"adolescentes",
	"ninos",
	"visitas",
}

var areasMateriales = []string{
	"cafeteria",
	"cocina",
	"libreria",
	"escuela dominical",
	"mantenimiento",
}

// Iglesias returns the closed set of valid iglesia values.
func Iglesias() []string {
	out := make([]string, len(iglesias))
	copy(out, iglesias)
	return out
}

// Areas returns the valid area values for a tipo. An empty tipo returns the
// union of both lists.
func Areas(tipo Tipo) []string {
	switch tipo {
	case TipoPersonas:
		out := make([]string, len(areasPersonas))
		copy(out, areasPersonas)
		return out
	case TipoMateriales:
		out := make([]string, len(areasMateriales))
		copy(out, areasMateriales)
		return out
	default:
		out := make([]string, 0, len(areasPersonas)+len(areasMateriales))
		out = append(out, areasPersonas...)
		out = append(out, areasMateriales...)
		return out
	}
}

// ValidIglesia reports whether iglesia is in the closed set.
func ValidIglesia(iglesia string) bool {
	for _, i := range iglesias {
		if i == iglesia {
			return true
		}
	}
	return false
}

// ValidArea reports whether area is valid for the given tipo.
func ValidArea(tipo Tipo, area string) bool {
	for _, a := range Areas(tipo) {
		if a == area {
			return true
		}
	}
	return false
}

// ValidTipo reports whether tipo is one of the known count categories.
func ValidTipo(tipo Tipo) bool {
	return tipo == TipoPersonas || tipo == TipoMateriales
}
