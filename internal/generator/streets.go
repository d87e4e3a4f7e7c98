package generator

import "strings"

// fallbackStreets is used when the lookup service is unreachable or knows no
// streets for one of these cities.
var fallbackStreets = map[string][]string{
	"Barcelona": {
		"Carrer de Balmes",
		"Passeig de Gràcia",
		"Carrer d'Aragó",
		"Gran Via de les Corts Catalanes",
		"Carrer de Muntaner",
		"Carrer de Pau Claris",
		"Carrer de Roger de Llúria",
		"Carrer de Girona",
		"Carrer de Bruc",
		"Carrer d'Ausiàs March",
		"Carrer de València",
		"Carrer de Mallorca",
		"Carrer de Provença",
		"Carrer del Rosselló",
		"Carrer de Còrsega",
		"Carrer de la Diputació",
		"Carrer del Consell de Cent",
		"Rambla de Catalunya",
		"Carrer de Casanova",
		"Carrer d'Enric Granados",
	},
	"Madrid": {
		"Calle de Alcalá",
		"Gran Vía",
		"Calle de Serrano",
		"Paseo de la Castellana",
		"Calle de Goya",
		"Calle de Velázquez",
		"Calle de José Ortega y Gasset",
		"Calle de María de Molina",
		"Calle de Diego de León",
		"Calle de Príncipe de Vergara",
		"Calle de Francisco Silvela",
		"Calle de Juan Bravo",
		"Calle de Núñez de Balboa",
		"Calle de Hermosilla",
		"Calle de Claudio Coello",
		"Calle de Lagasca",
		"Calle de Jorge Juan",
		"Calle de Ayala",
		"Calle de Maldonado",
		"Calle de Padilla",
	},
	"Valencia": {
		"Carrer de Xàtiva",
		"Carrer de Colón",
		"Gran Via del Marqués del Túria",
		"Carrer de la Paz",
		"Carrer de Russafa",
		"Carrer de Sueca",
		"Carrer de Cadis",
		"Carrer de Cuba",
		"Carrer de Puerto Rico",
		"Carrer de Jesús",
		"Carrer de Dénia",
		"Carrer de Alicante",
		"Carrer de Castelló",
		"Carrer de Sagunt",
		"Carrer de Pizarro",
		"Carrer de Hernán Cortés",
		"Carrer de Ciscar",
		"Carrer de Sorní",
		"Carrer de Jacinto Benavente",
		"Carrer de Poeta Querol",
	},
	"Sitges": {
		"Carrer de Parellades",
		"Carrer Major",
		"Carrer de Sant Pere",
		"Carrer de la Ribera",
		"Carrer de Santiago Rusiñol",
		"Carrer de Jesús",
		"Carrer de Sant Francesc",
		"Carrer de Bonaire",
		"Carrer de Sant Bartomeu",
		"Carrer de la Carreta",
		"Carrer de Davallada",
		"Carrer de Fonollar",
		"Carrer de Sant Gaudenci",
		"Carrer de Tacó",
		"Carrer de Cap de la Vila",
		"Carrer de la Bassa Rodona",
		"Carrer de Vallpineda",
		"Carrer de Campdaspre",
		"Carrer de Sant Sebastià",
		"Carrer de Montroig",
	},
}

// FallbackStreets returns the built-in street list for city, matched
// case-insensitively, or nil. The returned slice is a copy.
func FallbackStreets(city string) []string {
	city = strings.TrimSpace(city)
	for name, streets := range fallbackStreets {
		if strings.EqualFold(name, city) {
			return append([]string(nil), streets...)
		}
	}
	return nil
}

// maxHouseRules maps lexical cues in a street name to the highest house
// number generated for it. First match wins.
var maxHouseRules = []struct {
	cues []string
	max  int
}{
	{cues: []string{"avenida", "gran vía", "paseo"}, max: 200},
	{cues: []string{"plaza", "placeta", "callejón"}, max: 30},
	{cues: []string{"calle", "carrer"}, max: 120},
}

const defaultMaxHouse = 80

// MaxHouseNumber guesses how far the numbering of a street goes.
func MaxHouseNumber(street string) int {
	name := strings.ToLower(street)
	for _, r := range maxHouseRules {
		for _, cue := range r.cues {
			if strings.Contains(name, cue) {
				return r.max
			}
		}
	}
	return defaultMaxHouse
}
