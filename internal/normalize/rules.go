package normalize

import "regexp"

// Rule rewrites a matching prefix to its canonical long form. Patterns are
// matched against lowercased, trimmed input.
type Rule struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// NewRule compiles pattern into a Rule; it panics on an invalid pattern, so it
// is meant for package-level tables.
func NewRule(pattern, canonical string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Canonical: canonical}
}

// DefaultStreetRules expands the abbreviations found on Spanish and Catalan
// street signs. Order matters: the first matching rule wins.
var DefaultStreetRules = []Rule{
	NewRule(`^c\.\s*`, "carrer "),
	NewRule(`^c/\s*`, "carrer "),
	NewRule(`^cl\.\s*`, "calle "),
	NewRule(`^avda\.\s*`, "avinguda "),
	NewRule(`^av\.\s*`, "avinguda "),
	NewRule(`^pg\.\s*`, "passeig "),
	NewRule(`^pl\.\s*`, "plaça "),
}

// DefaultCityRules canonicalize bilingual city names written with a slash.
var DefaultCityRules = []Rule{
	NewRule(`^barcelona\s*/\s*`, "barcelona / "),
	NewRule(`^madrid\s*/\s*`, "madrid / "),
	NewRule(`^valencia\s*/\s*`, "valencia / "),
}
