// Package normalize turns free-form city and street names into stable keys
// used to match generated addresses against stored annotations.
//
// All functions are total: nil-ish input yields "" and the output of any
// function is a fixed point of that same function.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer applies a set of prefix rules before folding case, whitespace
// and diacritics.
type Normalizer struct {
	streetRules []Rule
	cityRules   []Rule
}

// New returns a Normalizer with the default tables plus any extra street rules.
// Extra rules are tried before the defaults.
func New(extraStreetRules ...Rule) *Normalizer {
	street := make([]Rule, 0, len(extraStreetRules)+len(DefaultStreetRules))
	street = append(street, extraStreetRules...)
	street = append(street, DefaultStreetRules...)
	return &Normalizer{streetRules: street, cityRules: DefaultCityRules}
}

var std = New()

// City normalizes a city name with the default rules.
func City(s string) string { return std.City(s) }

// Street normalizes a street name with the default rules.
func Street(s string) string { return std.Street(s) }

// AddressKey builds the matching key with the default rules.
func AddressKey(houseNumber, street, city string) string {
	return std.AddressKey(houseNumber, street, city)
}

// CitiesMatch reports whether two city names normalize identically.
func CitiesMatch(a, b string) bool { return std.City(a) == std.City(b) }

// StreetsMatch reports whether two street names normalize identically.
func StreetsMatch(a, b string) bool { return std.Street(a) == std.Street(b) }

func (n *Normalizer) City(s string) string {
	return canonical(s, n.cityRules)
}

// Street expands a leading abbreviation ("C.", "Av.") before folding, so
// "C. Mayor" and "Carrer Mayor" share a key.
func (n *Normalizer) Street(s string) string {
	return canonical(s, n.streetRules)
}

// AddressKey composes "<house>-<street>-<city>". The house number is only
// trimmed; generated numbers are already canonical.
func (n *Normalizer) AddressKey(houseNumber, street, city string) string {
	return strings.TrimSpace(houseNumber) + "-" + n.Street(street) + "-" + n.City(city)
}

// canonical folds once so that rules see clean input (a stray combining mark
// in front of "c." must not hide the prefix), rewrites the prefix, then folds
// again to collapse whatever the rewrite introduced.
func canonical(s string, rules []Rule) string {
	return fold(applyRules(fold(strings.ToLower(s)), rules))
}

func applyRules(s string, rules []Rule) string {
	for _, r := range rules {
		if loc := r.Pattern.FindStringIndex(s); loc != nil {
			return r.Canonical + s[loc[1]:]
		}
	}
	return s
}

// fold collapses whitespace and strips combining marks. Stripping can expose
// new leading/trailing spaces, so collapsing runs last.
func fold(s string) string {
	return strings.Join(strings.Fields(stripMarks(s)), " ")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
