// Package generator builds the candidate address universe of a city: every
// plausible house number on every known street, with default annotations.
package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CityLookup resolves a free-form city query and lists the streets around a
// point. Implementations own their timeouts.
type CityLookup interface {
	Resolve(ctx context.Context, query string) (models.Coordinates, error)
	StreetsNear(ctx context.Context, at models.Coordinates) ([]string, error)
}

// Query describes a city search.
type Query struct {
	City     string `validate:"required"`
	Province string
	Country  string
}

// String renders the query the way geocoders expect it: "city, province, country".
func (q Query) String() string {
	parts := []string{strings.TrimSpace(q.City)}
	for _, p := range []string{q.Province, q.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Generator turns a city query into an ordered address universe.
type Generator struct {
	lookup CityLookup
	logger logging.Logger
}

func New(lookup CityLookup, logger logging.Logger) *Generator {
	return &Generator{lookup: lookup, logger: logger.With("module", "generator")}
}

// Search resolves q through the lookup service and generates addresses for the
// streets found. When the service fails or finds no streets, the built-in
// street list for q.City is used. If that is missing too the returned error
// matches common.ErrCityNotFound and wraps the lookup failure, if any.
func (g *Generator) Search(ctx context.Context, q Query) ([]models.Address, error) {
	q.City = strings.TrimSpace(q.City)
	if err := validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: empty city: %w", common.ErrCityNotFound, err)
	}

	streets, err := g.streets(ctx, q)
	if err == nil && len(streets) > 0 {
		out := Generate(q.City, q.Province, streets)
		g.logger.Info(ctx, "addresses generated", "city", q.City, "streets", len(streets), "addresses", len(out))
		return out, nil
	}

	if fallback := FallbackStreets(q.City); len(fallback) > 0 {
		g.logger.Warn(ctx, "using built-in streets", "city", q.City, "cause", errString(err))
		return Generate(q.City, q.Province, fallback), nil
	}

	if err == nil {
		err = errors.New("no streets found")
	}
	return nil, fmt.Errorf("%w: %s: %w", common.ErrCityNotFound, q.City, err)
}

func (g *Generator) streets(ctx context.Context, q Query) ([]string, error) {
	if g.lookup == nil {
		return nil, errors.New("no lookup configured")
	}
	at, err := g.lookup.Resolve(ctx, q.String())
	if err != nil {
		return nil, err
	}
	g.logger.Debug(ctx, "city resolved", "query", q.String(), "lat", at.Lat, "lon", at.Lon)
	return g.lookup.StreetsNear(ctx, at)
}

func errString(err error) string {
	if err == nil {
		return "no streets"
	}
	return err.Error()
}

// Generate enumerates every street's house numbers and returns them sorted by
// street (Spanish collation) then numerically by house number. Blank and
// repeated street names are skipped.
func Generate(city, province string, streets []string) []models.Address {
	out := make([]models.Address, 0)
	seen := make(map[string]struct{}, len(streets))

	for _, street := range streets {
		street = strings.TrimSpace(street)
		if street == "" {
			continue
		}
		if _, dup := seen[street]; dup {
			continue
		}
		seen[street] = struct{}{}

		for _, n := range enumerate(MaxHouseNumber(street)) {
			out = append(out, newAddress(n, street, city, province))
		}
	}

	sortAddresses(out)
	return out
}

// enumerate walks one side of the street then the other: odd numbers up to
// max, then even numbers up to max.
func enumerate(max int) []int {
	nums := make([]int, 0, max)
	for i := 1; i <= max; i += 2 {
		nums = append(nums, i)
	}
	for i := 2; i <= max; i += 2 {
		nums = append(nums, i)
	}
	return nums
}

func newAddress(n int, street, city, province string) models.Address {
	num := strconv.Itoa(n)
	return models.Address{
		HouseNumber: num,
		Street:      street,
		City:        city,
		Province:    province,
		FullAddress: num + " " + street,
		Annotation:  models.DefaultAnnotation(),
	}
}

func sortAddresses(addrs []models.Address) {
	col := collate.New(language.Spanish)
	slices.SortStableFunc(addrs, func(a, b models.Address) int {
		if a.Street != b.Street {
			if c := col.CompareString(a.Street, b.Street); c != 0 {
				return c
			}
			return strings.Compare(a.Street, b.Street)
		}
		return houseNumber(a) - houseNumber(b)
	})
}

func houseNumber(a models.Address) int {
	n, err := strconv.Atoi(a.HouseNumber)
	if err != nil {
		return 0
	}
	return n
}
