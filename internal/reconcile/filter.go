package reconcile

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

// Criteria narrows a collection. Zero values disable the corresponding test.
type Criteria struct {
	// Search is matched case-insensitively against street, city and notes.
	Search string
	// NumberFrom and NumberTo bound the numeric house number, inclusive.
	// Records with a non-numeric house number fail any active range.
	NumberFrom int
	NumberTo   int

	Status        models.Status
	Visited       models.Visited
	InterestLevel models.InterestLevel

	// StoredOnly keeps records already persisted remotely.
	StoredOnly bool
}

// Active reports whether any test is enabled.
func (c Criteria) Active() bool {
	return c != Criteria{}
}

// Match reports whether a passes every enabled test.
func (c Criteria) Match(a models.Address) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		if !strings.Contains(strings.ToLower(a.Street), q) &&
			!strings.Contains(strings.ToLower(a.City), q) &&
			!strings.Contains(strings.ToLower(a.Notes), q) {
			return false
		}
	}

	if c.NumberFrom > 0 || c.NumberTo > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(a.HouseNumber))
		if err != nil {
			return false
		}
		if n < c.NumberFrom {
			return false
		}
		if c.NumberTo > 0 && n > c.NumberTo {
			return false
		}
	}

	if c.Status != "" && a.Status != c.Status {
		return false
	}
	if c.Visited != "" && a.Visited != c.Visited {
		return false
	}
	if c.InterestLevel != "" && a.InterestLevel != c.InterestLevel {
		return false
	}
	if c.StoredOnly && a.RemoteID == "" {
		return false
	}
	return true
}

// Filter returns the records of collection matching c, in order.
func Filter(collection []models.Address, c Criteria) []models.Address {
	out := make([]models.Address, 0, len(collection))
	for _, a := range collection {
		if c.Match(a) {
			out = append(out, a)
		}
	}
	return out
}
