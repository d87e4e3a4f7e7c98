package lookup

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// CleanStreetNames trims names, drops those of two characters or less and
// purely numeric ones, removes duplicates and sorts the rest.
func CleanStreetNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if len([]rune(n)) <= 2 || digitsOnly.MatchString(n) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// streetsQuery selects named roads of the classes worth walking inside area,
// with their geometry so callers can keep only those reaching the circle.
func streetsQuery(area Area, timeoutSec int) string {
	box := area.Overpass()
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  way[highway~"^(primary|secondary|tertiary|residential|living_street|pedestrian)$"](%s);
  way[highway~"^(trunk|unclassified|service)$"][name](%s);
);
out tags geom;`, timeoutSec, box, box)
}
