package lookup

import (
	"fmt"

	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371008.8

// Area is a latitude/longitude bounding box in degrees.
type Area struct {
	South, West, North, East float64
}

func point(c models.Coordinates) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

// SearchArea returns the box bounding the circle of radius meters around at.
func SearchArea(at models.Coordinates, radius float64) Area {
	c := s2.CapFromCenterAngle(point(at), s1.Angle(radius/earthRadiusMeters))
	r := c.RectBound()
	return Area{
		South: r.Lo().Lat.Degrees(),
		West:  r.Lo().Lng.Degrees(),
		North: r.Hi().Lat.Degrees(),
		East:  r.Hi().Lng.Degrees(),
	}
}

// Overpass renders the box in Overpass QL order.
func (a Area) Overpass() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", a.South, a.West, a.North, a.East)
}

// WithinRadius reports whether any point of path, or any segment between
// consecutive points, lies within radius meters of at.
func WithinRadius(at models.Coordinates, radius float64, path []models.Coordinates) bool {
	center := point(at)
	limit := s1.Angle(radius / earthRadiusMeters)
	for i, c := range path {
		p := point(c)
		if center.Distance(p) <= limit {
			return true
		}
		if i > 0 && s2.DistanceFromSegment(center, point(path[i-1]), p) <= limit {
			return true
		}
	}
	return false
}
