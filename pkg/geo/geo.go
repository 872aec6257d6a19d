// Package geo holds the coordinate type shared by every station catalog and the
// nearest-station resolver built on it.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// ErrInvalidCoordinate is returned by Validate for NaN or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a position in decimal degrees, latitude positive north and
// longitude negative west.
type Point struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lon float64 `json:"longitude" yaml:"longitude"`
}

// Validate reports whether p is a usable target for a distance lookup.
func (p Point) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || math.IsNaN(p.Lon):
		return fmt.Errorf("%w: NaN in (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lon)
	case p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%w: latitude %.6f out of range", ErrInvalidCoordinate, p.Lat)
	case p.Lon < -180 || p.Lon > 180:
		return fmt.Errorf("%w: longitude %.6f out of range", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// coord converts p to a meeus globe coordinate. Meeus measures longitude
// positive west, so the sign flips.
func (p Point) coord() globe.Coord {
	return globe.Coord{
		Lat: unit.AngleFromDeg(p.Lat),
		Lon: unit.AngleFromDeg(-p.Lon),
	}
}

// Distance returns the ellipsoidal great-circle distance between a and b in
// kilometres on the IAU 1976 reference ellipsoid.
func Distance(a, b Point) float64 {
	if a == b {
		// The Meeus formula divides by the angular separation.
		return 0
	}
	d := globe.Earth76.Distance(a.coord(), b.coord())
	if math.IsNaN(d) {
		return 0
	}
	return d
}
