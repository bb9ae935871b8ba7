package models

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// SRID is the spatial reference of every stored point (WGS84 lon/lat degrees).
const SRID = 4326

// Coordinate bounds for SRID 4326.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Point is a geographic position. PostGIS and WKT order it (longitude, latitude).
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewPoint builds a Point from longitude and latitude.
func NewPoint(lng, lat float64) Point {
	return Point{Longitude: lng, Latitude: lat}
}

// Orb converts p to an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// WKT renders p as well-known text, e.g. "POINT(-73.98 40.75)".
func (p Point) WKT() string {
	return wkt.MarshalString(p.Orb())
}

// Validate reports whether both coordinates are finite and inside SRID 4326 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < MinLatitude || p.Latitude > MaxLatitude {
		return fmt.Errorf("latitude must be between %g and %g, got %g", MinLatitude, MaxLatitude, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < MinLongitude || p.Longitude > MaxLongitude {
		return fmt.Errorf("longitude must be between %g and %g, got %g", MinLongitude, MaxLongitude, p.Longitude)
	}
	return nil
}

// ParseWKT decodes a WKT point such as the output of ST_AsText.
func ParseWKT(s string) (Point, error) {
	op, err := wkt.UnmarshalPoint(s)
	if err != nil {
		return Point{}, fmt.Errorf("failed to parse WKT point %q: %w", s, err)
	}
	return NewPoint(op.Lon(), op.Lat()), nil
}

// Scan implements sql.Scanner for WKT text produced by ST_AsText.
func (p *Point) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		*p = Point{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("failed to scan Point: expected WKT text, got %T", value)
	}

	parsed, err := ParseWKT(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
