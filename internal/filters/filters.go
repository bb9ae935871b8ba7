// Package filters turns listing-search query parameters into typed predicates
// that the property repository reduces to a parameterized WHERE clause.
package filters

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/rentals/api/internal/models"
)

// Query parameter names accepted by Parse.
const (
	ParamFavoriteIDs   = "favoriteIds"
	ParamPriceMin      = "priceMin"
	ParamPriceMax      = "priceMax"
	ParamBeds          = "beds"
	ParamBaths         = "baths"
	ParamSquareFeetMin = "squareFeetMin"
	ParamSquareFeetMax = "squareFeetMax"
	ParamPropertyType  = "propertyType"
	ParamAmenities     = "amenities"
	ParamAvailableFrom = "availableFrom"
	ParamLatitude      = "latitude"
	ParamLongitude     = "longitude"
)

// Any is the sentinel clients send for "no preference".
const Any = "any"

// Proximity search uses a fixed radius, converted to degrees for ST_DWithin
// on SRID 4326 geometry. This is an approximation, not a geodesic distance.
const (
	SearchRadiusKm      = 1000.0
	KmPerDegree         = 111.0
	SearchRadiusDegrees = SearchRadiusKm / KmPerDegree
)

// ParamError reports a query parameter that could not be parsed.
type ParamError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// Filters is the parsed, typed form of a listing search. Nil and empty
// fields mean "no constraint".
type Filters struct {
	AvailableFrom *time.Time
	Near          *models.Point
	PropertyType  *models.PropertyType
	PriceMin      *float64
	PriceMax      *float64
	Beds          *float64
	Baths         *float64
	SquareFeetMin *float64
	SquareFeetMax *float64
	FavoriteIDs   []int
	Amenities     []models.Amenity
}

// Parse validates query values into Filters. Absent or empty parameters and
// the "any" sentinel impose no constraint. An availableFrom that is not a
// recognizable date is dropped rather than rejected. Every other malformed
// value yields a *ParamError.
func Parse(values url.Values) (Filters, error) {
	var f Filters
	var err error

	if raw := get(values, ParamFavoriteIDs); raw != "" {
		if f.FavoriteIDs, err = parseIDList(ParamFavoriteIDs, raw); err != nil {
			return Filters{}, err
		}
	}

	numeric := []struct {
		param   string
		dst     **float64
		anyable bool
	}{
		{ParamPriceMin, &f.PriceMin, false},
		{ParamPriceMax, &f.PriceMax, false},
		{ParamBeds, &f.Beds, true},
		{ParamBaths, &f.Baths, true},
		{ParamSquareFeetMin, &f.SquareFeetMin, false},
		{ParamSquareFeetMax, &f.SquareFeetMax, false},
	}
	for _, n := range numeric {
		raw := get(values, n.param)
		if raw == "" || (n.anyable && raw == Any) {
			continue
		}
		v, err := parseNumber(n.param, raw)
		if err != nil {
			return Filters{}, err
		}
		*n.dst = &v
	}

	if raw := get(values, ParamPropertyType); raw != "" && raw != Any {
		pt, err := models.ParsePropertyType(raw)
		if err != nil {
			return Filters{}, &ParamError{Param: ParamPropertyType, Value: raw, Reason: "unknown property type"}
		}
		f.PropertyType = &pt
	}

	if raw := get(values, ParamAmenities); raw != "" && raw != Any {
		amenities, err := models.ParseAmenities(raw)
		if err != nil {
			return Filters{}, &ParamError{Param: ParamAmenities, Value: raw, Reason: err.Error()}
		}
		if len(amenities) > 0 {
			f.Amenities = amenities
		}
	}

	if raw := get(values, ParamAvailableFrom); raw != "" && raw != Any {
		if date, ok := parseDate(raw); ok {
			f.AvailableFrom = &date
		}
	}

	latRaw, lngRaw := get(values, ParamLatitude), get(values, ParamLongitude)
	if latRaw != "" && lngRaw != "" {
		lat, err := parseNumber(ParamLatitude, latRaw)
		if err != nil {
			return Filters{}, err
		}
		lng, err := parseNumber(ParamLongitude, lngRaw)
		if err != nil {
			return Filters{}, err
		}
		point := models.NewPoint(lng, lat)
		if err := point.Validate(); err != nil {
			return Filters{}, &ParamError{Param: ParamLatitude + "," + ParamLongitude, Value: latRaw + "," + lngRaw, Reason: err.Error()}
		}
		f.Near = &point
	}

	return f, nil
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return len(f.Predicates()) == 0
}

// Predicates returns one predicate per constraint, in a fixed order:
// favorites, price, beds, baths, square feet, type, amenities,
// availability, proximity.
func (f Filters) Predicates() []Predicate {
	preds := []Predicate{}

	if len(f.FavoriteIDs) > 0 {
		preds = append(preds, Predicate{Column: ColumnID, Op: OpIn, Value: f.FavoriteIDs})
	}
	if f.PriceMin != nil {
		preds = append(preds, Predicate{Column: ColumnPricePerMonth, Op: OpGTE, Value: *f.PriceMin})
	}
	if f.PriceMax != nil {
		preds = append(preds, Predicate{Column: ColumnPricePerMonth, Op: OpLTE, Value: *f.PriceMax})
	}
	if f.Beds != nil {
		preds = append(preds, Predicate{Column: ColumnBeds, Op: OpGTE, Value: *f.Beds})
	}
	if f.Baths != nil {
		preds = append(preds, Predicate{Column: ColumnBaths, Op: OpGTE, Value: *f.Baths})
	}
	if f.SquareFeetMin != nil {
		preds = append(preds, Predicate{Column: ColumnSquareFeet, Op: OpGTE, Value: *f.SquareFeetMin})
	}
	if f.SquareFeetMax != nil {
		preds = append(preds, Predicate{Column: ColumnSquareFeet, Op: OpLTE, Value: *f.SquareFeetMax})
	}
	if f.PropertyType != nil {
		preds = append(preds, Predicate{Column: ColumnPropertyType, Op: OpEq, Value: string(*f.PropertyType)})
	}
	if len(f.Amenities) > 0 {
		preds = append(preds, Predicate{Column: ColumnAmenities, Op: OpContains, Value: models.EnumStrings(f.Amenities)})
	}
	if f.AvailableFrom != nil {
		preds = append(preds, Predicate{Column: ColumnID, Op: OpLeaseStartedBy, Value: f.AvailableFrom.UTC()})
	}
	if f.Near != nil {
		preds = append(preds, Predicate{
			Column: ColumnCoordinates,
			Op:     OpWithinDegrees,
			Value:  Circle{Center: *f.Near, RadiusDegrees: SearchRadiusDegrees},
		})
	}

	return preds
}

func get(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

func parseNumber(param, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParamError{Param: param, Value: raw, Reason: "must be a number"}
	}
	return v, nil
}

func parseIDList(param, raw string) ([]int, error) {
	ids := []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, &ParamError{Param: param, Value: raw, Reason: "must be a comma-separated list of integers"}
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
}

func parseDate(raw string) (time.Time, bool) {
	// Date.toString() appends a zone name in parentheses.
	if i := strings.Index(raw, " ("); i > 0 {
		raw = raw[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
