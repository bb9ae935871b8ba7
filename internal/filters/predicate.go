package filters

import (
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/rentals/api/internal/models"
)

// Column is a whitelisted, pre-quoted column reference. The listing query
// aliases "Property" as p and "Location" as l.
type Column string

const (
	ColumnID            Column = `p.id`
	ColumnPricePerMonth Column = `p."pricePerMonth"`
	ColumnBeds          Column = `p.beds`
	ColumnBaths         Column = `p.baths`
	ColumnSquareFeet    Column = `p."squareFeet"`
	ColumnPropertyType  Column = `p."propertyType"`
	ColumnAmenities     Column = `p.amenities`
	ColumnCoordinates   Column = `l.coordinates`
)

// Operator selects how a predicate compares its column to its value.
type Operator int

const (
	// OpIn matches when the column equals any element of an []int.
	OpIn Operator = iota
	// OpGTE is an inclusive lower bound.
	OpGTE
	// OpLTE is an inclusive upper bound.
	OpLTE
	// OpEq matches a "PropertyType" enum value.
	OpEq
	// OpContains matches when the "Amenity" array column contains every element.
	OpContains
	// OpLeaseStartedBy matches when the property has a lease starting on or
	// before the time value.
	OpLeaseStartedBy
	// OpWithinDegrees matches points within a Circle (inclusive).
	OpWithinDegrees
)

func (o Operator) String() string {
	switch o {
	case OpIn:
		return "in"
	case OpGTE:
		return ">="
	case OpLTE:
		return "<="
	case OpEq:
		return "="
	case OpContains:
		return "@>"
	case OpLeaseStartedBy:
		return "lease-started-by"
	case OpWithinDegrees:
		return "within"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// Circle is a proximity constraint in SRID 4326 degrees.
type Circle struct {
	Center        models.Point
	RadiusDegrees float64
}

// Predicate is one (column, operator, value) constraint.
type Predicate struct {
	Value  any
	Column Column
	Op     Operator
}

// SQL renders the predicate using positional placeholders starting at $next.
// It returns the fragment and the arguments it binds, in placeholder order.
func (p Predicate) SQL(next int) (string, []any, error) {
	switch p.Op {
	case OpIn:
		ids, ok := p.Value.([]int)
		if !ok {
			return "", nil, p.typeError("[]int")
		}
		return fmt.Sprintf("%s = ANY($%d::int[])", p.Column, next), []any{ids}, nil

	case OpGTE, OpLTE:
		v, ok := p.Value.(float64)
		if !ok {
			return "", nil, p.typeError("float64")
		}
		// Integer columns would otherwise type the parameter as int4 and
		// truncate fractional bounds.
		return fmt.Sprintf("%s %s $%d::double precision", p.Column, p.Op, next), []any{v}, nil

	case OpEq:
		v, ok := p.Value.(string)
		if !ok {
			return "", nil, p.typeError("string")
		}
		return fmt.Sprintf(`%s = $%d::text::"PropertyType"`, p.Column, next), []any{v}, nil

	case OpContains:
		v, ok := p.Value.([]string)
		if !ok {
			return "", nil, p.typeError("[]string")
		}
		return fmt.Sprintf(`%s @> $%d::text[]::"Amenity"[]`, p.Column, next), []any{v}, nil

	case OpLeaseStartedBy:
		v, ok := p.Value.(time.Time)
		if !ok {
			return "", nil, p.typeError("time.Time")
		}
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM "Lease" lease WHERE lease."propertyId" = %s AND lease."startDate" <= $%d::timestamp)`,
			p.Column, next), []any{v}, nil

	case OpWithinDegrees:
		c, ok := p.Value.(Circle)
		if !ok {
			return "", nil, p.typeError("Circle")
		}
		return fmt.Sprintf("ST_DWithin(%s::geometry, ST_SetSRID(ST_MakePoint($%d, $%d), %d), $%d)",
				p.Column, next, next+1, models.SRID, next+2),
			[]any{c.Center.Longitude, c.Center.Latitude, c.RadiusDegrees}, nil
	}

	return "", nil, fmt.Errorf("unsupported operator %s on %s", p.Op, p.Column)
}

func (p Predicate) typeError(want string) error {
	return fmt.Errorf("predicate %s %s: expected %s value, got %T", p.Column, p.Op, want, p.Value)
}

// Where reduces predicates to "cond AND cond ...", numbering placeholders
// from $first. It returns an empty clause and no arguments for no predicates.
func Where(preds []Predicate, first int) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		fragment, fargs, err := p.SQL(first + len(args))
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, fragment)
		args = append(args, fargs...)
	}

	return strings.Join(parts, " AND "), args, nil
}
