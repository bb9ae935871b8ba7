package filters

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/rentals/api/internal/models"
)

func TestPredicate_SQL(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pred     Predicate
		next     int
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "in",
			pred:     Predicate{Column: ColumnID, Op: OpIn, Value: []int{1, 2}},
			next:     1,
			wantSQL:  `p.id = ANY($1::int[])`,
			wantArgs: []any{[]int{1, 2}},
		},
		{
			name:     "gte",
			pred:     Predicate{Column: ColumnPricePerMonth, Op: OpGTE, Value: 1000.0},
			next:     3,
			wantSQL:  `p."pricePerMonth" >= $3::double precision`,
			wantArgs: []any{1000.0},
		},
		{
			name:     "lte",
			pred:     Predicate{Column: ColumnSquareFeet, Op: OpLTE, Value: 900.0},
			next:     2,
			wantSQL:  `p."squareFeet" <= $2::double precision`,
			wantArgs: []any{900.0},
		},
		{
			name:     "enum equality",
			pred:     Predicate{Column: ColumnPropertyType, Op: OpEq, Value: "Villa"},
			next:     1,
			wantSQL:  `p."propertyType" = $1::text::"PropertyType"`,
			wantArgs: []any{"Villa"},
		},
		{
			name:     "array containment",
			pred:     Predicate{Column: ColumnAmenities, Op: OpContains, Value: []string{"Pool", "Gym"}},
			next:     4,
			wantSQL:  `p.amenities @> $4::text[]::"Amenity"[]`,
			wantArgs: []any{[]string{"Pool", "Gym"}},
		},
		{
			name:     "lease started by",
			pred:     Predicate{Column: ColumnID, Op: OpLeaseStartedBy, Value: start},
			next:     1,
			wantSQL:  `EXISTS (SELECT 1 FROM "Lease" lease WHERE lease."propertyId" = p.id AND lease."startDate" <= $1::timestamp)`,
			wantArgs: []any{start},
		},
		{
			name: "within degrees",
			pred: Predicate{
				Column: ColumnCoordinates,
				Op:     OpWithinDegrees,
				Value:  Circle{Center: models.NewPoint(-74, 40.7), RadiusDegrees: 9},
			},
			next:     5,
			wantSQL:  `ST_DWithin(l.coordinates::geometry, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7)`,
			wantArgs: []any{-74.0, 40.7, 9.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.pred.SQL(tt.next)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPredicate_SQL_WrongValueType(t *testing.T) {
	preds := []Predicate{
		{Column: ColumnID, Op: OpIn, Value: []string{"1"}},
		{Column: ColumnBeds, Op: OpGTE, Value: 2},
		{Column: ColumnPropertyType, Op: OpEq, Value: models.PropertyTypeVilla},
		{Column: ColumnAmenities, Op: OpContains, Value: []models.Amenity{models.AmenityPool}},
		{Column: ColumnID, Op: OpLeaseStartedBy, Value: "2024-01-01"},
		{Column: ColumnCoordinates, Op: OpWithinDegrees, Value: models.NewPoint(0, 0)},
		{Column: ColumnID, Op: Operator(99), Value: 1},
	}

	for _, p := range preds {
		t.Run(p.Op.String(), func(t *testing.T) {
			_, _, err := p.SQL(1)
			assert.Error(t, err)
		})
	}
}

func TestWhere_Empty(t *testing.T) {
	clause, args, err := Where(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestWhere_NumbersPlaceholdersAcrossPredicates(t *testing.T) {
	f, err := Parse(url.Values{
		ParamPriceMin:  {"500"},
		ParamLatitude:  {"40"},
		ParamLongitude: {"-74"},
		ParamBeds:      {"2"},
	})
	require.NoError(t, err)

	clause, args, err := Where(f.Predicates(), 1)
	require.NoError(t, err)

	assert.Equal(t,
		`p."pricePerMonth" >= $1::double precision AND p.beds >= $2::double precision AND `+
			`ST_DWithin(l.coordinates::geometry, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5)`,
		clause)
	assert.Equal(t, []any{500.0, 2.0, -74.0, 40.0, SearchRadiusDegrees}, args)
}

func TestWhere_StartsAtOffset(t *testing.T) {
	preds := []Predicate{
		{Column: ColumnBaths, Op: OpGTE, Value: 1.0},
		{Column: ColumnSquareFeet, Op: OpLTE, Value: 800.0},
	}

	clause, args, err := Where(preds, 3)
	require.NoError(t, err)
	assert.Equal(t, `p.baths >= $3::double precision AND p."squareFeet" <= $4::double precision`, clause)
	assert.Len(t, args, 2)
}

func TestWhere_PropagatesError(t *testing.T) {
	_, _, err := Where([]Predicate{{Column: ColumnBeds, Op: OpGTE, Value: "2"}}, 1)
	assert.Error(t, err)
}

func TestWhere_FractionalBoundsOnIntegerColumns(t *testing.T) {
	f, err := Parse(url.Values{
		ParamBeds:          {"1.5"},
		ParamSquareFeetMin: {"750.5"},
	})
	require.NoError(t, err)

	clause, args, err := Where(f.Predicates(), 1)
	require.NoError(t, err)

	assert.Equal(t, `p.beds >= $1::double precision AND p."squareFeet" >= $2::double precision`, clause)
	assert.Equal(t, []any{1.5, 750.5}, args)
}
