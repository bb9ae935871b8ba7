package repository

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/rentals/api/internal/config"
	"github.com/stwalsh4118/rentals/api/internal/database"
	"github.com/stwalsh4118/rentals/api/internal/filters"
	"github.com/stwalsh4118/rentals/api/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "rentals_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB connects to the integration database and applies the schema,
// or skips the test.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Skipping integration test, database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, string(schema))
	require.NoError(t, err, "failed to apply schema")

	return db
}

// seedManager inserts a manager with a unique cognito id and removes it, and
// everything that references it, when the test ends.
func seedManager(t *testing.T, db *database.Database) string {
	t.Helper()
	ctx := context.Background()
	cognitoID := "mgr-" + uuid.NewString()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO "Manager" ("cognitoId", name, email, "phoneNumber")
		VALUES ($1, 'Test Manager', 'manager@example.com', '555-0100')
	`, cognitoID)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		cleanup := []string{
			`DELETE FROM "Payment" WHERE "leaseId" IN (SELECT lease.id FROM "Lease" lease JOIN "Property" p ON p.id = lease."propertyId" WHERE p."managerCognitoId" = $1)`,
			`DELETE FROM "Application" WHERE "propertyId" IN (SELECT id FROM "Property" WHERE "managerCognitoId" = $1)`,
			`DELETE FROM "Lease" WHERE "propertyId" IN (SELECT id FROM "Property" WHERE "managerCognitoId" = $1)`,
			`WITH deleted AS (DELETE FROM "Property" WHERE "managerCognitoId" = $1 RETURNING "locationId")
			 DELETE FROM "Location" WHERE id IN (SELECT "locationId" FROM deleted)`,
			`DELETE FROM "Manager" WHERE "cognitoId" = $1`,
		}
		for _, stmt := range cleanup {
			if _, err := db.Pool.Exec(ctx, stmt, cognitoID); err != nil {
				t.Logf("cleanup failed: %v", err)
			}
		}
	})

	return cognitoID
}

func newTestParams(managerID string) CreatePropertyParams {
	return CreatePropertyParams{
		Property: models.Property{
			Name:              "Sunny Loft",
			Description:       "Top floor loft",
			PricePerMonth:     2100,
			SecurityDeposit:   500,
			ApplicationFee:    50,
			PhotoURLs:         []string{"https://bucket.example/properties/1-a.jpg"},
			Amenities:         []models.Amenity{models.AmenityPool, models.AmenityWiFi},
			Highlights:        []models.Highlight{models.HighlightGreatView},
			IsPetsAllowed:     true,
			IsParkingIncluded: false,
			Beds:              2,
			Baths:             1.5,
			SquareFeet:        850,
			PropertyType:      models.PropertyTypeApartment,
			ManagerCognitoID:  managerID,
		},
		Location: models.Location{
			Address:     "1 Main St",
			City:        "Austin",
			State:       "TX",
			Country:     "US",
			PostalCode:  "78701",
			Coordinates: models.NewPoint(-97.7431, 30.2672),
		},
	}
}

func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestBuildListQuery_NoPredicates(t *testing.T) {
	query, args, err := BuildListQuery(nil)
	require.NoError(t, err)

	q := normalizeSQL(query)
	assert.NotContains(t, q, "WHERE")
	assert.NotContains(t, q, "ORDER BY")
	assert.NotContains(t, q, "LIMIT")
	assert.Contains(t, q, `FROM "Property" p JOIN "Location" l ON p."locationId" = l.id`)
	assert.Empty(t, args)
}

func TestBuildListQuery_EmbedsLocation(t *testing.T) {
	query, _, err := BuildListQuery(nil)
	require.NoError(t, err)

	q := normalizeSQL(query)
	assert.Contains(t, q, `'postalCode', l."postalCode"`)
	assert.Contains(t, q, `'longitude', ST_X(l.coordinates::geometry)`)
	assert.Contains(t, q, `'latitude', ST_Y(l.coordinates::geometry)`)
	assert.Contains(t, q, `) AS location FROM`)
}

func TestBuildListQuery_WithPredicates(t *testing.T) {
	f, err := filters.Parse(url.Values{
		filters.ParamPriceMin:     {"1000"},
		filters.ParamPriceMax:     {"2000"},
		filters.ParamPropertyType: {"Apartment"},
	})
	require.NoError(t, err)

	query, args, err := BuildListQuery(f.Predicates())
	require.NoError(t, err)

	q := normalizeSQL(query)
	assert.True(t, strings.HasSuffix(q,
		`WHERE p."pricePerMonth" >= $1::double precision AND p."pricePerMonth" <= $2::double precision AND p."propertyType" = $3::text::"PropertyType"`),
		"unexpected query tail: %s", q)
	assert.Equal(t, []any{1000.0, 2000.0, "Apartment"}, args)
}

func TestBuildListQuery_BadPredicate(t *testing.T) {
	_, _, err := BuildListQuery([]filters.Predicate{{Column: filters.ColumnBeds, Op: filters.OpGTE, Value: "two"}})
	assert.Error(t, err)
}

func TestPropertyRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	managerID := seedManager(t, db)

	created, err := repo.Create(ctx, newTestParams(managerID))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.LocationID)
	assert.False(t, created.PostedDate.IsZero())
	require.NotNil(t, created.Location)
	assert.Equal(t, created.LocationID, created.Location.ID)
	require.NotNil(t, created.Manager)
	assert.Equal(t, managerID, created.Manager.CognitoID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "Sunny Loft", found.Name)
	assert.Equal(t, models.PropertyTypeApartment, found.PropertyType)
	assert.Equal(t, []models.Amenity{models.AmenityPool, models.AmenityWiFi}, found.Amenities)
	assert.Equal(t, []models.Highlight{models.HighlightGreatView}, found.Highlights)
	assert.Equal(t, 1.5, found.Baths)
	require.NotNil(t, found.Location)
	assert.InDelta(t, -97.7431, found.Location.Coordinates.Longitude, 1e-9)
	assert.InDelta(t, 30.2672, found.Location.Coordinates.Latitude, 1e-9)
	assert.Equal(t, "78701", found.Location.PostalCode)
}

func TestPropertyRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)

	found, err := repo.FindByID(context.Background(), -1)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestPropertyRepository_CreateRollsBackLocation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	var before int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT count(*) FROM "Location"`).Scan(&before))

	// No such manager, so the property insert violates its foreign key.
	params := newTestParams("missing-" + uuid.NewString())
	_, err := repo.Create(ctx, params)
	require.Error(t, err)

	var after int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT count(*) FROM "Location"`).Scan(&after))
	assert.Equal(t, before, after, "location insert should roll back with the property")
}

func TestPropertyRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	tenantID := seedTenant(t, db)
	managerID := seedManager(t, db)

	create := func(price float64, beds int, baths float64, squareFeet int, propertyType models.PropertyType) int {
		params := newTestParams(managerID)
		params.Property.PricePerMonth = price
		params.Property.Beds = beds
		params.Property.Baths = baths
		params.Property.SquareFeet = squareFeet
		params.Property.PropertyType = propertyType
		created, err := repo.Create(ctx, params)
		require.NoError(t, err)
		return created.ID
	}

	cheap := create(900, 2, 1.5, 850, models.PropertyTypeApartment)
	pricey := create(4000, 3, 2, 1200, models.PropertyTypeVilla)
	oneBed := create(1500, 1, 1, 750, models.PropertyTypeApartment)
	midTwoBed := create(1800, 2, 1, 900, models.PropertyTypeApartment)

	seedLease(t, db, midTwoBed, tenantID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	favorites := strings.Join([]string{
		strconv.Itoa(cheap), strconv.Itoa(pricey), strconv.Itoa(oneBed), strconv.Itoa(midTwoBed),
	}, ",")
	scoped := func(kv ...string) url.Values {
		values := url.Values{filters.ParamFavoriteIDs: {favorites}}
		for i := 0; i+1 < len(kv); i += 2 {
			values.Set(kv[i], kv[i+1])
		}
		return values
	}

	tests := []struct {
		name    string
		values  url.Values
		wantIDs []int
	}{
		{
			name:    "favorites only",
			values:  scoped(),
			wantIDs: []int{cheap, pricey, oneBed, midTwoBed},
		},
		{
			name:    "price bounds are inclusive",
			values:  scoped(filters.ParamPriceMin, "900", filters.ParamPriceMax, "900"),
			wantIDs: []int{cheap},
		},
		{
			name:    "price range with beds",
			values:  scoped(filters.ParamPriceMin, "1000", filters.ParamPriceMax, "2000", filters.ParamBeds, "2"),
			wantIDs: []int{midTwoBed},
		},
		{
			name:    "beds minimum",
			values:  scoped(filters.ParamBeds, "2"),
			wantIDs: []int{cheap, pricey, midTwoBed},
		},
		{
			name:    "fractional beds excludes lower integer",
			values:  scoped(filters.ParamBeds, "1.5"),
			wantIDs: []int{cheap, pricey, midTwoBed},
		},
		{
			name:    "baths minimum",
			values:  scoped(filters.ParamBaths, "1.5"),
			wantIDs: []int{cheap, pricey},
		},
		{
			name:    "square feet minimum is inclusive",
			values:  scoped(filters.ParamSquareFeetMin, "750"),
			wantIDs: []int{cheap, pricey, oneBed, midTwoBed},
		},
		{
			name:    "fractional square feet minimum",
			values:  scoped(filters.ParamSquareFeetMin, "750.5"),
			wantIDs: []int{cheap, pricey, midTwoBed},
		},
		{
			name:    "square feet maximum",
			values:  scoped(filters.ParamSquareFeetMax, "850"),
			wantIDs: []int{cheap, oneBed},
		},
		{
			name:    "fractional square feet maximum",
			values:  scoped(filters.ParamSquareFeetMax, "849.5"),
			wantIDs: []int{oneBed},
		},
		{
			name:    "property type",
			values:  scoped(filters.ParamPropertyType, "Villa"),
			wantIDs: []int{pricey},
		},
		{
			name:    "amenities subset",
			values:  scoped(filters.ParamAmenities, "Pool"),
			wantIDs: []int{cheap, pricey, oneBed, midTwoBed},
		},
		{
			name:    "amenities not present",
			values:  scoped(filters.ParamAmenities, "Gym"),
			wantIDs: []int{},
		},
		{
			name:    "near",
			values:  scoped(filters.ParamLatitude, "30.3", filters.ParamLongitude, "-97.7"),
			wantIDs: []int{cheap, pricey, oneBed, midTwoBed},
		},
		{
			name:    "far away",
			values:  scoped(filters.ParamLatitude, "51.5", filters.ParamLongitude, "-0.12"),
			wantIDs: []int{},
		},
		{
			name:    "lease started before date",
			values:  scoped(filters.ParamAvailableFrom, "2025-01-01"),
			wantIDs: []int{midTwoBed},
		},
		{
			name:    "no lease started yet",
			values:  scoped(filters.ParamAvailableFrom, "2023-06-01"),
			wantIDs: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := filters.Parse(tt.values)
			require.NoError(t, err)

			got, err := repo.List(ctx, f.Predicates())
			require.NoError(t, err)

			ids := []int{}
			for _, p := range got {
				ids = append(ids, p.ID)
				require.NotNil(t, p.Location)
				assert.Equal(t, p.LocationID, p.Location.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestPropertyRepository_ListDecodesLocation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	managerID := seedManager(t, db)
	created, err := repo.Create(ctx, newTestParams(managerID))
	require.NoError(t, err)

	got, err := repo.List(ctx, []filters.Predicate{{Column: filters.ColumnID, Op: filters.OpIn, Value: []int{created.ID}}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	loc := got[0].Location
	require.NotNil(t, loc)
	assert.Equal(t, "Austin", loc.City)
	assert.InDelta(t, -97.7431, loc.Coordinates.Longitude, 1e-9)
	assert.InDelta(t, 30.2672, loc.Coordinates.Latitude, 1e-9)
}

func TestPropertyRepository_ContextCancelled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx, nil)
	assert.Error(t, err)
}
