package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/rentals/api/internal/database"
	"github.com/stwalsh4118/rentals/api/internal/filters"
	"github.com/stwalsh4118/rentals/api/internal/models"
)

// PropertyRepository defines the data access operations for listings.
type PropertyRepository interface {
	// List returns every property matching all predicates, each with its
	// location embedded. Returns an empty slice when nothing matches.
	List(ctx context.Context, preds []filters.Predicate) ([]models.Property, error)

	// FindByID returns the property with its location.
	// Returns nil, nil if no property has that id.
	FindByID(ctx context.Context, id int) (*models.Property, error)

	// Create inserts the location and then the property in one transaction.
	// The returned property embeds its location and manager.
	Create(ctx context.Context, params CreatePropertyParams) (*models.Property, error)
}

// CreatePropertyParams is the input to PropertyRepository.Create. Property.ID,
// PostedDate and LocationID are assigned by the database.
type CreatePropertyParams struct {
	Property models.Property
	Location models.Location
}

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

// propertyColumns is the property projection shared by every query. Enum
// columns are cast to text so they scan into strings without registering the
// enum types with pgx.
const propertyColumns = `
			p.id,
			p.name,
			p.description,
			p."pricePerMonth",
			p."securityDeposit",
			p."applicationFee",
			p."photoUrls",
			p.amenities::text[],
			p.highlights::text[],
			p."isPetsAllowed",
			p."isParkingIncluded",
			p.beds,
			p.baths,
			p."squareFeet",
			p."propertyType"::text,
			p."postedDate",
			p."averageRating",
			p."numberOfReviews",
			p."locationId",
			p."managerCognitoId"`

// locationObject renders the location as JSON with decoded coordinates.
const locationObject = `
			json_build_object(
				'id', l.id,
				'address', l.address,
				'city', l.city,
				'state', l.state,
				'country', l.country,
				'postalCode', l."postalCode",
				'coordinates', json_build_object(
					'longitude', ST_X(l.coordinates::geometry),
					'latitude', ST_Y(l.coordinates::geometry)
				)
			) AS location`

const propertyFrom = `
		FROM "Property" p
		JOIN "Location" l ON p."locationId" = l.id`

// BuildListQuery assembles the listing search: every property joined to its
// location, restricted by the AND of preds. There is no WHERE clause when preds
// is empty, and no ordering or limit.
func BuildListQuery(preds []filters.Predicate) (string, []any, error) {
	clause, args, err := filters.Where(preds, 1)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build filter clause: %w", err)
	}

	var b strings.Builder
	b.WriteString("\n\t\tSELECT")
	b.WriteString(propertyColumns)
	b.WriteString(",")
	b.WriteString(locationObject)
	b.WriteString(propertyFrom)
	if clause != "" {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(clause)
	}
	b.WriteString("\n\t")

	return b.String(), args, nil
}

// List runs the query produced by BuildListQuery.
func (r *propertyRepository) List(ctx context.Context, preds []filters.Predicate) ([]models.Property, error) {
	query, args, err := BuildListQuery(preds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	results := []models.Property{}

	for rows.Next() {
		var locationJSON []byte

		property, err := scanProperty(rows, &locationJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}

		var location models.Location
		if err := json.Unmarshal(locationJSON, &location); err != nil {
			return nil, fmt.Errorf("failed to decode location for property %d: %w", property.ID, err)
		}
		property.Location = &location

		results = append(results, *property)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return results, nil
}

// FindByID reads the stored point as WKT via ST_AsText; models.Point scans it.
func (r *propertyRepository) FindByID(ctx context.Context, id int) (*models.Property, error) {
	query := `
		SELECT` + propertyColumns + `,
			l.id,
			l.address,
			l.city,
			l.state,
			l.country,
			l."postalCode",
			ST_AsText(l.coordinates)` + propertyFrom + `
		WHERE p.id = $1
	`

	var location models.Location

	property, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id),
		&location.ID,
		&location.Address,
		&location.City,
		&location.State,
		&location.Country,
		&location.PostalCode,
		&location.Coordinates,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}

	property.Location = &location

	return property, nil
}

// Create inserts Location then Property inside one transaction. Either both
// rows exist afterwards or neither does.
//
// Note: PostGIS functions expect (longitude, latitude) order.
func (r *propertyRepository) Create(ctx context.Context, params CreatePropertyParams) (*models.Property, error) {
	property := params.Property
	location := params.Location

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO "Location" (address, city, state, country, "postalCode", coordinates)
			VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326))
			RETURNING id
		`,
			location.Address,
			location.City,
			location.State,
			location.Country,
			location.PostalCode,
			location.Coordinates.Longitude,
			location.Coordinates.Latitude,
		).Scan(&location.ID)
		if err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}

		property.LocationID = location.ID

		err = tx.QueryRow(ctx, `
			INSERT INTO "Property" (
				name,
				description,
				"pricePerMonth",
				"securityDeposit",
				"applicationFee",
				"photoUrls",
				amenities,
				highlights,
				"isPetsAllowed",
				"isParkingIncluded",
				beds,
				baths,
				"squareFeet",
				"propertyType",
				"locationId",
				"managerCognitoId"
			)
			VALUES (
				$1, $2, $3, $4, $5, $6,
				$7::text[]::"Amenity"[],
				$8::text[]::"Highlight"[],
				$9, $10, $11, $12, $13,
				$14::text::"PropertyType",
				$15, $16
			)
			RETURNING id, "postedDate", "averageRating", "numberOfReviews"
		`,
			property.Name,
			property.Description,
			property.PricePerMonth,
			property.SecurityDeposit,
			property.ApplicationFee,
			nonNilStrings(property.PhotoURLs),
			models.EnumStrings(property.Amenities),
			models.EnumStrings(property.Highlights),
			property.IsPetsAllowed,
			property.IsParkingIncluded,
			property.Beds,
			property.Baths,
			property.SquareFeet,
			string(property.PropertyType),
			property.LocationID,
			property.ManagerCognitoID,
		).Scan(&property.ID, &property.PostedDate, &property.AverageRating, &property.NumberOfReviews)
		if err != nil {
			return fmt.Errorf("failed to insert property: %w", err)
		}

		property.Manager, err = findManager(ctx, tx, property.ManagerCognitoID)
		return err
	})
	if err != nil {
		return nil, err
	}

	property.Location = &location
	return &property, nil
}

// findManager loads the manager row by cognito id, or nil if there is none.
func findManager(ctx context.Context, q pgx.Tx, cognitoID string) (*models.Manager, error) {
	var m models.Manager
	err := q.QueryRow(ctx, `
		SELECT id, "cognitoId", name, email, "phoneNumber"
		FROM "Manager"
		WHERE "cognitoId" = $1
	`, cognitoID).Scan(&m.ID, &m.CognitoID, &m.Name, &m.Email, &m.PhoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query manager %q: %w", cognitoID, err)
	}
	return &m, nil
}

// scanProperty scans propertyColumns followed by extra destinations.
func scanProperty(row pgx.Row, extra ...any) (*models.Property, error) {
	var p models.Property
	var amenities, highlights []string
	var propertyType string

	dest := []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.PricePerMonth,
		&p.SecurityDeposit,
		&p.ApplicationFee,
		&p.PhotoURLs,
		&amenities,
		&highlights,
		&p.IsPetsAllowed,
		&p.IsParkingIncluded,
		&p.Beds,
		&p.Baths,
		&p.SquareFeet,
		&propertyType,
		&p.PostedDate,
		&p.AverageRating,
		&p.NumberOfReviews,
		&p.LocationID,
		&p.ManagerCognitoID,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	p.PropertyType = models.PropertyType(propertyType)
	p.Amenities = models.EnumsFromStrings[models.Amenity](amenities)
	p.Highlights = models.EnumsFromStrings[models.Highlight](highlights)
	p.PhotoURLs = nonNilStrings(p.PhotoURLs)

	return &p, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
