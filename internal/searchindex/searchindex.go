// Package searchindex mirrors created listings into a Meilisearch index so
// they can be served by full-text and geo search.
package searchindex

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/stwalsh4118/rentals/api/internal/models"
)

// Indexer receives every listing after it is stored.
type Indexer interface {
	IndexProperty(ctx context.Context, property *models.Property) error
}

// Noop discards everything. It is used when no search host is configured.
type Noop struct{}

// IndexProperty does nothing.
func (Noop) IndexProperty(context.Context, *models.Property) error { return nil }

// Attribute settings applied by EnsureIndex.
var (
	searchableAttributes = []string{"name", "description", "address", "city", "state", "country", "postalCode"}
	filterableAttributes = []string{
		"id", "pricePerMonth", "beds", "baths", "squareFeet", "propertyType",
		"amenities", "highlights", "isPetsAllowed", "isParkingIncluded", "_geo",
	}
	sortableAttributes = []string{"pricePerMonth", "postedDate", "squareFeet", "_geo"}
)

// documentIndex is the subset of *meilisearch.Index used here.
type documentIndex interface {
	AddDocuments(documentsPtr interface{}, primaryKey ...string) (*meilisearch.TaskInfo, error)
	UpdateSearchableAttributes(request *[]string) (*meilisearch.TaskInfo, error)
	UpdateFilterableAttributes(request *[]string) (*meilisearch.TaskInfo, error)
	UpdateSortableAttributes(request *[]string) (*meilisearch.TaskInfo, error)
}

// Meilisearch indexes listings into one Meilisearch index.
type Meilisearch struct {
	client *meilisearch.Client
	index  documentIndex
	uid    string
}

// NewMeilisearch creates a client for the index uid on host.
func NewMeilisearch(host, apiKey, uid string) *Meilisearch {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &Meilisearch{
		client: client,
		index:  client.Index(uid),
		uid:    uid,
	}
}

// EnsureIndex creates the index if needed and applies attribute settings.
// Meilisearch processes both asynchronously; an existing index makes the
// creation task fail without affecting the settings updates.
func (m *Meilisearch) EnsureIndex() error {
	if m.client != nil {
		if _, err := m.client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        m.uid,
			PrimaryKey: "id",
		}); err != nil {
			return fmt.Errorf("create index %s: %w", m.uid, err)
		}
	}

	if _, err := m.index.UpdateSearchableAttributes(&searchableAttributes); err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}
	if _, err := m.index.UpdateFilterableAttributes(&filterableAttributes); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}
	if _, err := m.index.UpdateSortableAttributes(&sortableAttributes); err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}
	return nil
}

// IndexProperty adds or replaces the listing's document.
func (m *Meilisearch) IndexProperty(_ context.Context, property *models.Property) error {
	docs := []Document{NewDocument(property)}
	if _, err := m.index.AddDocuments(&docs, "id"); err != nil {
		return fmt.Errorf("index property %d: %w", property.ID, err)
	}
	return nil
}

// Ping reports whether the Meilisearch server is available.
func (m *Meilisearch) Ping(_ context.Context) error {
	if m.client == nil {
		return fmt.Errorf("meilisearch client not configured")
	}
	health, err := m.client.Health()
	if err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %q", health.Status)
	}
	return nil
}

// GeoPoint is Meilisearch's reserved _geo field.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Document is the flattened search representation of a listing.
type Document struct {
	Geo               *GeoPoint `json:"_geo,omitempty"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	PropertyType      string    `json:"propertyType"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	Country           string    `json:"country"`
	PostalCode        string    `json:"postalCode"`
	ManagerCognitoID  string    `json:"managerCognitoId"`
	PhotoURLs         []string  `json:"photoUrls"`
	Amenities         []string  `json:"amenities"`
	Highlights        []string  `json:"highlights"`
	PricePerMonth     float64   `json:"pricePerMonth"`
	Baths             float64   `json:"baths"`
	PostedDate        int64     `json:"postedDate"`
	ID                int       `json:"id"`
	Beds              int       `json:"beds"`
	SquareFeet        int       `json:"squareFeet"`
	IsPetsAllowed     bool      `json:"isPetsAllowed"`
	IsParkingIncluded bool      `json:"isParkingIncluded"`
}

// NewDocument flattens a listing and its location. PostedDate is Unix seconds
// so it can be sorted.
func NewDocument(p *models.Property) Document {
	doc := Document{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		PropertyType:      string(p.PropertyType),
		ManagerCognitoID:  p.ManagerCognitoID,
		PhotoURLs:         p.PhotoURLs,
		Amenities:         models.EnumStrings(p.Amenities),
		Highlights:        models.EnumStrings(p.Highlights),
		PricePerMonth:     p.PricePerMonth,
		Baths:             p.Baths,
		Beds:              p.Beds,
		SquareFeet:        p.SquareFeet,
		IsPetsAllowed:     p.IsPetsAllowed,
		IsParkingIncluded: p.IsParkingIncluded,
		PostedDate:        p.PostedDate.Unix(),
	}
	if doc.PhotoURLs == nil {
		doc.PhotoURLs = []string{}
	}

	if loc := p.Location; loc != nil {
		doc.Address = loc.Address
		doc.City = loc.City
		doc.State = loc.State
		doc.Country = loc.Country
		doc.PostalCode = loc.PostalCode
		doc.Geo = &GeoPoint{Lat: loc.Coordinates.Latitude, Lng: loc.Coordinates.Longitude}
	}

	return doc
}
