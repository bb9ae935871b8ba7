package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/rentals/api/internal/filters"
	"github.com/stwalsh4118/rentals/api/internal/geocoding"
	"github.com/stwalsh4118/rentals/api/internal/logger"
	"github.com/stwalsh4118/rentals/api/internal/models"
	"github.com/stwalsh4118/rentals/api/internal/repository"
	"github.com/stwalsh4118/rentals/api/internal/searchindex"
	"github.com/stwalsh4118/rentals/api/internal/storage"
)

// Service-level errors
var (
	ErrPropertyNotFound  = errors.New("property not found")
	ErrInvalidPropertyID = errors.New("invalid property id")
)

// cleanupTimeout bounds best-effort deletion of uploaded photos after a
// failed create.
const cleanupTimeout = 30 * time.Second

// Photo is one uploaded image of a new listing.
type Photo struct {
	Open        func() (io.ReadCloser, error)
	Filename    string
	ContentType string
}

// CreatePropertyInput carries a new listing. Location.Coordinates is ignored;
// it is filled in by geocoding the address.
type CreatePropertyInput struct {
	Property models.Property
	Location models.Location
	Photos   []Photo
}

// PropertyService defines the business operations on listings.
type PropertyService interface {
	// ListProperties returns every listing matching f.
	// Returns an empty slice if nothing matches.
	ListProperties(ctx context.Context, f filters.Filters) ([]models.Property, error)

	// GetProperty returns one listing with its location.
	// Returns ErrPropertyNotFound if it does not exist.
	GetProperty(ctx context.Context, id int) (*models.Property, error)

	// CreateProperty uploads the photos, geocodes the address and stores the
	// listing. Uploaded photos are removed again if any later step fails.
	CreateProperty(ctx context.Context, in CreatePropertyInput) (*models.Property, error)
}

type propertyService struct {
	repo     repository.PropertyRepository
	store    storage.ObjectStore
	geocoder geocoding.Geocoder
	indexer  searchindex.Indexer
	log      *logger.Logger
	now      func() time.Time
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(
	repo repository.PropertyRepository,
	store storage.ObjectStore,
	geocoder geocoding.Geocoder,
	indexer searchindex.Indexer,
	log *logger.Logger,
) PropertyService {
	if indexer == nil {
		indexer = searchindex.Noop{}
	}
	return &propertyService{
		repo:     repo,
		store:    store,
		geocoder: geocoder,
		indexer:  indexer,
		log:      log,
		now:      time.Now,
	}
}

// ParsePropertyID validates a path id.
func ParsePropertyID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPropertyID, raw)
	}
	return id, nil
}

func (s *propertyService) ListProperties(ctx context.Context, f filters.Filters) ([]models.Property, error) {
	preds := f.Predicates()

	s.log.Debug("Querying properties", map[string]interface{}{
		"predicates": len(preds),
		"unfiltered": f.IsEmpty(),
	})

	properties, err := s.repo.List(ctx, preds)
	if err != nil {
		s.log.Error("Failed to query properties", err, map[string]interface{}{
			"predicates": len(preds),
		})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}

	s.log.Info("Properties found", map[string]interface{}{
		"predicates": len(preds),
		"count":      len(properties),
	})

	return properties, nil
}

func (s *propertyService) GetProperty(ctx context.Context, id int) (*models.Property, error) {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	// Repository returns nil, nil when no property found - transform to domain error
	if property == nil {
		s.log.Debug("Property not found", map[string]interface{}{
			"property_id": id,
		})
		return nil, ErrPropertyNotFound
	}

	return property, nil
}

func (s *propertyService) CreateProperty(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	urls, keys, err := s.uploadPhotos(ctx, in.Photos)
	if err != nil {
		s.log.Error("Failed to upload photos", err, map[string]interface{}{
			"photos": len(in.Photos),
		})
		return nil, fmt.Errorf("failed to upload photos: %w", err)
	}

	location := in.Location
	address := location.FullAddress()

	point, ok, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.log.Error("Failed to geocode address", err, map[string]interface{}{
			"address": address,
		})
		s.deleteUploads(ctx, keys)
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if !ok {
		s.log.Warn("Address not found by geocoder, storing (0, 0)", map[string]interface{}{
			"address": address,
		})
		point = models.NewPoint(0, 0)
	}
	location.Coordinates = point

	property := in.Property
	property.PhotoURLs = urls

	created, err := s.repo.Create(ctx, repository.CreatePropertyParams{
		Property: property,
		Location: location,
	})
	if err != nil {
		s.log.Error("Failed to store property", err, map[string]interface{}{
			"manager": property.ManagerCognitoID,
		})
		s.deleteUploads(ctx, keys)
		return nil, fmt.Errorf("failed to store property: %w", err)
	}

	if err := s.indexer.IndexProperty(ctx, created); err != nil {
		s.log.Warn("Failed to index property", map[string]interface{}{
			"property_id": created.ID,
			"error":       err.Error(),
		})
	}

	s.log.Info("Property created", map[string]interface{}{
		"property_id": created.ID,
		"location_id": created.LocationID,
		"photos":      len(urls),
		"coordinates": point.WKT(),
	})

	return created, nil
}

// uploadPhotos uploads all photos concurrently. URLs are returned in input
// order. On failure every photo that did upload is deleted and the first
// error is returned.
func (s *propertyService) uploadPhotos(ctx context.Context, photos []Photo) (urls, keys []string, err error) {
	urls = make([]string, len(photos))
	uploaded := make([]string, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	for i, photo := range photos {
		g.Go(func() error {
			key := storage.ObjectKey(s.now(), photo.Filename)

			body, err := photo.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", photo.Filename, err)
			}
			defer body.Close()

			url, err := s.store.Upload(gctx, key, body, photo.ContentType)
			if err != nil {
				return err
			}
			urls[i] = url
			uploaded[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.deleteUploads(ctx, compact(uploaded))
		return nil, nil, err
	}
	return urls, uploaded, nil
}

// deleteUploads removes objects concurrently. Failures are logged only.
// The request context may already be cancelled, so deletion gets its own deadline.
func (s *propertyService) deleteUploads(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Delete(ctx, key); err != nil {
				s.log.Error("Failed to delete uploaded photo", err, map[string]interface{}{
					"key": key,
				})
			}
		}()
	}
	wg.Wait()
}

func compact(keys []string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
