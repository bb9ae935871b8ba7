package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/rentals/api/internal/logger"
	"github.com/stwalsh4118/rentals/api/internal/models"
	"github.com/stwalsh4118/rentals/api/internal/repository"
)

// LeaseService defines the business operations on leases.
type LeaseService interface {
	// GetLeasesByPropertyID returns the leases of a property. A property
	// without leases, or an unknown property, yields an empty slice.
	GetLeasesByPropertyID(ctx context.Context, propertyID int) ([]models.Lease, error)
}

type leaseService struct {
	repo repository.LeaseRepository
	log  *logger.Logger
}

// NewLeaseService creates a new instance of LeaseService.
func NewLeaseService(repo repository.LeaseRepository, log *logger.Logger) LeaseService {
	return &leaseService{
		repo: repo,
		log:  log,
	}
}

func (s *leaseService) GetLeasesByPropertyID(ctx context.Context, propertyID int) ([]models.Lease, error) {
	leases, err := s.repo.FindByPropertyID(ctx, propertyID)
	if err != nil {
		s.log.Error("Failed to query leases", err, map[string]interface{}{
			"property_id": propertyID,
		})
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}

	if leases == nil {
		leases = []models.Lease{}
	}

	s.log.Debug("Leases found", map[string]interface{}{
		"property_id": propertyID,
		"count":       len(leases),
	})

	return leases, nil
}
