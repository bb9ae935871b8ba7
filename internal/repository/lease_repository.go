package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/rentals/api/internal/database"
	"github.com/stwalsh4118/rentals/api/internal/models"
)

// LeaseRepository defines the data access operations for leases.
type LeaseRepository interface {
	// FindByPropertyID returns every lease of the property with its tenant,
	// application, payments and property. Returns an empty slice if the
	// property has no leases or does not exist.
	FindByPropertyID(ctx context.Context, propertyID int) ([]models.Lease, error)
}

type leaseRepository struct {
	db *database.Database
}

// NewLeaseRepository creates a new instance of LeaseRepository.
func NewLeaseRepository(db *database.Database) LeaseRepository {
	return &leaseRepository{
		db: db,
	}
}

// FindByPropertyID loads leases and tenants in one query, then batch-loads
// applications and payments for all of them with "leaseId" = ANY($1).
func (r *leaseRepository) FindByPropertyID(ctx context.Context, propertyID int) ([]models.Lease, error) {
	query := `
		SELECT
			lease.id,
			lease."startDate",
			lease."endDate",
			lease.rent,
			lease.deposit,
			lease."propertyId",
			lease."tenantCognitoId",
			t.id,
			t."cognitoId",
			t.name,
			t.email,
			t."phoneNumber"
		FROM "Lease" lease
		JOIN "Tenant" t ON t."cognitoId" = lease."tenantCognitoId"
		WHERE lease."propertyId" = $1
		ORDER BY lease.id
	`

	rows, err := r.db.Pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leases for property %d: %w", propertyID, err)
	}
	defer rows.Close()

	leases := []models.Lease{}

	for rows.Next() {
		var lease models.Lease
		var tenant models.Tenant

		err := rows.Scan(
			&lease.ID,
			&lease.StartDate,
			&lease.EndDate,
			&lease.Rent,
			&lease.Deposit,
			&lease.PropertyID,
			&lease.TenantCognitoID,
			&tenant.ID,
			&tenant.CognitoID,
			&tenant.Name,
			&tenant.Email,
			&tenant.PhoneNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lease row: %w", err)
		}

		lease.Tenant = &tenant
		lease.Payments = []models.Payment{}
		leases = append(leases, lease)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lease rows: %w", err)
	}

	if len(leases) == 0 {
		return leases, nil
	}

	ids := make([]int, len(leases))
	index := make(map[int]int, len(leases))
	for i, l := range leases {
		ids[i] = l.ID
		index[l.ID] = i
	}

	applications, err := r.applicationsByLease(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range applications {
		a := applications[i]
		if a.LeaseID == nil {
			continue
		}
		if j, ok := index[*a.LeaseID]; ok {
			leases[j].Application = &a
		}
	}

	payments, err := r.paymentsByLease(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if j, ok := index[p.LeaseID]; ok {
			leases[j].Payments = append(leases[j].Payments, p)
		}
	}

	property, err := r.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range leases {
		leases[i].Property = property
	}

	return leases, nil
}

func (r *leaseRepository) applicationsByLease(ctx context.Context, leaseIDs []int) ([]models.Application, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT
			id,
			"applicationDate",
			status::text,
			"propertyId",
			"tenantCognitoId",
			name,
			email,
			"phoneNumber",
			message,
			"leaseId"
		FROM "Application"
		WHERE "leaseId" = ANY($1::int[])
	`, leaseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var applications []models.Application
	for rows.Next() {
		var a models.Application
		var status string
		err := rows.Scan(
			&a.ID,
			&a.ApplicationDate,
			&status,
			&a.PropertyID,
			&a.TenantCognitoID,
			&a.Name,
			&a.Email,
			&a.PhoneNumber,
			&a.Message,
			&a.LeaseID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		a.Status = models.ApplicationStatus(status)
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return applications, nil
}

func (r *leaseRepository) paymentsByLease(ctx context.Context, leaseIDs []int) ([]models.Payment, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT
			id,
			"amountDue",
			"amountPaid",
			"dueDate",
			"paymentDate",
			"paymentStatus"::text,
			"leaseId"
		FROM "Payment"
		WHERE "leaseId" = ANY($1::int[])
		ORDER BY "dueDate", id
	`, leaseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		var status string
		if err := rows.Scan(&p.ID, &p.AmountDue, &p.AmountPaid, &p.DueDate, &p.PaymentDate, &status, &p.LeaseID); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		p.PaymentStatus = models.PaymentStatus(status)
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// property loads the bare property row shared by every lease.
func (r *leaseRepository) property(ctx context.Context, id int) (*models.Property, error) {
	query := `SELECT` + propertyColumns + `
		FROM "Property" p
		WHERE p.id = $1
	`

	property, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}
	return property, nil
}
