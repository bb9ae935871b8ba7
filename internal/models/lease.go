package models

import (
	"time"
)

// Lease binds a tenant to a property for a period.
type Lease struct {
	StartDate       time.Time    `json:"startDate"`
	EndDate         time.Time    `json:"endDate"`
	Tenant          *Tenant      `json:"tenant"`
	Application     *Application `json:"application"`
	Property        *Property    `json:"property"`
	TenantCognitoID string       `json:"tenantCognitoId"`
	Payments        []Payment    `json:"payments"`
	Rent            float64      `json:"rent"`
	Deposit         float64      `json:"deposit"`
	ID              int          `json:"id"`
	PropertyID      int          `json:"propertyId"`
}

// Tenant rents properties.
type Tenant struct {
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ID          int    `json:"id"`
}

// Application is a tenant's request to rent; approved ones link to a lease.
type Application struct {
	ApplicationDate time.Time         `json:"applicationDate"`
	Message         *string           `json:"message"`
	LeaseID         *int              `json:"leaseId"`
	Status          ApplicationStatus `json:"status"`
	TenantCognitoID string            `json:"tenantCognitoId"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	PhoneNumber     string            `json:"phoneNumber"`
	ID              int               `json:"id"`
	PropertyID      int               `json:"propertyId"`
}

// Payment is one rent installment of a lease.
type Payment struct {
	DueDate       time.Time     `json:"dueDate"`
	PaymentDate   time.Time     `json:"paymentDate"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	AmountDue     float64       `json:"amountDue"`
	AmountPaid    float64       `json:"amountPaid"`
	ID            int           `json:"id"`
	LeaseID       int           `json:"leaseId"`
}
