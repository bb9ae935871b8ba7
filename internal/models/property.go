package models

import (
	"time"
)

// Property is a rental listing. JSON names follow the client's camelCase contract.
type Property struct {
	PostedDate        time.Time    `json:"postedDate"`
	Location          *Location    `json:"location,omitempty"`
	Manager           *Manager     `json:"manager,omitempty"`
	AverageRating     *float64     `json:"averageRating"`
	NumberOfReviews   *int         `json:"numberOfReviews"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	PropertyType      PropertyType `json:"propertyType"`
	ManagerCognitoID  string       `json:"managerCognitoId"`
	PhotoURLs         []string     `json:"photoUrls"`
	Amenities         []Amenity    `json:"amenities"`
	Highlights        []Highlight  `json:"highlights"`
	PricePerMonth     float64      `json:"pricePerMonth"`
	SecurityDeposit   float64      `json:"securityDeposit"`
	ApplicationFee    float64      `json:"applicationFee"`
	Baths             float64      `json:"baths"`
	ID                int          `json:"id"`
	Beds              int          `json:"beds"`
	SquareFeet        int          `json:"squareFeet"`
	LocationID        int          `json:"locationId"`
	IsPetsAllowed     bool         `json:"isPetsAllowed"`
	IsParkingIncluded bool         `json:"isParkingIncluded"`
}

// Location is the address and point of exactly one Property.
type Location struct {
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postalCode"`
	Coordinates Point  `json:"coordinates"`
	ID          int    `json:"id"`
}

// FullAddress joins the address parts in the order geocoders expect.
func (l Location) FullAddress() string {
	return l.Address + ", " + l.City + ", " + l.State + ", " + l.PostalCode + ", " + l.Country
}

// Manager owns listings.
type Manager struct {
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ID          int    `json:"id"`
}
