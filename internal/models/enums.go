package models

import (
	"fmt"
	"strings"
)

// PropertyType mirrors the "PropertyType" database enum.
type PropertyType string

const (
	PropertyTypeRooms     PropertyType = "Rooms"
	PropertyTypeTinyhouse PropertyType = "Tinyhouse"
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeTownhouse PropertyType = "Townhouse"
	PropertyTypeCottage   PropertyType = "Cottage"
)

// PropertyTypes lists every PropertyType in schema order.
var PropertyTypes = []PropertyType{
	PropertyTypeRooms, PropertyTypeTinyhouse, PropertyTypeApartment,
	PropertyTypeVilla, PropertyTypeTownhouse, PropertyTypeCottage,
}

// Amenity mirrors the "Amenity" database enum.
type Amenity string

const (
	AmenityWasherDryer       Amenity = "WasherDryer"
	AmenityAirConditioning   Amenity = "AirConditioning"
	AmenityDishwasher        Amenity = "Dishwasher"
	AmenityHighSpeedInternet Amenity = "HighSpeedInternet"
	AmenityHardwoodFloors    Amenity = "HardwoodFloors"
	AmenityWalkInClosets     Amenity = "WalkInClosets"
	AmenityMicrowave         Amenity = "Microwave"
	AmenityRefrigerator      Amenity = "Refrigerator"
	AmenityPool              Amenity = "Pool"
	AmenityGym               Amenity = "Gym"
	AmenityParking           Amenity = "Parking"
	AmenityPetsAllowed       Amenity = "PetsAllowed"
	AmenityWiFi              Amenity = "WiFi"
)

// Amenities lists every Amenity in schema order.
var Amenities = []Amenity{
	AmenityWasherDryer, AmenityAirConditioning, AmenityDishwasher, AmenityHighSpeedInternet,
	AmenityHardwoodFloors, AmenityWalkInClosets, AmenityMicrowave, AmenityRefrigerator,
	AmenityPool, AmenityGym, AmenityParking, AmenityPetsAllowed, AmenityWiFi,
}

// Highlight mirrors the "Highlight" database enum.
type Highlight string

const (
	HighlightHighSpeedInternetAccess Highlight = "HighSpeedInternetAccess"
	HighlightWasherDryer             Highlight = "WasherDryer"
	HighlightAirConditioning         Highlight = "AirConditioning"
	HighlightHeating                 Highlight = "Heating"
	HighlightSmokeFree               Highlight = "SmokeFree"
	HighlightCableReady              Highlight = "CableReady"
	HighlightSatelliteTV             Highlight = "SatelliteTV"
	HighlightDoubleVanities          Highlight = "DoubleVanities"
	HighlightTubShower               Highlight = "TubShower"
	HighlightIntercom                Highlight = "Intercom"
	HighlightSprinklerSystem         Highlight = "SprinklerSystem"
	HighlightRecentlyRenovated       Highlight = "RecentlyRenovated"
	HighlightCloseToTransit          Highlight = "CloseToTransit"
	HighlightGreatView               Highlight = "GreatView"
	HighlightQuietNeighborhood       Highlight = "QuietNeighborhood"
)

// Highlights lists every Highlight in schema order.
var Highlights = []Highlight{
	HighlightHighSpeedInternetAccess, HighlightWasherDryer, HighlightAirConditioning,
	HighlightHeating, HighlightSmokeFree, HighlightCableReady, HighlightSatelliteTV,
	HighlightDoubleVanities, HighlightTubShower, HighlightIntercom, HighlightSprinklerSystem,
	HighlightRecentlyRenovated, HighlightCloseToTransit, HighlightGreatView,
	HighlightQuietNeighborhood,
}

// ApplicationStatus mirrors the "ApplicationStatus" database enum.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusDenied   ApplicationStatus = "Denied"
	ApplicationStatusApproved ApplicationStatus = "Approved"
)

// PaymentStatus mirrors the "PaymentStatus" database enum.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "Pending"
	PaymentStatusPaid          PaymentStatus = "Paid"
	PaymentStatusPartiallyPaid PaymentStatus = "PartiallyPaid"
	PaymentStatusOverdue       PaymentStatus = "Overdue"
)

// ParsePropertyType returns the PropertyType named s.
func ParsePropertyType(s string) (PropertyType, error) {
	for _, t := range PropertyTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// ParseAmenities parses a comma-separated amenity list. Empty items are skipped.
func ParseAmenities(csv string) ([]Amenity, error) {
	return parseEnumList(csv, Amenities, "amenity")
}

// ParseHighlights parses a comma-separated highlight list. Empty items are skipped.
func ParseHighlights(csv string) ([]Highlight, error) {
	return parseEnumList(csv, Highlights, "highlight")
}

func parseEnumList[T ~string](csv string, allowed []T, kind string) ([]T, error) {
	result := []T{}
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		found := false
		for _, v := range allowed {
			if string(v) == name {
				result = append(result, v)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown %s %q", kind, name)
		}
	}
	return result, nil
}

// EnumStrings converts a slice of string-backed enum values to []string.
func EnumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// EnumsFromStrings converts database text values to a string-backed enum slice.
func EnumsFromStrings[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}
