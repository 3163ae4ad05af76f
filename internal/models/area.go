package models

// Area represents a single service-area record as it appears in the area
// data resource. Latitude and Longitude are kept as strings because the
// resource stores them as optional text; use HasCoordinates / Coordinates
// to interpret them.
type Area struct {
	City      string `json:"city"`                // City is the area name and its unique key within a load.
	ZipCodes  string `json:"zipCodes,omitempty"`  // ZipCodes is a display string of covered zip codes.
	Latitude  string `json:"latitude,omitempty"`  // Latitude is an optional inline latitude.
	Longitude string `json:"longitude,omitempty"` // Longitude is an optional inline longitude.
}
