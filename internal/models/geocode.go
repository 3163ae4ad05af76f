package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// GeocodeResult is a successful answer from a geocoding provider.
type GeocodeResult struct {
	Latitude    float64 // Latitude of the resolved place.
	Longitude   float64 // Longitude of the resolved place.
	DisplayName string  // DisplayName is the provider's formatted name for the place, may be empty.
}

// CacheEntry is the persisted form of a resolved city. Keyed by the exact
// city string as it appeared in the area record.
type CacheEntry struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName,omitempty"`
}

// QueueItem is one pending geocode lookup. FallbackDetails is used as the
// marker details when the provider returns no display name.
type QueueItem struct {
	City            string
	FallbackDetails string
}
