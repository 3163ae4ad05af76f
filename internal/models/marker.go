package models

// Marker is a plotted point on the map representing one resolved area.
// Markers are created once and never mutated.
type Marker struct {
	Lat     float64 // Lat is the marker latitude.
	Lon     float64 // Lon is the marker longitude.
	Title   string  // Title is the marker popup title, the city name.
	Details string  // Details is the marker popup body, display name or zip codes.
}
